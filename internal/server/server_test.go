package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"testing"

	"taskline/internal/db"
	"taskline/internal/engine"
	"taskline/internal/migrate"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn)
	handler, err := New(Config{Engine: e, BasePath: "/api"})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func errMessage(t *testing.T, data []byte) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal error envelope %q: %v", string(data), err)
	}
	if envelope.Error.Code == "" {
		t.Fatalf("error envelope missing code: %s", string(data))
	}
	return envelope.Error.Message
}

func TestProjectAndActionLifecycle(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/projects", map[string]any{
		"name":        "Alpha",
		"description": "first project",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create project status %d: %s", res.StatusCode, string(data))
	}
	var project ProjectResponse
	if err := json.Unmarshal(data, &project); err != nil {
		t.Fatalf("unmarshal project: %v", err)
	}
	if project.ID == 0 || project.Name != "Alpha" || project.Completed {
		t.Fatalf("unexpected project %+v", project)
	}

	// A second project with the same name is rejected.
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/api/projects", map[string]any{
		"name":        "Alpha",
		"description": "other",
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate name status %d: %s", res.StatusCode, string(data))
	}
	if msg := errMessage(t, data); msg != "please provide a unique name for the project" {
		t.Fatalf("unexpected conflict message %q", msg)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/api/actions", map[string]any{
		"project_id":  project.ID,
		"description": "Ship it",
		"notes":       "before friday",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create action status %d: %s", res.StatusCode, string(data))
	}
	var action ActionResponse
	if err := json.Unmarshal(data, &action); err != nil {
		t.Fatalf("unmarshal action: %v", err)
	}
	if action.ProjectID != project.ID || action.Completed {
		t.Fatalf("unexpected action %+v", action)
	}

	// An action pointing at a project that does not exist is rejected.
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/api/actions", map[string]any{
		"project_id":  99,
		"description": "Orphan",
		"notes":       "n/a",
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("orphan action status %d: %s", res.StatusCode, string(data))
	}
	if msg := errMessage(t, data); msg != "please provide a valid project_id for the action" {
		t.Fatalf("unexpected message %q", msg)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/projects/"+itoa(project.ID)+"/actions", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("project actions status %d: %s", res.StatusCode, string(data))
	}
	var actions []ActionResponse
	if err := json.Unmarshal(data, &actions); err != nil {
		t.Fatalf("unmarshal actions: %v", err)
	}
	if len(actions) != 1 || actions[0].ID != action.ID {
		t.Fatalf("unexpected actions %+v", actions)
	}
}

func TestUpdateReturnsCreatedStatus(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	_, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/projects", map[string]any{
		"name": "Alpha", "description": "first",
	})
	var project ProjectResponse
	if err := json.Unmarshal(data, &project); err != nil {
		t.Fatalf("unmarshal project: %v", err)
	}

	res, data := doJSON(t, client, http.MethodPut, srv.URL+"/api/projects/"+itoa(project.ID), map[string]any{
		"name": "Alpha2", "description": "revised", "completed": true,
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("update status %d: %s", res.StatusCode, string(data))
	}
	var updated ProjectResponse
	if err := json.Unmarshal(data, &updated); err != nil {
		t.Fatalf("unmarshal updated: %v", err)
	}
	if updated.Name != "Alpha2" || !updated.Completed {
		t.Fatalf("unexpected updated project %+v", updated)
	}

	// Unknown ids on update are reported as a bad request, not absence.
	res, data = doJSON(t, client, http.MethodPut, srv.URL+"/api/projects/999", map[string]any{
		"name": "Ghost", "description": "none", "completed": false,
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown id update status %d: %s", res.StatusCode, string(data))
	}
	if msg := errMessage(t, data); msg != "please provide a valid project id" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestValidationMessages(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	cases := []struct {
		name string
		body map[string]any
		want string
	}{
		{
			name: "missing name",
			body: map[string]any{"description": "d"},
			want: "please provide a valid name for the project",
		},
		{
			name: "completed on create",
			body: map[string]any{"name": "A", "description": "d", "completed": true},
			want: "please provide exactly the expected fields for the project",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/projects", tc.body)
			if res.StatusCode != http.StatusBadRequest {
				t.Fatalf("status %d: %s", res.StatusCode, string(data))
			}
			if msg := errMessage(t, data); msg != tc.want {
				t.Fatalf("got %q, want %q", msg, tc.want)
			}
		})
	}
}

func TestDeleteProject(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	_, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/projects", map[string]any{
		"name": "Alpha", "description": "first",
	})
	var project ProjectResponse
	if err := json.Unmarshal(data, &project); err != nil {
		t.Fatalf("unmarshal project: %v", err)
	}

	res, data := doJSON(t, client, http.MethodDelete, srv.URL+"/api/projects/"+itoa(project.ID), nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("delete status %d: %s", res.StatusCode, string(data))
	}
	var del DeletionResponse
	if err := json.Unmarshal(data, &del); err != nil {
		t.Fatalf("unmarshal deletion: %v", err)
	}
	if del.Deleted != 1 {
		t.Fatalf("expected one deletion, got %d", del.Deleted)
	}

	res, data = doJSON(t, client, http.MethodDelete, srv.URL+"/api/projects/"+itoa(project.ID), nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("repeat delete status %d: %s", res.StatusCode, string(data))
	}
	if msg := errMessage(t, data); msg != "the project with the specified id does not exist" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestNotFoundResponses(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/api/projects/42", nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("missing project status %d: %s", res.StatusCode, string(data))
	}
	errMessage(t, data)

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/actions/42", nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("missing action status %d: %s", res.StatusCode, string(data))
	}
	if msg := errMessage(t, data); msg != "action not found, enter a valid id" {
		t.Fatalf("unexpected message %q", msg)
	}

	// A project with no actions reports 404 on its actions listing.
	_, data = doJSON(t, client, http.MethodPost, srv.URL+"/api/projects", map[string]any{
		"name": "Alpha", "description": "first",
	})
	var project ProjectResponse
	if err := json.Unmarshal(data, &project); err != nil {
		t.Fatalf("unmarshal project: %v", err)
	}
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/projects/"+itoa(project.ID)+"/actions", nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("empty actions status %d: %s", res.StatusCode, string(data))
	}
	if msg := errMessage(t, data); msg != "either the project has no actions or there was an invalid id" {
		t.Fatalf("unexpected message %q", msg)
	}

	// Unmatched paths use the same envelope.
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/nowhere", nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("unmatched path status %d: %s", res.StatusCode, string(data))
	}
	if msg := errMessage(t, data); msg != "no such endpoint" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestMalformedBody(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/projects", bytes.NewReader([]byte("not json")))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, _ := io.ReadAll(res.Body)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed body status %d: %s", res.StatusCode, string(data))
	}
	errMessage(t, data)
}

func TestEventsEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	doJSON(t, client, http.MethodPost, srv.URL+"/api/projects", map[string]any{
		"name": "Alpha", "description": "first",
	})

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/api/events?entity_kind=project", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("events status %d: %s", res.StatusCode, string(data))
	}
	var events []EventResponse
	if err := json.Unmarshal(data, &events); err != nil {
		t.Fatalf("unmarshal events: %v", err)
	}
	if len(events) != 1 || events[0].Type != "project.created" {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestHealth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/health", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d: %s", res.StatusCode, string(data))
	}
	var body map[string]string
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected health body %v", body)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
