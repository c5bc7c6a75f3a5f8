package tasklinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a minimal Taskline HTTP API client.
type Client struct {
	BaseURL    string
	BasePath   string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "api",
		Timeout:  10 * time.Second,
	}
}

// Project mirrors the API project model.
type Project struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Action mirrors the API action model.
type Action struct {
	ID          int64  `json:"id"`
	ProjectID   int64  `json:"project_id"`
	Description string `json:"description"`
	Notes       string `json:"notes"`
	Completed   bool   `json:"completed"`
}

// Deletion reports how many records a delete removed.
type Deletion struct {
	Deleted int64 `json:"deleted"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// ListProjects returns every project.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var resp []Project
	err := c.do(ctx, http.MethodGet, "projects", nil, &resp)
	return resp, err
}

// GetProject fetches one project by id.
func (c *Client) GetProject(ctx context.Context, id int64) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("projects/%d", id), nil, &resp)
	return resp, err
}

// CreateProject creates a project.
func (c *Client) CreateProject(ctx context.Context, name, description string) (Project, error) {
	body := map[string]any{"name": name, "description": description}
	var resp Project
	err := c.do(ctx, http.MethodPost, "projects", body, &resp)
	return resp, err
}

// UpdateProject replaces the full project record at id.
func (c *Client) UpdateProject(ctx context.Context, id int64, name, description string, completed bool) (Project, error) {
	body := map[string]any{"name": name, "description": description, "completed": completed}
	var resp Project
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("projects/%d", id), body, &resp)
	return resp, err
}

// DeleteProject removes a project and its actions.
func (c *Client) DeleteProject(ctx context.Context, id int64) (Deletion, error) {
	var resp Deletion
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("projects/%d", id), nil, &resp)
	return resp, err
}

// ProjectActions lists the actions belonging to a project.
func (c *Client) ProjectActions(ctx context.Context, projectID int64) ([]Action, error) {
	var resp []Action
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("projects/%d/actions", projectID), nil, &resp)
	return resp, err
}

// ListActions returns every action.
func (c *Client) ListActions(ctx context.Context) ([]Action, error) {
	var resp []Action
	err := c.do(ctx, http.MethodGet, "actions", nil, &resp)
	return resp, err
}

// GetAction fetches one action by id.
func (c *Client) GetAction(ctx context.Context, id int64) (Action, error) {
	var resp Action
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("actions/%d", id), nil, &resp)
	return resp, err
}

// CreateAction creates an action under a project.
func (c *Client) CreateAction(ctx context.Context, projectID int64, description, notes string) (Action, error) {
	body := map[string]any{"project_id": projectID, "description": description, "notes": notes}
	var resp Action
	err := c.do(ctx, http.MethodPost, "actions", body, &resp)
	return resp, err
}

// UpdateAction replaces the full action record at id.
func (c *Client) UpdateAction(ctx context.Context, id, projectID int64, description, notes string, completed bool) (Action, error) {
	body := map[string]any{"project_id": projectID, "description": description, "notes": notes, "completed": completed}
	var resp Action
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("actions/%d", id), body, &resp)
	return resp, err
}

// DeleteAction removes an action.
func (c *Client) DeleteAction(ctx context.Context, id int64) (Deletion, error) {
	var resp Deletion
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("actions/%d", id), nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.Trim(c.BasePath, "/") + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
