package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"taskline/internal/engine"
	"taskline/internal/repo"
	"taskline/internal/validate"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
}

type apiErrorBody struct {
	Code    string `json:"code" example:"conflict"`
	Message string `json:"message" example:"please provide a unique name for the project"`
}

// apiError models the unified error envelope. Every failure category uses
// the same shape; callers read message without guessing the key.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Taskline API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/api"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the unified envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			// Malformed path params and bodies are client mistakes, not
			// schema subtleties.
			status = http.StatusBadRequest
		}
		return newAPIError(status, "", msg)
	}

	router := chi.NewRouter()
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, "not_found", "no such endpoint")
	})
	hcfg := huma.DefaultConfig("Taskline API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerProjects(group, cfg.Engine)
	registerActions(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body:   apiErrorBody{Code: code, Message: message},
	}
}

func writeEnvelope(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]apiErrorBody{
		"error": {Code: code, Message: message},
	})
}

// handleError translates the engine's typed outcomes into statuses:
// validation failures and conflicts are 400 (duplicates and bad parent
// references report as client mistakes, matching the write contract),
// absence is 404, anything else is an opaque storage failure.
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var ve engine.ValidationError
	if errors.As(err, &ve) {
		return newAPIError(http.StatusBadRequest, "bad_request", ve.Error())
	}
	var ce engine.ConflictError
	if errors.As(err, &ce) {
		return newAPIError(http.StatusBadRequest, "conflict", ce.Error())
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error())
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error")
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

// decodeRecord parses a submitted body into the untyped record the
// validator's field-set contract is checked against.
func decodeRecord(raw []byte) (validate.Record, huma.StatusError) {
	if len(raw) == 0 {
		return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required")
	}
	var rec validate.Record
	if err := json.Unmarshal(raw, &rec); err != nil || rec == nil {
		return nil, newAPIError(http.StatusBadRequest, "bad_request", "body must be a JSON object")
	}
	return rec, nil
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			spec, _ = json.Marshal(api.OpenAPI())
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Taskline API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

type idPath struct {
	ID int64 `path:"id"`
}

func registerProjects(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []ProjectResponse `json:"body"`
	}, error) {
		items, err := e.ListProjects(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ProjectResponse `json:"body"`
		}{Body: mapProjects(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{id}",
		Summary:     "Get project",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		p, err := e.GetProject(ctx, input.ID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, newAPIError(http.StatusNotFound, "not_found", "project not found, enter a valid id")
			}
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create project",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
		// The JSON contentType on RawBody makes huma validate against a
		// string/binary schema no object can satisfy; the record validator
		// below owns body validation.
		SkipValidateBody: true,
	}, func(ctx context.Context, input *struct {
		RawBody []byte `contentType:"application/json"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		rec, herr := decodeRecord(input.RawBody)
		if herr != nil {
			return nil, herr
		}
		p, err := e.CreateProject(ctx, rec)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "update-project",
		Method:        http.MethodPut,
		Path:          "/projects/{id}",
		Summary:       "Update project",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
		// See create-project: the record validator owns body validation.
		SkipValidateBody: true,
	}, func(ctx context.Context, input *struct {
		idPath
		RawBody []byte `contentType:"application/json"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		rec, herr := decodeRecord(input.RawBody)
		if herr != nil {
			return nil, herr
		}
		p, err := e.UpdateProject(ctx, input.ID, rec)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "please provide a valid project id")
			}
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-project",
		Method:      http.MethodDelete,
		Path:        "/projects/{id}",
		Summary:     "Delete project",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct {
		Body DeletionResponse `json:"body"`
	}, error) {
		n, err := e.DeleteProject(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		if n == 0 {
			return nil, newAPIError(http.StatusNotFound, "not_found", "the project with the specified id does not exist")
		}
		return &struct {
			Body DeletionResponse `json:"body"`
		}{Body: DeletionResponse{Deleted: n}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-project-actions",
		Method:      http.MethodGet,
		Path:        "/projects/{id}/actions",
		Summary:     "List actions of a project",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct {
		Body []ActionResponse `json:"body"`
	}, error) {
		items, err := e.ListProjectActions(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		if len(items) == 0 {
			return nil, newAPIError(http.StatusNotFound, "not_found", "either the project has no actions or there was an invalid id")
		}
		return &struct {
			Body []ActionResponse `json:"body"`
		}{Body: mapActions(items)}, nil
	})
}

func registerActions(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-actions",
		Method:      http.MethodGet,
		Path:        "/actions",
		Summary:     "List actions",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []ActionResponse `json:"body"`
	}, error) {
		items, err := e.ListActions(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ActionResponse `json:"body"`
		}{Body: mapActions(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-action",
		Method:      http.MethodGet,
		Path:        "/actions/{id}",
		Summary:     "Get action",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct {
		Body ActionResponse `json:"body"`
	}, error) {
		a, err := e.GetAction(ctx, input.ID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, newAPIError(http.StatusNotFound, "not_found", "action not found, enter a valid id")
			}
			return nil, handleError(err)
		}
		return &struct {
			Body ActionResponse `json:"body"`
		}{Body: actionResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-action",
		Method:        http.MethodPost,
		Path:          "/actions",
		Summary:       "Create action",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
		// See create-project: the record validator owns body validation.
		SkipValidateBody: true,
	}, func(ctx context.Context, input *struct {
		RawBody []byte `contentType:"application/json"`
	}) (*struct {
		Body ActionResponse `json:"body"`
	}, error) {
		rec, herr := decodeRecord(input.RawBody)
		if herr != nil {
			return nil, herr
		}
		a, err := e.CreateAction(ctx, rec)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ActionResponse `json:"body"`
		}{Body: actionResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "update-action",
		Method:        http.MethodPut,
		Path:          "/actions/{id}",
		Summary:       "Update action",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
		// See create-project: the record validator owns body validation.
		SkipValidateBody: true,
	}, func(ctx context.Context, input *struct {
		idPath
		RawBody []byte `contentType:"application/json"`
	}) (*struct {
		Body ActionResponse `json:"body"`
	}, error) {
		rec, herr := decodeRecord(input.RawBody)
		if herr != nil {
			return nil, herr
		}
		a, err := e.UpdateAction(ctx, input.ID, rec)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "please provide a valid action id")
			}
			return nil, handleError(err)
		}
		return &struct {
			Body ActionResponse `json:"body"`
		}{Body: actionResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-action",
		Method:      http.MethodDelete,
		Path:        "/actions/{id}",
		Summary:     "Delete action",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct {
		Body DeletionResponse `json:"body"`
	}, error) {
		n, err := e.DeleteAction(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		if n == 0 {
			return nil, newAPIError(http.StatusNotFound, "not_found", "the action with the specified id does not exist")
		}
		return &struct {
			Body DeletionResponse `json:"body"`
		}{Body: DeletionResponse{Deleted: n}}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List audit events",
	}, func(ctx context.Context, input *struct {
		Limit      int    `query:"limit" default:"20"`
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind"`
	}) (*struct {
		Body []EventResponse `json:"body"`
	}, error) {
		items, err := e.LatestEvents(ctx, input.Limit, input.Type, input.EntityKind)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []EventResponse `json:"body"`
		}{Body: mapEvents(items)}, nil
	})
}
