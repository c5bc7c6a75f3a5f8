package server

import (
	"encoding/json"

	"taskline/internal/domain"
)

// Response payloads. Write requests are decoded as untyped records so the
// exact-field-set contract sees the submitted object verbatim; only the
// responses are typed.

type ProjectResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

type ActionResponse struct {
	ID          int64  `json:"id"`
	ProjectID   int64  `json:"project_id"`
	Description string `json:"description"`
	Notes       string `json:"notes"`
	Completed   bool   `json:"completed"`
}

type DeletionResponse struct {
	Deleted int64 `json:"deleted"`
}

type EventResponse struct {
	ID            int64          `json:"id"`
	TS            string         `json:"ts" format:"date-time"`
	Type          string         `json:"type"`
	CorrelationID string         `json:"correlation_id"`
	EntityKind    string         `json:"entity_kind"`
	EntityID      int64          `json:"entity_id,omitempty"`
	Payload       map[string]any `json:"payload"`
}

// Conversion helpers

func projectResponse(p domain.Project) ProjectResponse {
	return ProjectResponse(p)
}

func mapProjects(items []domain.Project) []ProjectResponse {
	res := make([]ProjectResponse, 0, len(items))
	for _, p := range items {
		res = append(res, projectResponse(p))
	}
	return res
}

func actionResponse(a domain.Action) ActionResponse {
	return ActionResponse(a)
}

func mapActions(items []domain.Action) []ActionResponse {
	res := make([]ActionResponse, 0, len(items))
	for _, a := range items {
		res = append(res, actionResponse(a))
	}
	return res
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:            e.ID,
		TS:            e.TS,
		Type:          e.Type,
		CorrelationID: e.CorrelationID,
		EntityKind:    e.EntityKind,
		EntityID:      e.EntityID,
		Payload:       decodeJSONMap(e.Payload),
	}
}

func mapEvents(items []domain.Event) []EventResponse {
	res := make([]EventResponse, 0, len(items))
	for _, e := range items {
		res = append(res, eventResponse(e))
	}
	return res
}

func decodeJSONMap(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var tmp any
	if err := json.Unmarshal([]byte(raw), &tmp); err != nil {
		return nil
	}
	if obj, ok := tmp.(map[string]any); ok {
		return obj
	}
	return nil
}
