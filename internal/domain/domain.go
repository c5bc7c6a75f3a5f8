package domain

type Project struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

type Action struct {
	ID          int64  `json:"id"`
	ProjectID   int64  `json:"project_id"`
	Description string `json:"description"`
	Notes       string `json:"notes"`
	Completed   bool   `json:"completed"`
}

type Event struct {
	ID            int64  `json:"id"`
	TS            string `json:"ts" format:"date-time"`
	Type          string `json:"type"`
	CorrelationID string `json:"correlation_id"`
	EntityKind    string `json:"entity_kind"`
	EntityID      int64  `json:"entity_id,omitempty"`
	Payload       string `json:"payload_json"`
}
