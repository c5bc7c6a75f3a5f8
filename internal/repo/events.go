package repo

import (
	"context"
	"database/sql"
	"strings"

	"taskline/internal/domain"
)

// LatestEvents returns the most recent audit events, newest first.
func (r Repo) LatestEvents(ctx context.Context, limit int, evtType, entityKind string) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 20
	}
	clauses := []string{"1=1"}
	var args []any
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	if entityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, entityKind)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := `SELECT id,ts,type,correlation_id,entity_kind,entity_id,payload_json FROM events ` + where + ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		var entityID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.CorrelationID, &e.EntityKind, &entityID, &e.Payload); err != nil {
			return nil, err
		}
		if entityID.Valid {
			e.EntityID = entityID.Int64
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
