package migrate

import (
	"database/sql"
	"fmt"
)

type Migration struct {
	Version int
	Name    string
	UpSQL   string
}

var migrations = []Migration{
	{
		Version: 1,
		Name:    "0001_init",
		UpSQL: `
CREATE TABLE projects (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0
);
CREATE UNIQUE INDEX idx_projects_name ON projects(name);

CREATE TABLE actions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	description TEXT NOT NULL,
	notes TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0
);
CREATE UNIQUE INDEX idx_actions_project_description ON actions(project_id, description);
`,
	},
	{
		Version: 2,
		Name:    "0002_events",
		UpSQL: `
CREATE TABLE events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts TEXT NOT NULL,
	type TEXT NOT NULL,
	correlation_id TEXT NOT NULL,
	entity_kind TEXT NOT NULL,
	entity_id INTEGER,
	payload_json TEXT NOT NULL
);
`,
	},
}

// Migrate applies pending migrations in order.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS schema_version(version INTEGER NOT NULL);`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var currentVersion int
	err = tx.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&currentVersion)
	if err == sql.ErrNoRows {
		if _, err := tx.Exec(`INSERT INTO schema_version(version) VALUES (0)`); err != nil {
			return fmt.Errorf("init schema_version: %w", err)
		}
		currentVersion = 0
	} else if err != nil {
		return fmt.Errorf("read schema_version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}
		if _, err := tx.Exec(m.UpSQL); err != nil {
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
		if _, err := tx.Exec(`UPDATE schema_version SET version=?`, m.Version); err != nil {
			return fmt.Errorf("update schema_version: %w", err)
		}
		currentVersion = m.Version
	}
	return tx.Commit()
}
