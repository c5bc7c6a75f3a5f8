package app

import (
	"fmt"

	"taskline/internal/db"
	"taskline/internal/engine"
	"taskline/internal/migrate"
)

// Open prepares the workspace database (creating and migrating it if
// needed) and returns a ready engine plus a close func for the connection.
func Open(workspace string) (engine.Engine, func() error, error) {
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		return engine.Engine{}, nil, fmt.Errorf("ensure workspace: %w", err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return engine.Engine{}, nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return engine.Engine{}, nil, fmt.Errorf("migrate: %w", err)
	}
	return engine.New(conn), conn.Close, nil
}
