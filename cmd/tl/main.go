package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"taskline/internal/app"
	"taskline/internal/config"
	"taskline/internal/domain"
	"taskline/internal/engine"
	"taskline/internal/server"
	"taskline/internal/validate"
)

var rootCmd = &cobra.Command{
	Use:   "tl",
	Short: "Taskline CLI",
	Long: `Taskline manages projects and the actions that belong to them.
Every write goes through the same validation and consistency layer as the
HTTP API: field contracts first, then name/description uniqueness, then the
project reference for actions.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TASKLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(actionCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage projects"}
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectShowCmd())
	prj.AddCommand(projectCreateCmd())
	prj.AddCommand(projectUpdateCmd())
	prj.AddCommand(projectDeleteCmd())
	prj.AddCommand(projectActionsCmd())
	return prj
}

func projectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListProjects(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Description", "Completed"})
				for _, p := range items {
					tw.AppendRow(table.Row{p.ID, p.Name, p.Description, p.Completed})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func projectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.GetProject(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(p)
			})
		},
	}
}

func projectCreateCmd() *cobra.Command {
	var name, desc string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.CreateProject(ctx, validate.Record{
					"name":        name,
					"description": desc,
				})
				if err != nil {
					return err
				}
				return printJSON(p)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "project name")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func projectUpdateCmd() *cobra.Command {
	var name, desc string
	var completed bool
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a project (full replace)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.UpdateProject(ctx, id, validate.Record{
					"name":        name,
					"description": desc,
					"completed":   completed,
				})
				if err != nil {
					return err
				}
				return printJSON(p)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "project name")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	cmd.Flags().BoolVar(&completed, "completed", false, "completed flag")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func projectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				n, err := e.DeleteProject(ctx, id)
				if err != nil {
					return err
				}
				if n == 0 {
					return fmt.Errorf("project %d does not exist", id)
				}
				return printJSON(map[string]int64{"deleted": n})
			})
		},
	}
}

func projectActionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "actions <id>",
		Short: "List actions of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListProjectActions(ctx, id)
				if err != nil {
					return err
				}
				return printActions(items)
			})
		},
	}
}

func actionCmd() *cobra.Command {
	act := &cobra.Command{Use: "action", Short: "Manage actions"}
	act.AddCommand(actionListCmd())
	act.AddCommand(actionShowCmd())
	act.AddCommand(actionCreateCmd())
	act.AddCommand(actionUpdateCmd())
	act.AddCommand(actionDeleteCmd())
	return act
}

func actionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListActions(ctx)
				if err != nil {
					return err
				}
				return printActions(items)
			})
		},
	}
}

func actionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.GetAction(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(a)
			})
		},
	}
}

func actionCreateCmd() *cobra.Command {
	var projectID int64
	var desc, notes string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create action",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.CreateAction(ctx, validate.Record{
					"project_id":  projectID,
					"description": desc,
					"notes":       notes,
				})
				if err != nil {
					return err
				}
				return printJSON(a)
			})
		},
	}
	cmd.Flags().Int64Var(&projectID, "project", 0, "owning project id")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("notes")
	return cmd
}

func actionUpdateCmd() *cobra.Command {
	var projectID int64
	var desc, notes string
	var completed bool
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an action (full replace)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.UpdateAction(ctx, id, validate.Record{
					"project_id":  projectID,
					"description": desc,
					"notes":       notes,
					"completed":   completed,
				})
				if err != nil {
					return err
				}
				return printJSON(a)
			})
		},
	}
	cmd.Flags().Int64Var(&projectID, "project", 0, "owning project id")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	cmd.Flags().BoolVar(&completed, "completed", false, "completed flag")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("notes")
	return cmd
}

func actionDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				n, err := e.DeleteAction(ctx, id)
				if err != nil {
					return err
				}
				if n == 0 {
					return fmt.Errorf("action %d does not exist", id)
				}
				return printJSON(map[string]int64{"deleted": n})
			})
		},
	}
}

func logCmd() *cobra.Command {
	log := &cobra.Command{Use: "log", Short: "Audit log"}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail audit events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.LatestEvents(ctx, n, evtType, entityKind)
				if err != nil {
					return err
				}
				return printJSON(items)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind filter")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := config.LoadOptional(workspace)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if basePath != "" {
				cfg.Server.BasePath = basePath
			}
			e, closeDB, err := app.Open(workspace)
			if err != nil {
				return err
			}
			defer closeDB()
			handler, err := server.New(server.Config{Engine: e, BasePath: cfg.Server.BasePath})
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler}
			go func() {
				<-ctx.Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Taskline API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n",
				cfg.Server.Addr, cfg.Server.BasePath, cfg.Server.BasePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides taskline.yml)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (overrides taskline.yml)")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	e, closeDB, err := app.Open(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer closeDB()
	return fn(ctx, e)
}

func printActions(items []domain.Action) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Project", "Description", "Notes", "Completed"})
	for _, a := range items {
		tw.AppendRow(table.Row{a.ID, a.ProjectID, a.Description, a.Notes, a.Completed})
	}
	tw.Render()
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
