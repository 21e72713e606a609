package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hylla/skadi/internal/adapters/metrics"
	serveradapter "github.com/hylla/skadi/internal/adapters/server"
	servercommon "github.com/hylla/skadi/internal/adapters/server/common"
	"github.com/hylla/skadi/internal/app"
	"github.com/hylla/skadi/internal/platform"
)

// serveCommandRunner starts the HTTP flow. Tests replace it.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	var (
		httpBind        string
		apiEndpoint     string
		mcpEndpoint     string
		metricsEndpoint string
		rateLimit       float64
		rateBurst       int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST store API, MCP tools and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(opts, "serve", false)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			sc := rt.cfg.Server
			flags := cmd.Flags()
			if flags.Changed("http") {
				sc.Bind = httpBind
			}
			if flags.Changed("api-endpoint") {
				sc.APIEndpoint = apiEndpoint
			}
			if flags.Changed("mcp-endpoint") {
				sc.MCPEndpoint = mcpEndpoint
			}
			if flags.Changed("metrics-endpoint") {
				sc.MetricsEndpoint = metricsEndpoint
			}
			if flags.Changed("rate-limit") {
				sc.RateLimit = rateLimit
			}
			if flags.Changed("rate-burst") {
				sc.RateBurst = rateBurst
			}

			registry := metrics.New()
			svc := rt.service(rt.deps(registry))
			rt.logger.Info("command flow start", "command", "serve", "bind", sc.Bind)
			err = serveCommandRunner(cmd.Context(), serveradapter.Config{
				HTTPBind:        sc.Bind,
				APIEndpoint:     sc.APIEndpoint,
				MCPEndpoint:     sc.MCPEndpoint,
				MetricsEndpoint: sc.MetricsEndpoint,
				ServerName:      platform.AppName,
				ServerVersion:   version,
				RateLimit:       sc.RateLimit,
				RateBurst:       sc.RateBurst,
			}, serveradapter.Dependencies{
				Store:   rt.store,
				Boards:  servercommon.NewAppServiceAdapter(svc),
				Metrics: registry,
				Logger:  rt.logger,
			})
			if err != nil {
				rt.logger.Error("command flow failed", "command", "serve", "err", err)
				return fmt.Errorf("run serve command: %w", err)
			}
			rt.logger.Info("command flow complete", "command", "serve")
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&httpBind, "http", "127.0.0.1:8080", "HTTP listen address")
	flags.StringVar(&apiEndpoint, "api-endpoint", "/api/v1", "REST store API base endpoint")
	flags.StringVar(&mcpEndpoint, "mcp-endpoint", "/mcp", "MCP streamable HTTP endpoint")
	flags.StringVar(&metricsEndpoint, "metrics-endpoint", "/metrics", "prometheus metrics endpoint")
	flags.Float64Var(&rateLimit, "rate-limit", 0, "requests per second per client, 0 disables limiting")
	flags.IntVar(&rateBurst, "rate-burst", 0, "burst size per client")
	return cmd
}

func newPathsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data and database paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := platform.DefaultPathsWithOptions(platform.Options{DevMode: opts.devMode})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(out, "log_dir: %s\n", paths.LogDir)
			return nil
		},
	}
}

// withService opens the runtime for a one-shot command and hands fn a service over it.
func withService(cmd *cobra.Command, opts *rootOptions, name string, fn func(context.Context, *app.Service, io.Writer) error) error {
	rt, err := openRuntime(opts, name, true)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	rt.logger.Info("command flow start", "command", name)
	if err := fn(cmd.Context(), rt.service(rt.deps(nil)), cmd.OutOrStdout()); err != nil {
		rt.logger.Error("command flow failed", "command", name, "err", err)
		return err
	}
	rt.logger.Info("command flow complete", "command", name)
	return nil
}

func newListsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Show job lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, opts, "lists", func(ctx context.Context, svc *app.Service, out io.Writer) error {
				lists, err := svc.ListJobLists(ctx)
				if err != nil {
					return fmt.Errorf("list job lists: %w", err)
				}
				for _, list := range lists {
					_, _ = fmt.Fprintf(out, "%s\t%s\n", list.ID, list.Title)
				}
				return nil
			})
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <title>",
			Short: "Create a job list with the configured status columns",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				title := strings.Join(args, " ")
				return withService(cmd, opts, "lists create", func(ctx context.Context, svc *app.Service, out io.Writer) error {
					list, err := svc.CreateJobList(ctx, title)
					if err != nil {
						return fmt.Errorf("create job list: %w", err)
					}
					_, _ = fmt.Fprintln(out, list.ID)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a job list with its columns and jobs",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withService(cmd, opts, "lists delete", func(ctx context.Context, svc *app.Service, _ io.Writer) error {
					if err := svc.DeleteJobList(ctx, args[0]); err != nil {
						return fmt.Errorf("delete job list: %w", err)
					}
					return nil
				})
			},
		},
	)
	return cmd
}

// exportDocument is one board in display order.
type exportDocument struct {
	ID        string         `json:"id" yaml:"id"`
	Title     string         `json:"title" yaml:"title"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
	Columns   []exportColumn `json:"columns" yaml:"columns"`
}

type exportColumn struct {
	ID    string       `json:"id" yaml:"id"`
	Title string       `json:"title" yaml:"title"`
	Jobs  []exportItem `json:"jobs" yaml:"jobs"`
}

type exportItem struct {
	ID        string  `json:"id" yaml:"id"`
	Title     string  `json:"title" yaml:"title"`
	Company   string  `json:"company" yaml:"company"`
	Location  string  `json:"location,omitempty" yaml:"location,omitempty"`
	Link      string  `json:"link,omitempty" yaml:"link,omitempty"`
	Notes     string  `json:"notes,omitempty" yaml:"notes,omitempty"`
	SortOrder float64 `json:"sort_order" yaml:"sort_order"`
}

func newExportDocument(snap app.BoardSnapshot) exportDocument {
	doc := exportDocument{
		ID:        snap.List.ID,
		Title:     snap.List.Title,
		CreatedAt: snap.List.CreatedAt,
		Columns:   make([]exportColumn, 0, len(snap.Statuses)),
	}
	for _, status := range snap.Statuses {
		col := exportColumn{ID: status.ID, Title: status.Title, Jobs: []exportItem{}}
		for _, item := range snap.Column(status.ID) {
			col.Jobs = append(col.Jobs, exportItem{
				ID:        item.ID,
				Title:     item.Title,
				Company:   item.Company,
				Location:  item.Location,
				Link:      item.Link,
				Notes:     item.Notes,
				SortOrder: item.SortOrder,
			})
		}
		doc.Columns = append(doc.Columns, col)
	}
	return doc
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export <list-id>",
		Short: "Print one board as YAML or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != "yaml" && format != "json" {
				return fmt.Errorf("unsupported export format %q (want yaml or json)", format)
			}
			return withService(cmd, opts, "export", func(ctx context.Context, svc *app.Service, out io.Writer) error {
				snap, err := svc.LoadBoard(ctx, args[0])
				if err != nil {
					return fmt.Errorf("load board: %w", err)
				}
				return writeExport(out, format, newExportDocument(snap))
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or json")
	return cmd
}

func writeExport(out io.Writer, format string, doc exportDocument) error {
	if format == "json" {
		encoded, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encode export json: %w", err)
		}
		_, err = out.Write(append(encoded, '\n'))
		return err
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode export yaml: %w", err)
	}
	return enc.Close()
}
