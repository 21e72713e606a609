// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hylla/skadi/internal/adapters/server/common"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the board tools.
func NewHandler(cfg Config, boards common.BoardService) (*Handler, error) {
	if boards == nil {
		return nil, fmt.Errorf("board service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerListTools(mcpSrv, boards)
	registerBoardTools(mcpSrv, boards)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "skadi"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerListTools registers list discovery and creation.
func registerListTools(srv *mcpserver.MCPServer, boards common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"skadi.list_job_lists",
			mcp.WithDescription("List every job search list, oldest first."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			lists, err := boards.ListJobLists(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"lists": lists})
			if err != nil {
				return nil, fmt.Errorf("encode list_job_lists result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"skadi.create_job_list",
			mcp.WithDescription("Create a job search list with the default status columns."),
			mcp.WithString("title", mcp.Required(), mcp.Description("List title, at most 40 characters")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			list, err := boards.CreateJobList(ctx, common.CreateListRequest{Title: title})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(list)
			if err != nil {
				return nil, fmt.Errorf("encode create_job_list result: %w", err)
			}
			return result, nil
		},
	)
}

// registerBoardTools registers board reads and card mutations.
func registerBoardTools(srv *mcpserver.MCPServer, boards common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"skadi.get_board",
			mcp.WithDescription("Return one list with its status columns and job items in display order."),
			mcp.WithString("list_id", mcp.Required(), mcp.Description("List identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			listID, err := req.RequireString("list_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			board, err := boards.GetBoard(ctx, listID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(board)
			if err != nil {
				return nil, fmt.Errorf("encode get_board result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"skadi.create_job_item",
			mcp.WithDescription("Add a job item to the top of a list's first status column."),
			mcp.WithString("list_id", mcp.Required(), mcp.Description("List identifier")),
			mcp.WithString("title", mcp.Required(), mcp.Description("Job title")),
			mcp.WithString("company", mcp.Required(), mcp.Description("Company name")),
			mcp.WithString("location", mcp.Description("Optional location")),
			mcp.WithString("link", mcp.Description("Optional posting URL")),
			mcp.WithString("notes", mcp.Description("Optional markdown notes")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			listID, err := req.RequireString("list_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			company, err := req.RequireString("company")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			item, err := boards.CreateJobItem(ctx, common.CreateJobItemRequest{
				ListID:   listID,
				Title:    title,
				Company:  company,
				Location: req.GetString("location", ""),
				Link:     req.GetString("link", ""),
				Notes:    req.GetString("notes", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(item)
			if err != nil {
				return nil, fmt.Errorf("encode create_job_item result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"skadi.move_job_item",
			mcp.WithDescription("Move a job item to a display index of a status column. Index counts the column as it is shown now."),
			mcp.WithString("list_id", mcp.Required(), mcp.Description("List identifier")),
			mcp.WithString("item_id", mcp.Required(), mcp.Description("Job item identifier")),
			mcp.WithString("status_id", mcp.Required(), mcp.Description("Destination status identifier")),
			mcp.WithNumber("index", mcp.Required(), mcp.Description("Destination display index, 0 is the top")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			listID, err := req.RequireString("list_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			itemID, err := req.RequireString("item_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			statusID, err := req.RequireString("status_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			index, err := req.RequireInt("index")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			item, err := boards.MoveJobItem(ctx, common.MoveJobItemRequest{
				ListID:   listID,
				ItemID:   itemID,
				StatusID: statusID,
				Index:    index,
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(item)
			if err != nil {
				return nil, fmt.Errorf("encode move_job_item result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"skadi.rebalance_status",
			mcp.WithDescription("Rewrite the sort order of every job item in one status column to evenly spaced values."),
			mcp.WithString("list_id", mcp.Required(), mcp.Description("List identifier")),
			mcp.WithString("status_id", mcp.Required(), mcp.Description("Status identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			listID, err := req.RequireString("list_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			statusID, err := req.RequireString("status_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			board, err := boards.RebalanceStatus(ctx, listID, statusID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(board)
			if err != nil {
				return nil, fmt.Errorf("encode rebalance_status result: %w", err)
			}
			return result, nil
		},
	)
}

// toolResultFromError maps transport sentinels onto prefixed tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrUnauthorized):
		return mcp.NewToolResultError("unauthorized: " + err.Error())
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
