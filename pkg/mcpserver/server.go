// Package mcpserver публикует инструменты Zabbix через Model Context Protocol.
//
// Каждый инструмент регистрируется с типизированным входом; статус вызова
// уходит клиенту как notifications/message с payload
// {"type":"status","data":{"description":...,"done":true}}.
package mcpserver

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ilkoid/poncho-zabbix/pkg/config"
	"github.com/ilkoid/poncho-zabbix/pkg/events"
	"github.com/ilkoid/poncho-zabbix/pkg/metrics"
	"github.com/ilkoid/poncho-zabbix/pkg/tools/std"
	"github.com/ilkoid/poncho-zabbix/pkg/utils"
)

// Name — имя реализации в MCP handshake.
const Name = "zabbix-mcp"

// NoInput — вход инструментов без аргументов.
type NoInput struct{}

// ItemListInput — вход zabbix_item_list.
type ItemListInput struct {
	HostName string `json:"host_name,omitempty" jsonschema:"name of the host from the host list, optional"`
}

// HostItemInput — вход zabbix_item_value и zabbix_item_history.
type HostItemInput struct {
	HostName string `json:"host_name" jsonschema:"name of the host, must be a value from the retrieved host list"`
	ItemName string `json:"item_name" jsonschema:"name of the item, must be a value from the retrieved item list"`
}

// New создаёт MCP сервер с включёнными в конфигурации инструментами.
func New(set *std.Toolset, cfg *config.AppConfig, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    Name,
		Version: version,
	}, nil)

	registered := 0
	for _, tool := range set.Tools() {
		def := tool.Definition()
		if !cfg.ToolEnabled(def.Name) {
			continue
		}
		meta := &mcp.Tool{Name: def.Name, Description: def.Description}

		switch def.Name {
		case std.HostListOp.Tool:
			mcp.AddTool(server, meta, func(ctx context.Context, req *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, any, error) {
				return text(set.ListHosts(withSessionStatus(ctx, req))), nil, nil
			})
		case std.ItemListOp.Tool:
			mcp.AddTool(server, meta, func(ctx context.Context, req *mcp.CallToolRequest, in ItemListInput) (*mcp.CallToolResult, any, error) {
				return text(set.ListItems(withSessionStatus(ctx, req), in.HostName)), nil, nil
			})
		case std.ItemValueOp.Tool:
			mcp.AddTool(server, meta, func(ctx context.Context, req *mcp.CallToolRequest, in HostItemInput) (*mcp.CallToolResult, any, error) {
				host, item, err := std.ValidateHostItem(in.HostName, in.ItemName)
				if err != nil {
					return nil, nil, err
				}
				return text(set.GetItemValue(withSessionStatus(ctx, req), host, item)), nil, nil
			})
		case std.ItemHistoryOp.Tool:
			mcp.AddTool(server, meta, func(ctx context.Context, req *mcp.CallToolRequest, in HostItemInput) (*mcp.CallToolResult, any, error) {
				host, item, err := std.ValidateHostItem(in.HostName, in.ItemName)
				if err != nil {
					return nil, nil, err
				}
				return text(set.GetItemHistory(withSessionStatus(ctx, req), host, item)), nil, nil
			})
		case std.ProblemListOp.Tool:
			mcp.AddTool(server, meta, func(ctx context.Context, req *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, any, error) {
				return text(set.ListProblems(withSessionStatus(ctx, req))), nil, nil
			})
		default:
			continue
		}
		registered++
	}

	utils.Info("MCP server created", "tools", registered, "version", version)
	return server
}

func text(s string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: s}},
	}
}

// withSessionStatus подкладывает в контекст Emitter, пересылающий статусы
// инструмента в сессию клиента.
func withSessionStatus(ctx context.Context, req *mcp.CallToolRequest) context.Context {
	if req == nil || req.Session == nil {
		return ctx
	}
	session := req.Session
	return events.WithEmitter(ctx, events.EmitterFunc(func(ctx context.Context, e events.Event) {
		status, ok := e.Data.(events.StatusData)
		if !ok || e.Type != events.EventStatus {
			return
		}
		err := session.Log(ctx, &mcp.LoggingMessageParams{
			Level:  "info",
			Logger: Name,
			Data:   events.StatusPayload(status),
		})
		if err != nil {
			utils.Debug("Status notification dropped", "error", err)
		}
	}))
}

// Handler собирает HTTP mux: MCP (streamable HTTP), /health и метрики.
func Handler(server *mcp.Server, cfg config.MCPConfig) http.Handler {
	cfg = cfg.GetDefaults()

	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{
		Stateless: cfg.Stateless,
	})

	mx := http.NewServeMux()
	mx.Handle(cfg.Path, mcpHandler)
	mx.Handle(cfg.Path+"/", mcpHandler)
	mx.Handle("GET "+cfg.MetricsPath, metrics.Handler())
	mx.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","service":"` + Name + `"}`))
	})
	return mx
}
