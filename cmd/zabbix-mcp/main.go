// Zabbix MCP - MCP сервер с инструментами Zabbix.
//
// Использование:
//
//	zabbix-mcp [-config config.yaml] [-stdio] [-addr :8765]
//
// В режиме -stdio протокол идёт через stdin/stdout, лог пишется в файл.
// Иначе поднимается streamable HTTP на mcp.path плюс /health и /metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ilkoid/poncho-zabbix/pkg/app"
	"github.com/ilkoid/poncho-zabbix/pkg/mcpserver"
	"github.com/ilkoid/poncho-zabbix/pkg/utils"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "", "path to config.yaml")
	stdio := flag.Bool("stdio", false, "serve MCP over stdin/stdout")
	addr := flag.String("addr", "", "HTTP listen address (overrides mcp.addr)")
	logFile := flag.String("log", "", `log file path, "-" for stderr`)
	flag.Parse()

	cfg, cfgPath, err := app.InitializeConfig(&app.DefaultConfigPathFinder{ConfigFlag: *configFlag})
	if err != nil {
		return err
	}

	logPath := *logFile
	if logPath == "" {
		logPath = cfg.App.LogFile
	}
	if err := utils.InitLogger(utils.LoggerOptions{FilePath: logPath, Debug: cfg.App.Debug}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logger: %v\n", err)
	}

	ctx, shutdown := utils.SetupGracefulShutdown(context.Background())
	defer shutdown()

	utils.Info("Zabbix MCP starting", "config", cfgPath, "version", version, "stdio", *stdio)

	components, err := app.Initialize(cfg)
	if err != nil {
		return err
	}
	server := mcpserver.New(components.Toolset, cfg, version)

	if *stdio {
		err := server.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("stdio server: %w", err)
		}
		return nil
	}

	mcpCfg := cfg.MCP
	if *addr != "" {
		mcpCfg.Addr = *addr
	}
	mcpCfg = mcpCfg.GetDefaults()

	srv := &http.Server{
		Addr:         mcpCfg.Addr,
		Handler:      mcpserver.Handler(server, mcpCfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Info("Listening", "addr", srv.Addr, "path", mcpCfg.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	utils.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
