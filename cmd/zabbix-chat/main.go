// Zabbix Chat - чат с LLM агентом, у которого есть инструменты Zabbix.
//
// Использование:
//
//	zabbix-chat [-config config.yaml] [-model name]            # TUI
//	zabbix-chat [-config config.yaml] -query "which hosts..."  # один вопрос, ответ в stdout
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"github.com/ilkoid/poncho-zabbix/internal/ui"
	"github.com/ilkoid/poncho-zabbix/pkg/app"
	"github.com/ilkoid/poncho-zabbix/pkg/events"
	"github.com/ilkoid/poncho-zabbix/pkg/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "", "path to config.yaml")
	modelFlag := flag.String("model", "", "model name from models.definitions (default: models.default_chat)")
	query := flag.String("query", "", "ask one question and print the answer")
	width := flag.Int("width", 100, "wrap width for -query output")
	flag.Parse()

	cfg, _, err := app.InitializeConfig(&app.DefaultConfigPathFinder{ConfigFlag: *configFlag})
	if err != nil {
		return err
	}
	if err := utils.InitLogger(utils.LoggerOptions{FilePath: cfg.App.LogFile, Debug: cfg.App.Debug}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logger: %v\n", err)
	}

	ctx, shutdown := utils.SetupGracefulShutdown(context.Background())
	defer shutdown()

	components, err := app.Initialize(cfg)
	if err != nil {
		return err
	}

	modelName := *modelFlag
	if modelName == "" {
		modelName = cfg.Models.DefaultChat
	}

	if *query != "" {
		return ask(ctx, components, modelName, *query, *width)
	}

	var program *tea.Program
	ag, err := components.NewAgent(modelName, ui.ProgramEmitter(func(msg tea.Msg) {
		program.Send(msg)
	}))
	if err != nil {
		return err
	}

	program = tea.NewProgram(
		ui.New(ctx, ag, modelName),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err = program.Run()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// ask задаёт один вопрос; статусы инструментов печатаются в stderr.
func ask(ctx context.Context, components *app.Components, modelName, query string, width int) error {
	emitter := events.NewChanEmitter(16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range emitter.Subscribe().Events() {
			if s, ok := e.Data.(events.StatusData); ok {
				fmt.Fprintln(os.Stderr, "·", s.Description)
			}
		}
	}()

	ag, err := components.NewAgent(modelName, emitter)
	if err != nil {
		emitter.Close()
		<-done
		return err
	}
	answer, err := ag.Run(ctx, query)
	emitter.Close()
	<-done
	if err != nil {
		return err
	}

	fmt.Println(wordwrap.String(answer, width))
	return nil
}
