// Zabbix Tools Test - CLI утилита для проверки инструментов Zabbix на живом сервере.
//
// Последовательно вызывает инструменты и выводит результаты со сводкой.
//
// Использование:
//
//	zabbix-tools-test -host "Zabbix server" -item "CPU utilization"
//	zabbix-tools-test -item "CPU utilization"   # хост: первый мониторящийся
//	zabbix-tools-test -tool zabbix_item_value -args '{"host_name":"Web","item_name":"Load"}'
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilkoid/poncho-zabbix/pkg/app"
	"github.com/ilkoid/poncho-zabbix/pkg/tools"
	"github.com/ilkoid/poncho-zabbix/pkg/tools/std"
	"github.com/ilkoid/poncho-zabbix/pkg/utils"
	"github.com/ilkoid/poncho-zabbix/pkg/zabbix"
)

// TestCase - один вызов инструмента
type TestCase struct {
	ToolName string
	Args     string
}

// TestResult - результат выполнения инструмента
type TestResult struct {
	ToolName string        `json:"tool_name"`
	Args     string        `json:"arguments"`
	Result   string        `json:"result"`
	Error    string        `json:"error,omitempty"`
	Outcome  string        `json:"outcome"`
	Duration time.Duration `json:"duration"`
}

// TestSummary - итоговая статистика
type TestSummary struct {
	Total     int       `json:"total"`
	OK        int       `json:"ok"`
	NotFound  int       `json:"not_found"`
	Failed    int       `json:"failed"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "", "path to config.yaml")
	toolFlag := flag.String("tool", "", "run only this tool")
	argsFlag := flag.String("args", "{}", "JSON arguments for -tool")
	host := flag.String("host", "", "host name for item tools")
	item := flag.String("item", "", "item name for value/history tools")
	out := flag.String("out", "", "write JSON results to this directory")
	flag.Parse()

	cfg, cfgPath, err := app.InitializeConfig(&app.DefaultConfigPathFinder{ConfigFlag: *configFlag})
	if err != nil {
		return err
	}
	if err := utils.InitLogger(utils.LoggerOptions{FilePath: cfg.App.LogFile, Debug: cfg.App.Debug}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logger: %v\n", err)
	}
	defer utils.Close()

	utils.Info("Zabbix tools test started", "config", cfgPath)

	components, err := app.Initialize(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()

	var plan []TestCase
	if *toolFlag != "" {
		plan = []TestCase{{ToolName: *toolFlag, Args: *argsFlag}}
	} else {
		hostName, err := preflight(ctx, components.Zabbix, *host)
		if err != nil {
			return err
		}
		plan = buildPlan(hostName, *item)
	}

	results, summary := execute(ctx, components.Registry, plan)
	printSummary(summary)

	if *out != "" {
		if err := saveResults(*out, results, summary); err != nil {
			utils.Error("Failed to save results", "error", err)
		}
	}

	utils.Info("Test completed", "total", summary.Total, "ok", summary.OK, "failed", summary.Failed)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d tool calls failed", summary.Failed, summary.Total)
	}
	return nil
}

// hostLister — часть zabbix.Client, нужная для preflight.
type hostLister interface {
	GetHosts(ctx context.Context) ([]zabbix.Host, error)
}

// preflight проверяет доступность API до прогона инструментов.
// Если host не задан, берётся первый хост с включённым мониторингом.
func preflight(ctx context.Context, client hostLister, host string) (string, error) {
	hosts, err := client.GetHosts(ctx)
	if err != nil {
		return "", fmt.Errorf("%s (%s): %w", zabbix.ClassifyError(err).HumanMessage(), zabbix.ClassifyError(err), err)
	}
	if host != "" {
		return host, nil
	}
	for _, h := range hosts {
		if h.Monitored() {
			fmt.Printf("Using monitored host %q\n", h.Host)
			return h.Host, nil
		}
	}
	return "", nil
}

// buildPlan возвращает порядок вызовов по умолчанию.
// Инструменты для item пропускаются, если host или item не заданы.
func buildPlan(host, item string) []TestCase {
	plan := []TestCase{
		{ToolName: std.HostListOp.Tool, Args: "{}"},
		{ToolName: std.ProblemListOp.Tool, Args: "{}"},
		{ToolName: std.ItemListOp.Tool, Args: mustJSON(map[string]string{"host_name": host})},
	}
	if host != "" && item != "" {
		args := mustJSON(map[string]string{"host_name": host, "item_name": item})
		plan = append(plan,
			TestCase{ToolName: std.ItemValueOp.Tool, Args: args},
			TestCase{ToolName: std.ItemHistoryOp.Tool, Args: args},
		)
	}
	return plan
}

func execute(ctx context.Context, registry *tools.Registry, plan []TestCase) ([]TestResult, TestSummary) {
	results := make([]TestResult, 0, len(plan))
	summary := TestSummary{StartTime: time.Now()}

	for _, tc := range plan {
		fmt.Printf("🔧 Testing: %s\n", tc.ToolName)
		fmt.Printf("   Arguments: %s\n", tc.Args)

		start := time.Now()
		output, err := registry.Call(ctx, tc.ToolName, tc.Args)
		res := TestResult{
			ToolName: tc.ToolName,
			Args:     tc.Args,
			Result:   output,
			Duration: time.Since(start),
			Outcome:  classify(output, err),
		}
		if err != nil {
			res.Error = err.Error()
		}

		switch res.Outcome {
		case "ok":
			summary.OK++
			fmt.Printf("   ✅ OK (%v)\n", res.Duration)
		case "not_found":
			summary.NotFound++
			fmt.Printf("   ⚠️  Not monitored (%v)\n", res.Duration)
		default:
			summary.Failed++
			fmt.Printf("   ❌ Failed (%v)\n", res.Duration)
		}
		fmt.Printf("   Result: %s\n\n", preview(output, res.Error, 500))

		summary.Total++
		results = append(results, res)
	}

	summary.EndTime = time.Now()
	return results, summary
}

// classify определяет исход по тексту инструмента.
func classify(output string, err error) string {
	switch {
	case err != nil:
		return "error"
	case output == std.NotMonitoredMessage:
		return "not_found"
	case strings.HasPrefix(output, "Error occurred while retrieving"),
		strings.Contains(output, `{"Exception":`):
		return "error"
	default:
		return "ok"
	}
}

func preview(output, errText string, limit int) string {
	if errText != "" {
		return errText
	}
	runes := []rune(output)
	if len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return output
}

func printSummary(s TestSummary) {
	fmt.Println("═════════════════════════════════════════════════════════════")
	fmt.Println("                    SUMMARY")
	fmt.Println("═════════════════════════════════════════════════════════════")
	fmt.Printf("Total:      %d\n", s.Total)
	fmt.Printf("OK:         %d\n", s.OK)
	fmt.Printf("Not found:  %d\n", s.NotFound)
	fmt.Printf("Failed:     %d\n", s.Failed)
	fmt.Printf("Duration:   %v\n", s.EndTime.Sub(s.StartTime))
	fmt.Println("═════════════════════════════════════════════════════════════")
}

func saveResults(dir string, results []TestResult, summary TestSummary) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	filename := fmt.Sprintf("zabbix_tools_%s.json", time.Now().Format("20060102_150405"))
	data := map[string]any{
		"summary": summary,
		"results": results,
	}

	formatted, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, filename), formatted, 0o644)
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
