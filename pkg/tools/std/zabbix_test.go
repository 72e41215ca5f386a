package std_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/poncho-zabbix/pkg/config"
	"github.com/ilkoid/poncho-zabbix/pkg/events"
	"github.com/ilkoid/poncho-zabbix/pkg/tools"
	"github.com/ilkoid/poncho-zabbix/pkg/tools/std"
	"github.com/ilkoid/poncho-zabbix/pkg/zabbix"
	"github.com/ilkoid/poncho-zabbix/pkg/zabbix/zabbixtest"
)

// 2024-03-05 15:07:00 UTC
var fixedNow = time.Date(2024, 3, 5, 15, 7, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Emit(_ context.Context, e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) statuses() []events.StatusData {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.StatusData
	for _, e := range r.events {
		if d, ok := e.Data.(events.StatusData); ok && e.Type == events.EventStatus {
			out = append(out, d)
		}
	}
	return out
}

func newToolset(t *testing.T, url string, opts ...std.Option) *std.Toolset {
	t.Helper()
	c, err := zabbix.New(config.ZabbixConfig{URL: url, APIToken: "tok"},
		zabbix.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	opts = append([]std.Option{std.WithLocation(time.UTC)}, opts...)
	return std.NewToolset(c, opts...)
}

func TestListHosts_LeadIn(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.Result(zabbix.MethodHostGet, []map[string]string{{"host": "Server", "status": "0"}})

	set := newToolset(t, srv.URL)
	got := set.ListHosts(context.Background())

	assert.Equal(t, `Here is the requested list of hosts: [{"host":"Server","status":"0"}]`, got)

	reqs := srv.RequestsFor(zabbix.MethodHostGet)
	require.Len(t, reqs, 1)
	assert.Equal(t, []any{"host", "status"}, reqs[0].ParamsMap()["output"])
}

func TestLeadIns(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.Result(zabbix.MethodHostGet, []map[string]string{})
	srv.Result(zabbix.MethodProblemGet, []map[string]string{{"eventid": "7", "name": "High CPU utilization"}})
	srv.Result(zabbix.MethodItemGet, []map[string]string{{"itemid": "1", "name": "CPU utilization", "lastvalue": "3.5", "type": "0"}})
	srv.Result(zabbix.MethodHistoryGet, []map[string]string{{"clock": "1709647620", "value": "3.5"}})

	set := newToolset(t, srv.URL)
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func() string
		prefix string
	}{
		{"hosts", func() string { return set.ListHosts(ctx) }, "Here is the requested list of hosts: "},
		{"items", func() string { return set.ListItems(ctx, "Server") }, "Here is the requested list of items: "},
		{"problems", func() string { return set.ListProblems(ctx) }, "Here is the requested list of problems: "},
		{"value", func() string { return set.GetItemValue(ctx, "Server", "CPU") }, "Here is the requested item value: "},
		{"history", func() string { return set.GetItemHistory(ctx, "Server", "CPU") }, "Here is the requested item history: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, strings.HasPrefix(tt.call(), tt.prefix))
		})
	}

	assert.Equal(t, "Here is the requested list of hosts: []", set.ListHosts(ctx))
	assert.Equal(t, `Here is the requested list of problems: [{"eventid":"7","name":"High CPU utilization"}]`, set.ListProblems(ctx))
}

func TestNotMonitored_SameForValueAndHistory(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.Result(zabbix.MethodItemGet, []any{})

	set := newToolset(t, srv.URL)
	ctx := context.Background()

	value := set.GetItemValue(ctx, "Server", "Nope")
	history := set.GetItemHistory(ctx, "Server", "Nope")

	assert.Equal(t, std.NotMonitoredMessage, value)
	assert.Equal(t, value, history)
	assert.Empty(t, srv.RequestsFor(zabbix.MethodHistoryGet))
}

func TestItemHistory_EmptyHistoryIsNotMonitored(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.Result(zabbix.MethodItemGet, []map[string]string{{"itemid": "1", "name": "Load", "lastvalue": "0.5", "type": "0"}})
	srv.Result(zabbix.MethodHistoryGet, []any{})

	set := newToolset(t, srv.URL)
	assert.Equal(t, std.NotMonitoredMessage, set.GetItemHistory(context.Background(), "Server", "Load"))
}

func TestItemHistory_DigitsForceIntegerHistory(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.Result(zabbix.MethodItemGet, []map[string]string{
		{"itemid": "23", "name": "Free memory", "lastvalue": "42", "type": "0", "units": "B"},
		{"itemid": "24", "name": "Free memory %", "lastvalue": "7.1", "type": "0"},
	})
	srv.Result(zabbix.MethodHistoryGet, []map[string]string{
		{"clock": "1709647620", "value": "42"},
		{"clock": "1709647680", "value": "43"},
	})

	set := newToolset(t, srv.URL)
	got := set.GetItemHistory(context.Background(), "Server", "Free memory")

	assert.Equal(t,
		`Here is the requested item history: [{"clock":"05. March 2024, 14:07","value":"42"},{"clock":"05. March 2024, 14:08","value":"43"}]`,
		got)

	reqs := srv.RequestsFor(zabbix.MethodHistoryGet)
	require.Len(t, reqs, 1)
	params := reqs[0].ParamsMap()
	assert.Equal(t, float64(3), params["history"])
	assert.Equal(t, "23", params["itemids"])
	assert.Equal(t, float64(fixedNow.Add(-time.Hour).Unix()), params["time_from"])
	assert.Equal(t, []any{"clock", "value"}, params["output"])

	items := srv.RequestsFor(zabbix.MethodItemGet)
	require.Len(t, items, 1)
	assert.Equal(t, "Server", items[0].ParamsMap()["host"])
	assert.Equal(t, map[string]any{"name": "Free memory"}, items[0].ParamsMap()["search"])
}

func TestItemHistory_UsesReportedTypeAndWindow(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.Result(zabbix.MethodItemGet, []map[string]string{{"itemid": "5", "name": "OS", "lastvalue": "Linux 6.1", "type": "4"}})
	srv.Result(zabbix.MethodHistoryGet, []map[string]string{{"clock": "1709647620", "value": "Linux 6.1"}})

	set := newToolset(t, srv.URL, std.WithHistoryWindow(30*time.Minute))
	set.GetItemHistory(context.Background(), "Server", "OS")

	params := srv.RequestsFor(zabbix.MethodHistoryGet)[0].ParamsMap()
	assert.Equal(t, float64(4), params["history"])
	assert.Equal(t, float64(fixedNow.Add(-30*time.Minute).Unix()), params["time_from"])
}

func TestConnectionRefused(t *testing.T) {
	dead := httptest.NewServer(nil)
	url := dead.URL
	dead.Close()

	set := newToolset(t, url)
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func() string
		prefix string
	}{
		{"hosts", func() string { return set.ListHosts(ctx) }, "Error occurred while retrieving the list of hosts: "},
		{"items", func() string { return set.ListItems(ctx, "") }, "Error occurred while retrieving the list of items: "},
		{"problems", func() string { return set.ListProblems(ctx) }, "Error occurred while retrieving the list of problems: "},
		{"value", func() string { return set.GetItemValue(ctx, "Server", "CPU") }, "Error occurred while retrieving the item value: "},
		{"history", func() string { return set.GetItemHistory(ctx, "Server", "CPU") }, "Error occurred while retrieving the item history: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.call()
			require.True(t, strings.HasPrefix(got, tt.prefix), got)
			assert.NotEmpty(t, strings.TrimPrefix(got, tt.prefix))
		})
	}
}

func TestRPCErrorText(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.RPCError(zabbix.MethodHostGet, -32602, "Invalid params.", "Not authorized.")

	set := newToolset(t, srv.URL)
	got := set.ListHosts(context.Background())

	assert.Equal(t, "Error occurred while retrieving the list of hosts: zabbix api error -32602: Invalid params. Not authorized.", got)
}

func TestIdempotent(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.Result(zabbix.MethodItemGet, []map[string]string{{"itemid": "1", "name": "CPU load", "lastvalue": "0.42", "units": ""}})

	set := newToolset(t, srv.URL)
	ctx := context.Background()
	assert.Equal(t, set.GetItemValue(ctx, "Server", "CPU"), set.GetItemValue(ctx, "Server", "CPU"))
}

func TestStatus_EmittedOnce(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.Result(zabbix.MethodItemGet, []map[string]string{{"itemid": "1", "name": "CPU", "lastvalue": "12", "type": "3"}})
	srv.Result(zabbix.MethodHistoryGet, []map[string]string{{"clock": "1709647620", "value": "12"}})

	rec := &recorder{}
	set := newToolset(t, srv.URL, std.WithEmitter(rec))

	set.GetItemHistory(context.Background(), "Server", "CPU")

	got := rec.statuses()
	require.Len(t, got, 1)
	assert.Equal(t, events.StatusData{Description: "Processing item history response.", Done: true}, got[0])
}

func TestStatus_ContextEmitterWinsAndReportsError(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.RPCError(zabbix.MethodProblemGet, -32500, "Application error.", "")

	fallback := &recorder{}
	perCall := &recorder{}
	set := newToolset(t, srv.URL, std.WithEmitter(fallback))

	ctx := events.WithEmitter(context.Background(), perCall)
	set.ListProblems(ctx)

	assert.Empty(t, fallback.statuses())
	require.Len(t, perCall.statuses(), 1)
	assert.Equal(t, "Error retrieving problem list.", perCall.statuses()[0].Description)
}

func TestListItems_DefaultHost(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.Result(zabbix.MethodItemGet, []any{})

	set := newToolset(t, srv.URL, std.WithDefaultItemHost("Zabbix server"))
	set.ListItems(context.Background(), "")
	set.ListItems(context.Background(), "Web")

	reqs := srv.RequestsFor(zabbix.MethodItemGet)
	require.Len(t, reqs, 2)
	assert.Equal(t, "Zabbix server", reqs[0].ParamsMap()["host"])
	assert.Equal(t, "Web", reqs[1].ParamsMap()["host"])
	assert.Equal(t, []any{"name", "description"}, reqs[1].ParamsMap()["output"])
}

func TestListItems_NoHostFilter(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.Result(zabbix.MethodItemGet, []any{})

	set := newToolset(t, srv.URL)
	set.ListItems(context.Background(), "  ")

	_, hasHost := srv.RequestsFor(zabbix.MethodItemGet)[0].ParamsMap()["host"]
	assert.False(t, hasHost)
}

func TestDescribePresenter(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.Result(zabbix.MethodHostGet, []map[string]string{{"host": "Server", "status": "0"}})
	srv.RPCError(zabbix.MethodProblemGet, -32602, "Invalid params.", "")
	srv.Result(zabbix.MethodItemGet, []any{})

	rec := &recorder{}
	set := newToolset(t, srv.URL,
		std.WithPresenter(std.DescribePresenter{MaxLength: 4096}),
		std.WithEmitter(rec))
	ctx := context.Background()

	assert.Equal(t, std.DescribePrefix+`[{"host":"Server","status":"0"}]`, set.ListHosts(ctx))
	assert.Equal(t, std.DescribePrefix+`{"Exception":"zabbix api error -32602: Invalid params."}`, set.ListProblems(ctx))
	assert.Equal(t, std.NotMonitoredMessage, set.GetItemValue(ctx, "Server", "CPU"))

	// JSON-RPC error считается ошибкой вызова, а не обычным ответом.
	statuses := rec.statuses()
	require.Len(t, statuses, 3)
	assert.Equal(t, "Error retrieving problem list.", statuses[1].Description)
}

func TestDescribePresenter_Truncates(t *testing.T) {
	p := std.DescribePresenter{MaxLength: 20}
	got := p.Present(std.HostListOp, std.Result{Outcome: std.OutcomeOK, Payload: []string{"ааааааааааааааааааа"}})

	assert.Equal(t, 20, len([]rune(got)))
	assert.True(t, strings.HasPrefix(std.DescribePrefix, got))
}

func TestNewPresenter(t *testing.T) {
	assert.Equal(t, std.LeadInPresenter{}, std.NewPresenter(config.PresentationLeadIn, 10))
	assert.Equal(t, std.DescribePresenter{MaxLength: 10}, std.NewPresenter(config.PresentationDescribe, 10))
}

func TestFormatClock(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	assert.Equal(t, "05. March 2024, 14:07", std.FormatClock(1709647620, time.UTC))
	assert.Equal(t, "05. March 2024, 15:07", std.FormatClock(1709647620, berlin))
}

func TestExecute_ArgumentValidation(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.Result(zabbix.MethodItemGet, []any{})

	set := newToolset(t, srv.URL)
	ctx := context.Background()

	tests := []struct {
		name    string
		tool    tools.Tool
		args    string
		wantErr string
	}{
		{"value no host", std.NewItemValueTool(set), `{"item_name":"CPU"}`, "host_name is required"},
		{"history no item", std.NewItemHistoryTool(set), `{"host_name":"Server","item_name":" "}`, "item_name is required"},
		{"items bad json", std.NewItemListTool(set), `{`, "invalid arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.tool.Execute(ctx, tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
	assert.Empty(t, srv.Requests())

	out, err := std.NewItemValueTool(set).Execute(ctx, `{"host_name":"Server","item_name":"CPU"}`)
	require.NoError(t, err)
	assert.Equal(t, std.NotMonitoredMessage, out)
}

func TestSetupZabbixTools(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	set := newToolset(t, srv.URL, std.WithDescription("zabbix_problem_list", "Custom problems"))

	t.Run("all enabled by default", func(t *testing.T) {
		reg := tools.NewRegistry()
		require.NoError(t, std.SetupZabbixTools(reg, set, &config.AppConfig{}))
		assert.Equal(t, []string{
			"zabbix_host_list",
			"zabbix_item_history",
			"zabbix_item_list",
			"zabbix_item_value",
			"zabbix_problem_list",
		}, reg.Names())

		tool, err := reg.Get("zabbix_problem_list")
		require.NoError(t, err)
		assert.Equal(t, "Custom problems", tool.Definition().Description)
	})

	t.Run("config selects tools", func(t *testing.T) {
		reg := tools.NewRegistry()
		cfg := &config.AppConfig{Tools: map[string]config.ToolConfig{
			"zabbix_host_list":  {Enabled: true},
			"zabbix_item_value": {Enabled: false},
		}}
		require.NoError(t, std.SetupZabbixTools(reg, set, cfg))
		assert.Equal(t, []string{"zabbix_host_list"}, reg.Names())
	})
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.AppConfig{
		Zabbix: config.ZabbixConfig{URL: "http://z", HistoryWindow: "bogus"},
	}
	_, err := std.OptionsFromConfig(cfg)
	require.Error(t, err)

	cfg.Zabbix.HistoryWindow = "2h"
	cfg.Zabbix.Timezone = "UTC"
	cfg.App.Presentation = config.PresentationDescribe
	opts, err := std.OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, opts)
}

func TestValidateHostItem(t *testing.T) {
	host, item, err := std.ValidateHostItem(" Server ", "\tCPU load ")
	require.NoError(t, err)
	assert.Equal(t, "Server", host)
	assert.Equal(t, "CPU load", item)

	_, _, err = std.ValidateHostItem("", "CPU load")
	assert.EqualError(t, err, "host_name is required")

	_, _, err = std.ValidateHostItem("Server", " ")
	assert.EqualError(t, err, "item_name is required")
}

func TestToolset_ConcurrentCalls(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.Result(zabbix.MethodHostGet, []map[string]string{{"host": "Server", "status": "0"}})
	srv.Result(zabbix.MethodItemGet, []map[string]string{{"itemid": "1", "name": "Uptime", "lastvalue": "42", "type": "0"}})
	srv.Result(zabbix.MethodHistoryGet, []map[string]string{{"clock": "1709647620", "value": "42"}})

	rec := &recorder{}
	set := newToolset(t, srv.URL, std.WithEmitter(rec))

	wantHistory := set.GetItemHistory(context.Background(), "Server", "Uptime")
	wantHosts := set.ListHosts(context.Background())

	const workers = 32
	histories := make([]string, workers)
	hosts := make([]string, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			histories[i] = set.GetItemHistory(context.Background(), "Server", "Uptime")
			hosts[i] = set.ListHosts(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		assert.Equal(t, wantHistory, histories[i])
		assert.Equal(t, wantHosts, hosts[i])
	}
	assert.Len(t, rec.statuses(), 2*workers+2)
	assert.Len(t, srv.RequestsFor(zabbix.MethodHistoryGet), workers+1)
}
