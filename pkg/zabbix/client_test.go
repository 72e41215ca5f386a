package zabbix_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/poncho-zabbix/pkg/config"
	"github.com/ilkoid/poncho-zabbix/pkg/zabbix"
	"github.com/ilkoid/poncho-zabbix/pkg/zabbix/zabbixtest"
)

func newClient(t *testing.T, url, mode string, opts ...zabbix.Option) *zabbix.Client {
	t.Helper()
	c, err := zabbix.New(config.ZabbixConfig{
		URL:      url,
		APIToken: "secret-token",
		AuthMode: mode,
	}, opts...)
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	t.Setenv("ZABBIX_API_URL", "")
	t.Setenv("ZABBIX_API_TOKEN", "")

	tests := []struct {
		name    string
		cfg     config.ZabbixConfig
		wantErr string
	}{
		{"missing url", config.ZabbixConfig{}, "zabbix.url is required"},
		{"bearer without token", config.ZabbixConfig{URL: "http://z", AuthMode: config.AuthBearer}, "token is not configured"},
		{"unknown mode", config.ZabbixConfig{URL: "http://z", AuthMode: "digest"}, "unknown zabbix.auth_mode"},
		{"bad timeout", config.ZabbixConfig{URL: "http://z", Timeout: "later"}, "invalid zabbix.timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := zabbix.New(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCall_BodyAuthEnvelope(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.Result(zabbix.MethodHostGet, []map[string]string{{"hostid": "10084", "host": "Server", "status": "0"}})

	c := newClient(t, srv.URL, config.AuthBody)
	assert.Equal(t, zabbix.AuthBody, c.AuthMode())

	hosts, err := c.GetHosts(context.Background())
	require.NoError(t, err)
	require.Len(t, hosts, 1)
	assert.Equal(t, zabbix.Host{HostID: "10084", Host: "Server", Status: "0"}, hosts[0])
	assert.True(t, hosts[0].Monitored())

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	r := reqs[0]
	assert.Equal(t, "2.0", r.JSONRPC)
	assert.Equal(t, "host.get", r.Method)
	assert.JSONEq(t, `1`, string(r.ID))
	require.NotNil(t, r.Auth)
	assert.Equal(t, "secret-token", *r.Auth)
	assert.Equal(t, "application/json-rpc", r.Header.Get("Content-Type"))
	assert.Empty(t, r.Header.Get("Authorization"))
	assert.JSONEq(t, `{"output":["host","status"]}`, string(r.Params))
}

func TestCall_BodyAuthEmptyTokenStillSendsAuthField(t *testing.T) {
	t.Setenv("ZABBIX_API_TOKEN", "")

	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.Result(zabbix.MethodProblemGet, []any{})

	c, err := zabbix.New(config.ZabbixConfig{URL: srv.URL})
	require.NoError(t, err)

	_, err = c.GetProblems(context.Background())
	require.NoError(t, err)

	r := srv.Requests()[0]
	_, present := r.Raw["auth"]
	assert.True(t, present)
}

func TestCall_BearerAuth(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.Result(zabbix.MethodProblemGet, []map[string]string{{"eventid": "1", "name": "High CPU utilization"}})

	c := newClient(t, srv.URL, config.AuthBearer)
	problems, err := c.GetProblems(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []zabbix.Problem{{EventID: "1", Name: "High CPU utilization"}}, problems)

	r := srv.Requests()[0]
	assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
	assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
	_, present := r.Raw["auth"]
	assert.False(t, present, "bearer mode must not put auth into the body")
}

func TestCall_EmptyResultIsNotAnError(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.Result(zabbix.MethodHostGet, []any{})

	hosts, err := newClient(t, srv.URL, config.AuthBody).GetHosts(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, hosts)
	assert.Empty(t, hosts)
}

func TestCall_TransportErrors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(srv *zabbixtest.Server)
		wantType zabbix.ErrorType
		wantText string
	}{
		{
			name: "rpc error",
			setup: func(srv *zabbixtest.Server) {
				srv.RPCError(zabbix.MethodHostGet, -32602, "Invalid params.", "Incorrect method \"host.get\".")
			},
			wantType: zabbix.ErrRPC,
			wantText: "Invalid params.",
		},
		{
			name: "not authorised",
			setup: func(srv *zabbixtest.Server) {
				srv.RPCError(zabbix.MethodHostGet, -32602, "Invalid params.", "Not authorised.")
			},
			wantType: zabbix.ErrAuthFailed,
			wantText: "Not authorised.",
		},
		{
			name: "missing result",
			setup: func(srv *zabbixtest.Server) {
				srv.RawBody(zabbix.MethodHostGet, `{"jsonrpc":"2.0","id":1}`)
			},
			wantType: zabbix.ErrBadResponse,
			wantText: "'result'",
		},
		{
			name: "non json body",
			setup: func(srv *zabbixtest.Server) {
				srv.RawBody(zabbix.MethodHostGet, `<html>502 Bad Gateway</html>`)
			},
			wantType: zabbix.ErrBadResponse,
			wantText: "invalid character",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := zabbixtest.NewServer()
			defer srv.Close()
			tt.setup(srv)

			_, err := newClient(t, srv.URL, config.AuthBody).GetHosts(context.Background())
			require.Error(t, err)

			var te *zabbix.TransportError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, zabbix.MethodHostGet, te.Method)
			assert.Equal(t, tt.wantType, te.Type, te.Type.String())
			assert.Contains(t, err.Error(), tt.wantText)
			assert.NotEmpty(t, te.Type.HumanMessage())
		})
	}
}

func TestCall_HTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("unauthorized"))
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL, config.AuthBearer).GetHosts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Equal(t, zabbix.ErrAuthFailed, zabbix.ClassifyError(err))
}

func TestCall_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = newClient(t, "http://"+addr, config.AuthBody).GetHosts(context.Background())
	require.Error(t, err)
	assert.Equal(t, zabbix.ErrNetwork, zabbix.ClassifyError(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCall_ContextCanceled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newClient(t, srv.URL, config.AuthBody).GetHosts(ctx)
	require.Error(t, err)
	assert.Equal(t, zabbix.ErrTimeout, zabbix.ClassifyError(err))
}

func TestGetItems_Params(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.Result(zabbix.MethodItemGet, []map[string]string{
		{"itemid": "23296", "name": "CPU utilization", "lastvalue": "3.5", "units": "%"},
	})

	c := newClient(t, srv.URL, config.AuthBody)
	items, err := c.GetItems(context.Background(), zabbix.ItemQuery{
		Host:       "Server",
		NameSearch: "CPU",
		Output:     zabbix.ItemValueOutput,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "3.5", items[0].LastValue)

	assert.JSONEq(t,
		`{"host":"Server","search":{"name":"CPU"},"output":["name","lastvalue","units"]}`,
		string(srv.Requests()[0].Params))
}

func TestGetItems_NoHostFilter(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.Result(zabbix.MethodItemGet, []any{})

	_, err := newClient(t, srv.URL, config.AuthBody).GetItems(context.Background(), zabbix.ItemQuery{Output: zabbix.ItemListOutput})
	require.NoError(t, err)
	assert.JSONEq(t, `{"output":["name","description"]}`, string(srv.Requests()[0].Params))
}

func TestRecentHistory_UsesWindowAndDecision(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.Result(zabbix.MethodHistoryGet, []map[string]string{
		{"clock": "1700000000", "value": "42"},
	})

	now := time.Unix(1700003600, 0)
	c := newClient(t, srv.URL, config.AuthBody, zabbix.WithClock(func() time.Time { return now }))

	points, decision, err := c.RecentHistory(context.Background(),
		zabbix.Item{ItemID: "23296", LastValue: "42", Type: "0"}, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []zabbix.HistoryPoint{{Clock: 1700000000, Value: "42"}}, points)
	assert.True(t, decision.Overridden)
	assert.Equal(t, zabbix.HistoryInteger, decision.Type)

	assert.JSONEq(t,
		`{"itemids":"23296","history":3,"time_from":1700000000,"output":["clock","value"]}`,
		string(srv.Requests()[0].Params))
}

func TestHistoryPoint_NumericFields(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.RawBody(zabbix.MethodHistoryGet, `{"jsonrpc":"2.0","result":[{"clock":1700000000,"value":0.25}],"id":1}`)

	points, err := newClient(t, srv.URL, config.AuthBody).GetHistory(context.Background(), zabbix.HistoryQuery{ItemID: "1"})
	require.NoError(t, err)
	assert.Equal(t, []zabbix.HistoryPoint{{Clock: 1700000000, Value: "0.25"}}, points)
}

func TestRateLimitedClientStillServes(t *testing.T) {
	srv := zabbixtest.NewServer()
	defer srv.Close()
	srv.Result(zabbix.MethodHostGet, []any{})

	c, err := zabbix.New(config.ZabbixConfig{URL: srv.URL, RateLimit: 6000, BurstLimit: 2})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := c.GetHosts(context.Background())
		require.NoError(t, err)
	}
	assert.Len(t, srv.Requests(), 3)
}
