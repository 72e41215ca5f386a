package zabbix

import (
	"context"
	"time"
)

// Проекции полей для каждого запроса.
var (
	HostListOutput    = []string{"host", "status"}
	ItemListOutput    = []string{"name", "description"}
	ItemValueOutput   = []string{"name", "lastvalue", "units"}
	ItemHistoryOutput = []string{"name", "type", "lastvalue", "units"}
	ProblemOutput     = []string{"name"}
	HistoryOutput     = []string{"clock", "value"}
)

// GetHosts — host.get с проекцией host, status.
func (c *Client) GetHosts(ctx context.Context) ([]Host, error) {
	var hosts []Host
	err := c.Call(ctx, MethodHostGet, map[string]any{
		"output": HostListOutput,
	}, &hosts)
	if err != nil {
		return nil, err
	}
	return nonNil(hosts), nil
}

// GetItems — item.get по запросу q.
func (c *Client) GetItems(ctx context.Context, q ItemQuery) ([]Item, error) {
	var items []Item
	if err := c.Call(ctx, MethodItemGet, q.params(), &items); err != nil {
		return nil, err
	}
	return nonNil(items), nil
}

// GetProblems — problem.get с проекцией name.
func (c *Client) GetProblems(ctx context.Context) ([]Problem, error) {
	var problems []Problem
	err := c.Call(ctx, MethodProblemGet, map[string]any{
		"output": ProblemOutput,
	}, &problems)
	if err != nil {
		return nil, err
	}
	return nonNil(problems), nil
}

// GetHistory — history.get по запросу q.
func (c *Client) GetHistory(ctx context.Context, q HistoryQuery) ([]HistoryPoint, error) {
	var points []HistoryPoint
	if err := c.Call(ctx, MethodHistoryGet, q.params(), &points); err != nil {
		return nil, err
	}
	return nonNil(points), nil
}

// RecentHistory запрашивает историю item за окно window до текущего момента.
//
// Тип истории выбирается через DecideHistoryType. Возвращает решение вместе
// с точками, чтобы вызывающий видел, был ли тип угадан.
func (c *Client) RecentHistory(ctx context.Context, item Item, window time.Duration) ([]HistoryPoint, HistoryDecision, error) {
	decision := DecideHistoryType(item)

	points, err := c.GetHistory(ctx, HistoryQuery{
		ItemID:   item.ItemID,
		History:  decision.Type,
		TimeFrom: c.now().Add(-window).Unix(),
		Output:   HistoryOutput,
	})
	return points, decision, err
}

// nonNil заменяет nil на пустой срез, чтобы пустой result рендерился как [].
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
