package std

import (
	"context"
	"time"

	"github.com/ilkoid/poncho-zabbix/pkg/tools"
	"github.com/ilkoid/poncho-zabbix/pkg/utils"
	"github.com/ilkoid/poncho-zabbix/pkg/zabbix"
)

// HistoryTimeLayout — формат времени точки истории ("05. March 2024, 14:07").
const HistoryTimeLayout = "02. January 2006, 15:04"

// ItemHistoryOp — тексты zabbix_item_history.
var ItemHistoryOp = Operation{
	Tool:        "zabbix_item_history",
	LeadIn:      "Here is the requested item history: ",
	ErrorPrefix: "Error occurred while retrieving the item history: ",
	StatusOK:    "Processing item history response.",
	StatusError: "Error retrieving item history.",
}

// HistoryEntry — точка истории в том виде, в каком её видит LLM.
type HistoryEntry struct {
	Clock string `json:"clock"`
	Value string `json:"value"`
}

// GetItemHistory возвращает значения метрики за последнее окно (по умолчанию час).
//
// Два запроса: item.get находит метрику, history.get забирает историю первого
// совпадения с типом из zabbix.DecideHistoryType. Пустая история даёт тот же
// NotMonitoredMessage, что и ненайденный item.
func (s *Toolset) GetItemHistory(ctx context.Context, host, item string) string {
	items, err := s.client.GetItems(ctx, zabbix.ItemQuery{
		Host:       host,
		NameSearch: item,
		Output:     zabbix.ItemHistoryOutput,
	})
	if err != nil {
		return s.finish(ctx, ItemHistoryOp, failed(err))
	}
	if len(items) == 0 {
		return s.finish(ctx, ItemHistoryOp, notFound())
	}

	points, decision, err := s.client.RecentHistory(ctx, items[0], s.opts.HistoryWindow)
	if decision.Overridden {
		utils.Debug("History type guessed from last value",
			"item_id", items[0].ItemID,
			"reported_type", decision.Reported,
			"history", decision.Type.String())
	}
	if err != nil {
		return s.finish(ctx, ItemHistoryOp, failed(err))
	}
	if len(points) == 0 {
		return s.finish(ctx, ItemHistoryOp, notFound())
	}

	entries := make([]HistoryEntry, len(points))
	for i, p := range points {
		entries[i] = HistoryEntry{
			Clock: FormatClock(p.Clock, s.opts.Location),
			Value: p.Value,
		}
	}
	return s.finish(ctx, ItemHistoryOp, ok(entries))
}

// FormatClock переводит Unix секунды в HistoryTimeLayout в часовом поясе loc.
func FormatClock(clock int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(clock, 0).In(loc).Format(HistoryTimeLayout)
}

// ItemHistoryTool — инструмент zabbix_item_history.
type ItemHistoryTool struct {
	set *Toolset
}

// NewItemHistoryTool создаёт инструмент.
func NewItemHistoryTool(set *Toolset) *ItemHistoryTool {
	return &ItemHistoryTool{set: set}
}

func (t *ItemHistoryTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name: ItemHistoryOp.Tool,
		Description: t.set.description(ItemHistoryOp.Tool,
			"Retrieve the history of item values for a selected host over the last hour. Retrieve the host and item lists first. "+
				"Use it for questions about past events. Returns times and values."),
		Parameters: hostItemSchema(),
	}
}

func (t *ItemHistoryTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	args, err := parseHostItemArgs(argsJSON)
	if err != nil {
		return "", err
	}
	return t.set.GetItemHistory(ctx, args.HostName, args.ItemName), nil
}
