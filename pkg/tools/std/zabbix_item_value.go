package std

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ilkoid/poncho-zabbix/pkg/tools"
	"github.com/ilkoid/poncho-zabbix/pkg/zabbix"
)

// ItemValueOp — тексты zabbix_item_value.
var ItemValueOp = Operation{
	Tool:        "zabbix_item_value",
	LeadIn:      "Here is the requested item value: ",
	ErrorPrefix: "Error occurred while retrieving the item value: ",
	StatusOK:    "Processing item value response.",
	StatusError: "Error retrieving item value.",
}

// GetItemValue возвращает текущее значение метрики хоста.
//
// Ищет items по точному имени хоста и подстроке имени; возвращает весь
// найденный список, а не только первое совпадение.
func (s *Toolset) GetItemValue(ctx context.Context, host, item string) string {
	items, err := s.client.GetItems(ctx, zabbix.ItemQuery{
		Host:       host,
		NameSearch: item,
		Output:     zabbix.ItemValueOutput,
	})
	if err != nil {
		return s.finish(ctx, ItemValueOp, failed(err))
	}
	if len(items) == 0 {
		return s.finish(ctx, ItemValueOp, notFound())
	}
	return s.finish(ctx, ItemValueOp, ok(items))
}

// hostItemArgs — аргументы инструментов, работающих с метрикой хоста.
type hostItemArgs struct {
	HostName string `json:"host_name"`
	ItemName string `json:"item_name"`
}

func parseHostItemArgs(argsJSON string) (hostItemArgs, error) {
	var args hostItemArgs
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return args, fmt.Errorf("invalid arguments: %w", err)
	}
	host, item, err := ValidateHostItem(args.HostName, args.ItemName)
	return hostItemArgs{HostName: host, ItemName: item}, err
}

// ValidateHostItem обрезает пробелы и требует оба имени.
//
// item.get без host вернул бы метрики всех хостов, поэтому пустые имена
// отклоняются до запроса к Zabbix.
func ValidateHostItem(host, item string) (string, string, error) {
	host = strings.TrimSpace(host)
	item = strings.TrimSpace(item)
	if host == "" {
		return host, item, fmt.Errorf("host_name is required")
	}
	if item == "" {
		return host, item, fmt.Errorf("item_name is required")
	}
	return host, item, nil
}

func hostItemSchema() tools.JSONSchema {
	return tools.ObjectSchema(map[string]any{
		"host_name": tools.StringProperty("Name of the host. Must be a value from the retrieved host list."),
		"item_name": tools.StringProperty("Name of the item. Must be a value from the retrieved item list."),
	}, "host_name", "item_name")
}

// ItemValueTool — инструмент zabbix_item_value.
type ItemValueTool struct {
	set *Toolset
}

// NewItemValueTool создаёт инструмент.
func NewItemValueTool(set *Toolset) *ItemValueTool {
	return &ItemValueTool{set: set}
}

func (t *ItemValueTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name: ItemValueOp.Tool,
		Description: t.set.description(ItemValueOp.Tool,
			"Retrieve the current value of an item for a selected host. Retrieve the host and item lists first. "+
				"Returns item ids, names, last values and units."),
		Parameters: hostItemSchema(),
	}
}

func (t *ItemValueTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	args, err := parseHostItemArgs(argsJSON)
	if err != nil {
		return "", err
	}
	return t.set.GetItemValue(ctx, args.HostName, args.ItemName), nil
}
