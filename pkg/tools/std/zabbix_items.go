package std

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ilkoid/poncho-zabbix/pkg/tools"
	"github.com/ilkoid/poncho-zabbix/pkg/zabbix"
)

// ItemListOp — тексты zabbix_item_list.
var ItemListOp = Operation{
	Tool:        "zabbix_item_list",
	LeadIn:      "Here is the requested list of items: ",
	ErrorPrefix: "Error occurred while retrieving the list of items: ",
	StatusOK:    "Processing item list response.",
	StatusError: "Error retrieving item list.",
}

// ListItems возвращает items хоста (itemid, name, description).
//
// Пустой host заменяется на DefaultItemHost; если и он пуст, фильтра по хосту нет.
func (s *Toolset) ListItems(ctx context.Context, host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		host = s.opts.DefaultItemHost
	}

	items, err := s.client.GetItems(ctx, zabbix.ItemQuery{
		Host:   host,
		Output: zabbix.ItemListOutput,
	})
	if err != nil {
		return s.finish(ctx, ItemListOp, failed(err))
	}
	return s.finish(ctx, ItemListOp, ok(items))
}

// ItemListTool — инструмент zabbix_item_list.
type ItemListTool struct {
	set *Toolset
}

// NewItemListTool создаёт инструмент.
func NewItemListTool(set *Toolset) *ItemListTool {
	return &ItemListTool{set: set}
}

func (t *ItemListTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name: ItemListOp.Tool,
		Description: t.set.description(ItemListOp.Tool,
			"Retrieve the list of items monitored by Zabbix, optionally for one host. An item is a metric, such as CPU utilization or OS version. "+
				"Returns item ids, names and descriptions."),
		Parameters: tools.ObjectSchema(map[string]any{
			"host_name": tools.StringProperty("Name of the host from the host list. Optional."),
		}),
	}
}

func (t *ItemListTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var args struct {
		HostName string `json:"host_name"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	return t.set.ListItems(ctx, args.HostName), nil
}
