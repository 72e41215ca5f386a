package std

import (
	"context"

	"github.com/ilkoid/poncho-zabbix/pkg/tools"
)

// HostListOp — тексты zabbix_host_list.
var HostListOp = Operation{
	Tool:        "zabbix_host_list",
	LeadIn:      "Here is the requested list of hosts: ",
	ErrorPrefix: "Error occurred while retrieving the list of hosts: ",
	StatusOK:    "Processing host list response.",
	StatusError: "Error retrieving host list.",
}

// ListHosts возвращает список хостов (hostid, host, status).
func (s *Toolset) ListHosts(ctx context.Context) string {
	hosts, err := s.client.GetHosts(ctx)
	if err != nil {
		return s.finish(ctx, HostListOp, failed(err))
	}
	return s.finish(ctx, HostListOp, ok(hosts))
}

// HostListTool — инструмент zabbix_host_list.
type HostListTool struct {
	set *Toolset
}

// NewHostListTool создаёт инструмент.
func NewHostListTool(set *Toolset) *HostListTool {
	return &HostListTool{set: set}
}

func (t *HostListTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name: HostListOp.Tool,
		Description: t.set.description(HostListOp.Tool,
			"Retrieve the list of hosts monitored by Zabbix. A host is a device, such as a desktop or a virtual machine. "+
				"Use it as a starting point for further exploration. Returns host ids, names and statuses (0 = monitored, 1 = unmonitored)."),
		Parameters: tools.ObjectSchema(nil),
	}
}

func (t *HostListTool) Execute(ctx context.Context, _ string) (string, error) {
	return t.set.ListHosts(ctx), nil
}
