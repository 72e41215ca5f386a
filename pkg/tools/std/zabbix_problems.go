package std

import (
	"context"

	"github.com/ilkoid/poncho-zabbix/pkg/tools"
)

// ProblemListOp — тексты zabbix_problem_list.
var ProblemListOp = Operation{
	Tool:        "zabbix_problem_list",
	LeadIn:      "Here is the requested list of problems: ",
	ErrorPrefix: "Error occurred while retrieving the list of problems: ",
	StatusOK:    "Processing problem list response.",
	StatusError: "Error retrieving problem list.",
}

// ListProblems возвращает текущие проблемы.
func (s *Toolset) ListProblems(ctx context.Context) string {
	problems, err := s.client.GetProblems(ctx)
	if err != nil {
		return s.finish(ctx, ProblemListOp, failed(err))
	}
	return s.finish(ctx, ProblemListOp, ok(problems))
}

// ProblemListTool — инструмент zabbix_problem_list.
type ProblemListTool struct {
	set *Toolset
}

// NewProblemListTool создаёт инструмент.
func NewProblemListTool(set *Toolset) *ProblemListTool {
	return &ProblemListTool{set: set}
}

func (t *ProblemListTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name: ProblemListOp.Tool,
		Description: t.set.description(ProblemListOp.Tool,
			"Retrieve the list of current problems detected by Zabbix. A problem is a potential issue, "+
				"such as high CPU utilization or an unavailable SSH service. Returns problem names."),
		Parameters: tools.ObjectSchema(nil),
	}
}

func (t *ProblemListTool) Execute(ctx context.Context, _ string) (string, error) {
	return t.set.ListProblems(ctx), nil
}
