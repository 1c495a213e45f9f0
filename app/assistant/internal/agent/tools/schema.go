package tools

import "github.com/cloudwego/eino/schema"

const (
	ToolGetTrend     = "get_trend"
	ToolGetProjects  = "get_projects_for_trend"
	ToolCreateBundle = "create_bundle_for_project"
)

func BuildToolInfos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: ToolGetTrend,
			Desc: "Identifies a craft trend from the user's message based on keywords. Returns the trend name, or a note that no trend was identified.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     schema.String,
					Desc:     "The user's message to scan for trend keywords",
					Required: true,
				},
			}),
		},
		{
			Name: ToolGetProjects,
			Desc: "Finds all DIY projects associated with a given trend and returns their names.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"trend_name": {
					Type:     schema.String,
					Desc:     "The trend name, as returned by get_trend",
					Required: true,
				},
			}),
		},
		{
			Name: ToolCreateBundle,
			Desc: "Creates a product bundle for a given project, selecting products by category, guaranteeing at least one low-velocity item where possible, and refining the project steps around the chosen products.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"project_name": {
					Type:     schema.String,
					Desc:     "Exact project name selected by the user",
					Required: true,
				},
			}),
		},
	}
}
