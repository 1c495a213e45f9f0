package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"CraftMateAI/app/assistant/internal/agent/bundle"
	"CraftMateAI/app/assistant/internal/agent/catalog"
	"CraftMateAI/app/common/snowflake"

	"github.com/cloudwego/eino/schema"
	"github.com/zeromicro/go-zero/core/logx"
)

type trendResult struct {
	Trend string `json:"trend"`
}

type projectsResult struct {
	Projects []string `json:"projects"`
}

type errorResult struct {
	Error string `json:"error"`
}

// Executor runs the assistant's three capabilities against the catalog and
// renders each result as a JSON tool message. Business outcomes (unknown
// project, empty category, no trend) are data in the payload; only
// infrastructure failures such as a model error during bundle enrichment
// are returned as errors.
type Executor struct {
	log      logx.Logger
	store    *catalog.Store
	composer *bundle.Composer
}

func NewExecutor(log logx.Logger, store *catalog.Store, composer *bundle.Composer) *Executor {
	return &Executor{
		log:      log,
		store:    store,
		composer: composer,
	}
}

// Handle dispatches one tool call and returns the tool message to feed back
// to the model. The message content is also the payload for tool_end events.
func (e *Executor) Handle(ctx context.Context, call schema.ToolCall) (*schema.Message, error) {
	name := strings.TrimSpace(call.Function.Name)
	var payload any

	switch name {
	case ToolGetTrend:
		query := stringArg(call.Function.Arguments, "query")
		trend := e.store.IdentifyTrend(query)
		if trend != catalog.TrendNotFound {
			e.log.Infof("found trend: %s", trend)
		}
		payload = trendResult{Trend: trend}

	case ToolGetProjects:
		trendName := stringArg(call.Function.Arguments, "trend_name")
		projects := e.store.ProjectsForTrend(trendName)
		if len(projects) > 0 {
			e.log.Infof("found %d projects for %q: %v", len(projects), trendName, projects)
		}
		payload = projectsResult{Projects: projects}

	case ToolCreateBundle:
		projectName := stringArg(call.Function.Arguments, "project_name")
		result, err := e.composer.Compose(ctx, projectName)
		switch {
		case err == nil:
			payload = result
		case isBusinessError(err):
			payload = errorResult{Error: err.Error()}
		default:
			return nil, err
		}

	default:
		payload = errorResult{Error: fmt.Sprintf("unknown tool %q", name)}
	}

	content, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal tool payload: %w", err)
	}
	return schema.ToolMessage(string(content), callID(call), schema.WithToolName(call.Function.Name)), nil
}

func isBusinessError(err error) bool {
	var notFound *bundle.NotFoundError
	var unavailable *bundle.CategoryUnavailableError
	return errors.As(err, &notFound) || errors.As(err, &unavailable)
}

func callID(call schema.ToolCall) string {
	if call.ID != "" {
		return call.ID
	}
	return fmt.Sprintf("call-%d", snowflake.Next())
}

// stringArg pulls one string parameter out of the call's JSON arguments.
// Some models emit a bare string instead of an object; tolerate both.
func stringArg(arguments, key string) string {
	raw := make(map[string]any)
	if err := json.Unmarshal([]byte(arguments), &raw); err == nil {
		if v, ok := raw[key]; ok {
			return strings.TrimSpace(fmt.Sprint(v))
		}
		return ""
	}

	var bare string
	if err := json.Unmarshal([]byte(arguments), &bare); err == nil {
		return strings.TrimSpace(bare)
	}
	return strings.TrimSpace(arguments)
}
