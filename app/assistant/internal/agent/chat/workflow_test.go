package chat

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"CraftMateAI/app/assistant/internal/agent/bundle"
	"CraftMateAI/app/assistant/internal/agent/catalog"
	"CraftMateAI/app/assistant/internal/agent/stream"
	"CraftMateAI/app/assistant/internal/agent/tools"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/logx"
)

// scriptedModel returns one scripted reply per Generate call. Replies are
// functions of the transcript so a final answer can echo tool output the way
// a real model would.
type scriptedModel struct {
	replies []func(in []*schema.Message) (*schema.Message, error)
	calls   int
}

func (m *scriptedModel) Generate(_ context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if m.calls >= len(m.replies) {
		return nil, errors.New("no scripted reply left")
	}
	reply := m.replies[m.calls]
	m.calls++
	return reply(in)
}

func (m *scriptedModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported in tests")
}

func (m *scriptedModel) WithTools(_ []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

func reply(content string, calls ...schema.ToolCall) func([]*schema.Message) (*schema.Message, error) {
	return func([]*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage(content, calls), nil
	}
}

func toolCall(id, name, arguments string) schema.ToolCall {
	return schema.ToolCall{
		ID: id,
		Function: schema.FunctionCall{
			Name:      name,
			Arguments: arguments,
		},
	}
}

type enrichModel struct{}

func (enrichModel) Generate(_ context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if strings.Contains(in[len(in)-1].Content, "catchy phrase") {
		return schema.AssistantMessage("Brings the sparkle!", nil), nil
	}
	return schema.AssistantMessage("1. Do the first thing.\n2. Do the next thing.", nil), nil
}

func (enrichModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported in tests")
}

func writeFixture(t *testing.T, dir, name string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func winterStore(t *testing.T) *catalog.Store {
	t.Helper()
	dir := t.TempDir()
	store, err := catalog.Load(catalog.Conf{
		ProductsFile: writeFixture(t, dir, "products.json", []catalog.Product{
			{SKU: "YRN-1", Name: "White Yarn", Category: "yarn", Velocity: catalog.VelocityHigh},
			{SKU: "YRN-2", Name: "Sparkle Yarn", Category: "yarn", Velocity: catalog.VelocityLow},
			{SKU: "RIB-1", Name: "Red Ribbon", Category: "ribbon", Velocity: catalog.VelocityMedium},
		}),
		ProjectsFile: writeFixture(t, dir, "projects.json", []catalog.Project{
			{
				Name:        "Snow Garland",
				Trend:       "Winter Wonderland",
				Ingredients: []catalog.Ingredient{{Category: "yarn"}, {Category: "ribbon"}},
				Steps:       []string{"Cut the yarn.", "Tie the ribbon."},
			},
			{
				Name:        "Frost Jar",
				Trend:       "Winter Wonderland",
				Ingredients: []catalog.Ingredient{{Category: "ribbon"}},
			},
		}),
		TrendsFile: writeFixture(t, dir, "trends.json", []catalog.Trend{
			{Name: "Winter Wonderland", Keywords: []string{"winter", "snow"}},
		}),
	})
	require.NoError(t, err)
	return store
}

func newTestAgent(t *testing.T, chatModel model.ToolCallingChatModel) (*Agent, *Memory) {
	t.Helper()
	log := logx.WithContext(context.Background())
	store := winterStore(t)
	composer := bundle.NewComposer(log, store, enrichModel{}, rand.New(rand.NewSource(3)))
	executor := tools.NewExecutor(log, store, composer)
	memory := NewMemory()
	return NewAgent(log, chatModel, executor, memory), memory
}

func drain(q *stream.Queue) []stream.Event {
	events := make([]stream.Event, 0)
	for {
		select {
		case ev := <-q.Events():
			events = append(events, ev)
		default:
			return events
		}
	}
}

func eventTypes(events []stream.Event) []string {
	kinds := make([]string, 0, len(events))
	for _, ev := range events {
		kinds = append(kinds, ev.Type)
	}
	return kinds
}

func TestChatStreamTrendFlow(t *testing.T) {
	final := `{"conversation": "Here are some winter projects!", "choices": ["Snow Garland", "Frost Jar"]}`
	scripted := &scriptedModel{replies: []func([]*schema.Message) (*schema.Message, error){
		reply("", toolCall("c1", tools.ToolGetTrend, `{"query": "winter projects"}`)),
		reply("", toolCall("c2", tools.ToolGetProjects, `{"trend_name": "Winter Wonderland"}`)),
		reply(final),
	}}
	agent, memory := newTestAgent(t, scripted)

	q := stream.NewQueue()
	require.NoError(t, agent.ChatStream(context.Background(), "winter projects", q))

	events := drain(q)
	assert.Equal(t, []string{
		stream.EventAction, stream.EventToolStart, stream.EventToolEnd,
		stream.EventAction, stream.EventToolStart, stream.EventToolEnd,
		stream.EventAgentFinish, stream.EventFinalAnswer,
	}, eventTypes(events))

	assert.Contains(t, events[2].Output, "Winter Wonderland")
	assert.Contains(t, events[5].Output, "Snow Garland")

	var parsed struct {
		Conversation string   `json:"conversation"`
		Choices      []string `json:"choices"`
	}
	require.NoError(t, json.Unmarshal([]byte(events[7].Content), &parsed))
	assert.Equal(t, []string{"Snow Garland", "Frost Jar"}, parsed.Choices)

	require.Equal(t, 1, memory.Len())
}

func TestChatStreamBundleFlow(t *testing.T) {
	scripted := &scriptedModel{replies: []func([]*schema.Message) (*schema.Message, error){
		reply("", toolCall("c1", tools.ToolCreateBundle, `{"project_name": "Snow Garland"}`)),
		func(in []*schema.Message) (*schema.Message, error) {
			last := in[len(in)-1]
			return schema.AssistantMessage(
				`{"conversation": "Here is your bundle!", "project": `+last.Content+`}`, nil), nil
		},
	}}
	agent, _ := newTestAgent(t, scripted)

	q := stream.NewQueue()
	require.NoError(t, agent.ChatStream(context.Background(), "Snow Garland", q))

	events := drain(q)
	require.NotEmpty(t, events)
	finalEvent := events[len(events)-1]
	require.Equal(t, stream.EventFinalAnswer, finalEvent.Type)

	var parsed struct {
		Project struct {
			ProjectName string        `json:"project_name"`
			Bundle      []bundle.Item `json:"bundle"`
		} `json:"project"`
	}
	require.NoError(t, json.Unmarshal([]byte(finalEvent.Content), &parsed))
	assert.Equal(t, "Snow Garland", parsed.Project.ProjectName)
	assert.Len(t, parsed.Project.Bundle, 2)
}

func TestChatStreamBusinessErrorStaysInBand(t *testing.T) {
	final := `{"conversation": "I could not find that project, could you pick one of the choices?"}`
	scripted := &scriptedModel{replies: []func([]*schema.Message) (*schema.Message, error){
		reply("", toolCall("c1", tools.ToolCreateBundle, `{"project_name": "No Such Project"}`)),
		reply(final),
	}}
	agent, _ := newTestAgent(t, scripted)

	q := stream.NewQueue()
	require.NoError(t, agent.ChatStream(context.Background(), "No Such Project", q))

	events := drain(q)
	require.Len(t, events, 5)
	assert.Equal(t, stream.EventToolEnd, events[2].Type)
	assert.Contains(t, events[2].Output, "not found")
	assert.Equal(t, stream.EventFinalAnswer, events[4].Type)
}

func TestChatStreamModelErrorReturned(t *testing.T) {
	scripted := &scriptedModel{replies: []func([]*schema.Message) (*schema.Message, error){
		func([]*schema.Message) (*schema.Message, error) {
			return nil, errors.New("transport down")
		},
	}}
	agent, memory := newTestAgent(t, scripted)

	q := stream.NewQueue()
	err := agent.ChatStream(context.Background(), "winter", q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transport down")

	assert.Empty(t, drain(q))
	assert.Equal(t, 0, memory.Len())
}

func TestChatStreamMalformedFinalAnswerFallsBack(t *testing.T) {
	scripted := &scriptedModel{replies: []func([]*schema.Message) (*schema.Message, error){
		reply("Sure! Here you go: totally not JSON"),
	}}
	agent, _ := newTestAgent(t, scripted)

	q := stream.NewQueue()
	require.NoError(t, agent.ChatStream(context.Background(), "hello", q))

	events := drain(q)
	require.Len(t, events, 2)
	assert.Equal(t, stream.EventAgentFinish, events[0].Type)
	assert.Equal(t, "Sure! Here you go: totally not JSON", events[0].Log)

	var parsed map[string]string
	require.NoError(t, json.Unmarshal([]byte(events[1].Content), &parsed))
	assert.Contains(t, parsed["conversation"], "rephrasing")
}

func TestChatStreamRejectsDuplicateToolCalls(t *testing.T) {
	call := toolCall("c1", tools.ToolGetTrend, `{"query": "winter"}`)
	scripted := &scriptedModel{replies: []func([]*schema.Message) (*schema.Message, error){
		reply("", call),
		reply("", toolCall("c2", tools.ToolGetTrend, `{"query": "winter"}`)),
		reply(`{"conversation": "done"}`),
	}}
	agent, _ := newTestAgent(t, scripted)

	q := stream.NewQueue()
	require.NoError(t, agent.ChatStream(context.Background(), "winter", q))

	starts := 0
	for _, ev := range drain(q) {
		if ev.Type == stream.EventToolStart {
			starts++
		}
	}
	assert.Equal(t, 1, starts)
}

func TestChatStreamWithoutModel(t *testing.T) {
	agent, _ := newTestAgent(t, nil)

	q := stream.NewQueue()
	err := agent.ChatStream(context.Background(), "winter", q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat model unavailable")
}

func TestMemoryCarriesHistoryIntoPrompt(t *testing.T) {
	var sawHistory bool
	scripted := &scriptedModel{replies: []func([]*schema.Message) (*schema.Message, error){
		reply(`{"conversation": "first"}`),
		func(in []*schema.Message) (*schema.Message, error) {
			for _, msg := range in {
				if msg.Role == schema.Assistant && strings.Contains(msg.Content, "first") {
					sawHistory = true
				}
			}
			return schema.AssistantMessage(`{"conversation": "second"}`, nil), nil
		},
	}}
	agent, memory := newTestAgent(t, scripted)

	q1 := stream.NewQueue()
	require.NoError(t, agent.ChatStream(context.Background(), "hello", q1))
	q2 := stream.NewQueue()
	require.NoError(t, agent.ChatStream(context.Background(), "again", q2))

	assert.True(t, sawHistory)
	assert.Equal(t, 2, memory.Len())
}
