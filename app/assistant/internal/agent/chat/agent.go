package chat

import (
	"fmt"
	"sync"

	"CraftMateAI/app/assistant/internal/agent/tools"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/zeromicro/go-zero/core/logx"
)

const (
	maxToolIterations      = 8
	maxToolCallsPerSession = 6
)

// Agent drives the staged conversation flow (trend, project listing, bundle
// assembly) through the model's native tool calling. The model and executor
// are interface-typed so tests can script them.
type Agent struct {
	log       logx.Logger
	model     model.ToolCallingChatModel
	executor  *tools.Executor
	memory    *Memory
	toolInfos []*schema.ToolInfo

	toolMu    sync.RWMutex
	toolModel model.ToolCallingChatModel
}

func NewAgent(log logx.Logger, chatModel model.ToolCallingChatModel, executor *tools.Executor, memory *Memory) *Agent {
	return &Agent{
		log:       log,
		model:     chatModel,
		executor:  executor,
		memory:    memory,
		toolInfos: tools.BuildToolInfos(),
	}
}

func (a *Agent) ensureToolModel() (model.ToolCallingChatModel, error) {
	if a == nil || a.model == nil {
		return nil, fmt.Errorf("chat model unavailable")
	}

	a.toolMu.RLock()
	if a.toolModel != nil {
		defer a.toolMu.RUnlock()
		return a.toolModel, nil
	}
	a.toolMu.RUnlock()

	a.toolMu.Lock()
	defer a.toolMu.Unlock()

	if a.toolModel != nil {
		return a.toolModel, nil
	}

	modelWithTools, err := a.model.WithTools(a.toolInfos)
	if err != nil {
		return nil, err
	}

	a.toolModel = modelWithTools
	return a.toolModel, nil
}
