package chat

import (
	"sync"

	"github.com/cloudwego/eino/schema"
)

type Turn struct {
	Input  string
	Output string
}

// Memory is the process-wide conversation buffer shared by all requests:
// created once in the service context, appended after each completed turn,
// cleared only by restart. The lock is a deliberate deviation from the
// original behavior, which shared the history unsynchronized.
type Memory struct {
	mu    sync.RWMutex
	turns []Turn
}

func NewMemory() *Memory {
	return &Memory{turns: make([]Turn, 0)}
}

func (m *Memory) Append(input, output string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, Turn{Input: input, Output: output})
}

// Messages renders the history as alternating user/assistant messages for
// prompt assembly.
func (m *Memory) Messages() []*schema.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	messages := make([]*schema.Message, 0, len(m.turns)*2)
	for _, turn := range m.turns {
		messages = append(messages, schema.UserMessage(turn.Input))
		messages = append(messages, schema.AssistantMessage(turn.Output, nil))
	}
	return messages
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns)
}
