package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"CraftMateAI/app/assistant/internal/agent/stream"

	"github.com/cloudwego/eino/schema"
)

const systemPrompt = `You are a friendly and helpful creative shopping assistant for a craft store. Your goal is to help users find and create DIY projects.

Conversation flow:

1. When the user starts a new conversation (e.g., "winter projects"), your primary goal is to identify a trend. Use the get_trend tool.
2. Once a trend is identified, use the get_projects_for_trend tool to get a list of project names.
3. After you get the list of projects, your next response to the user MUST present these choices using the "choices" key of your final answer.
4. The user will then respond with one of the choices. Look at the user's input and the conversation history. If the user's input exactly matches one of the project names you just offered, you MUST NOT use get_trend or get_projects_for_trend again. Instead, you MUST immediately use the create_bundle_for_project tool with the project name the user selected.
5. After calling create_bundle_for_project, provide the final answer with the project details.

When you have a response to say to the user, reply with a single JSON object and nothing else. The object has a "conversation" key with your message. If you have a list of projects to show, add a "choices" key containing the list of project names. If you have a final project bundle, add a "project" key containing the output from the create_bundle_for_project tool.`

// ChatStream runs one reasoning loop for message, pushing step events onto q
// as they happen. It is the worker side of the event bridge: infrastructure
// failures are returned to the caller, which reports them as an error event
// and terminates the stream.
func (a *Agent) ChatStream(ctx context.Context, message string, q *stream.Queue) error {
	start := time.Now()
	defer func() {
		a.log.Infof("chat stream total duration: %s", time.Since(start))
	}()

	toolModel, err := a.ensureToolModel()
	if err != nil {
		return err
	}

	messages := make([]*schema.Message, 0, a.memory.Len()*2+2)
	messages = append(messages, schema.SystemMessage(systemPrompt))
	messages = append(messages, a.memory.Messages()...)
	messages = append(messages, schema.UserMessage(message))

	toolCalls := 0
	callSignatures := make(map[string]struct{})

	for i := 0; i < maxToolIterations; i++ {
		iterStart := time.Now()
		reply, err := toolModel.Generate(ctx, messages)
		a.log.Infof("tool iteration %d generate took %s", i+1, time.Since(iterStart))
		if err != nil {
			return err
		}
		if reply == nil {
			return errors.New("model returned empty message")
		}

		messages = append(messages, reply)

		if len(reply.ToolCalls) == 0 {
			q.Push(stream.AgentFinish(reply.Content))
			cleaned := SanitizeFinalAnswer(a.log, reply.Content)
			q.Push(stream.FinalAnswer(cleaned))
			a.memory.Append(message, reply.Content)
			return nil
		}

		for _, call := range reply.ToolCalls {
			signature := fmt.Sprintf("%s|%s",
				strings.ToLower(strings.TrimSpace(call.Function.Name)),
				strings.TrimSpace(call.Function.Arguments))
			if _, seen := callSignatures[signature]; seen {
				a.log.Infof("duplicate tool call skipped: %s", signature)
				messages = append(messages, rejectedToolMessage(call, "duplicate tool invocation rejected"))
				continue
			}
			if toolCalls >= maxToolCallsPerSession {
				a.log.Infof("tool call limit reached (%d), skipping %s", maxToolCallsPerSession, call.Function.Name)
				messages = append(messages, rejectedToolMessage(call,
					fmt.Sprintf("tool call limit reached (%d)", maxToolCallsPerSession)))
				continue
			}

			callSignatures[signature] = struct{}{}
			toolCalls++

			q.Push(stream.Action(call.Function.Name, call.Function.Arguments, reply.Content))
			q.Push(stream.ToolStart(call.Function.Name, call.Function.Arguments))

			callStart := time.Now()
			toolMsg, err := a.executor.Handle(ctx, call)
			if err != nil {
				a.log.Errorf("tool call %s failed after %s: %v", call.Function.Name, time.Since(callStart), err)
				return err
			}
			a.log.Infof("tool call %s succeeded in %s", call.Function.Name, time.Since(callStart))

			q.Push(stream.ToolEnd(toolMsg.Content))
			messages = append(messages, toolMsg)
		}
	}

	return fmt.Errorf("tool iteration budget exhausted (%d) without a final answer", maxToolIterations)
}

func rejectedToolMessage(call schema.ToolCall, reason string) *schema.Message {
	payload, _ := json.Marshal(map[string]string{"error": reason})
	callID := call.ID
	if callID == "" {
		callID = fmt.Sprintf("call-%d", time.Now().UnixNano())
	}
	return schema.ToolMessage(string(payload), callID, schema.WithToolName(call.Function.Name))
}
