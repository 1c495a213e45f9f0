package stream

// Event types pushed through a request's queue, in the order the agent
// produces them. stream_end is an internal sentinel: the consumer stops on
// it and never forwards it to the client.
const (
	EventAction      = "action"
	EventToolStart   = "tool_start"
	EventToolEnd     = "tool_end"
	EventAgentFinish = "agent_finish"
	EventFinalAnswer = "final_answer"
	EventError       = "error"
	EventStreamEnd   = "stream_end"
)

// Event is the tagged union carried over the wire. Only the fields of the
// active variant are set; omitempty keeps each frame minimal.
type Event struct {
	Type      string `json:"type"`
	Tool      string `json:"tool,omitempty"`
	ToolInput string `json:"tool_input,omitempty"`
	Log       string `json:"log,omitempty"`
	ToolName  string `json:"tool_name,omitempty"`
	Input     string `json:"input,omitempty"`
	Output    string `json:"output,omitempty"`
	Content   string `json:"content,omitempty"`
}

func Action(tool, toolInput, log string) Event {
	return Event{Type: EventAction, Tool: tool, ToolInput: toolInput, Log: log}
}

func ToolStart(toolName, input string) Event {
	return Event{Type: EventToolStart, ToolName: toolName, Input: input}
}

func ToolEnd(output string) Event {
	return Event{Type: EventToolEnd, Output: output}
}

func AgentFinish(log string) Event {
	return Event{Type: EventAgentFinish, Log: log}
}

func FinalAnswer(content string) Event {
	return Event{Type: EventFinalAnswer, Content: content}
}

func ErrorEvent(content string) Event {
	return Event{Type: EventError, Content: content}
}

func StreamEnd() Event {
	return Event{Type: EventStreamEnd}
}
