package ai

import "context"

// ChatProvider is a Provider that can run chat completions with tool
// calling. Both the Gemini and OpenAI adapters normalize onto these
// request/response shapes so the agents never see provider payloads.
type ChatProvider interface {
	Provider

	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// MessageRole defines the role of a message sender
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// FinishReason indicates why the model stopped generating
type FinishReason string

const (
	FinishReasonStop      FinishReason = "stop"
	FinishReasonLength    FinishReason = "length"
	FinishReasonToolCalls FinishReason = "tool_calls"
	FinishReasonError     FinishReason = "error"
)

// ChatRequest is one chat completion request
type ChatRequest struct {
	Model       string
	Messages    []Message
	Tools       []ToolDefinition
	Temperature float64
	MaxTokens   int
}

// Message is a single turn in the conversation. ToolCallID and Name are
// only set on RoleTool messages carrying a tool result back to the model.
type Message struct {
	Role       MessageRole
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
}

// ToolDefinition describes a function the model may call, as a JSON
// schema in the OpenAI function-calling format
type ToolDefinition struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition names a callable function and its parameter schema
type FunctionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// ToolCall is one tool invocation requested by the model
type ToolCall struct {
	ID       string
	Type     string
	Function FunctionCall
}

// FunctionCall carries the function name and JSON-encoded arguments
type FunctionCall struct {
	Name      string
	Arguments string
}

// ChatResponse is a normalized completion result
type ChatResponse struct {
	ID      string
	Model   string
	Choices []Choice
	Usage   Usage
}

// Choice is a single completion candidate
type Choice struct {
	Index        int
	Message      Message
	FinishReason FinishReason
}

// Usage tracks token consumption for cost accounting
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// FirstText returns the text of the first choice, or "" when the
// response has none
func (r *ChatResponse) FirstText() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}
