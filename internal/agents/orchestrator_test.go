package agents

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atlas/internal/adapters/ai"
	"atlas/internal/domain/order"
	"atlas/internal/services/execution"
	"atlas/internal/tools"
)

// toolLoopChat answers the first call with a tool call and subsequent
// calls with a final recommendation
type toolLoopChat struct {
	scriptedChat
	finalText string
	turns     int
}

func (c *toolLoopChat) Chat(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	c.turns++
	if c.turns == 1 {
		return &ai.ChatResponse{
			Choices: []ai.Choice{{
				Message: ai.Message{
					Role:    ai.RoleAssistant,
					Content: "Let me check the current quote.",
					ToolCalls: []ai.ToolCall{{
						ID:   "call-1",
						Type: "function",
						Function: ai.FunctionCall{
							Name:      tools.NameMarketData,
							Arguments: `{"symbol":"NVDA"}`,
						},
					}},
				},
				FinishReason: ai.FinishReasonToolCalls,
			}},
		}, nil
	}
	return textResponse(c.finalText), nil
}

type catalogTools struct {
	fakeTools
}

func (c *catalogTools) ExecuteByName(ctx context.Context, name string, args map[string]interface{}) map[string]interface{} {
	kind, err := tools.ParseKind(name)
	if err != nil {
		return tools.ErrResult(err)
	}
	return c.Execute(ctx, kind, args)
}

func (c *catalogTools) Definitions() []ai.ToolDefinition {
	return tools.Definitions()
}

type fakeProposer struct {
	requests []execution.ProposeRequest
	err      error
}

func (f *fakeProposer) Propose(ctx context.Context, req execution.ProposeRequest) (*order.Order, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &order.Order{ID: uuid.New(), Symbol: req.Symbol, Side: req.Side, Status: order.StatusProposed}, nil
}

func collectEvents(ch <-chan Event) []Event {
	var events []Event
	for e := range ch {
		events = append(events, e)
	}
	return events
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

func TestOrchestratorBuyFlow(t *testing.T) {
	chat := &toolLoopChat{
		finalText: "**Action**: BUY\n**Symbol**: NVDA\n**Quantity**: 25\nStop Loss: $95\nTarget: $120\nConfidence: 0.75\nRationale: momentum continuation",
	}
	catalog := &catalogTools{fakeTools: *healthyMarketTools(100)}
	proposer := &fakeProposer{}
	traces := &memTraceRepo{}

	orch := NewOrchestrator(chat, "test-model", catalog, proposer, traces, "pilot")
	events := collectEvents(orch.Analyze(context.Background(), "user-1", "should I buy NVDA?"))

	assert.Equal(t, []EventType{
		EventStatus, EventThinking, EventToolCall, EventToolResult,
		EventThinking, EventProposal, EventComplete,
	}, eventTypes(events))

	// Status opens with the run id
	assert.Equal(t, "ANALYZING", events[0].Data["status"])
	assert.NotEmpty(t, events[0].Data["run_id"])

	proposal := events[len(events)-2].Data
	assert.Equal(t, "BUY", proposal["action"])
	assert.Equal(t, "NVDA", proposal["symbol"])
	assert.Equal(t, float64(25), proposal["quantity"])

	// A proposed order was created and referenced by the terminal event
	require.Len(t, proposer.requests, 1)
	assert.Equal(t, int64(25), proposer.requests[0].Quantity)
	complete := events[len(events)-1].Data
	assert.NotEmpty(t, complete["order_id"])
	assert.NotEmpty(t, complete["trace_id"])

	// Trace persisted with the tool call recorded
	require.Len(t, traces.runs, 1)
	assert.NotEmpty(t, traces.calls)
}

func TestOrchestratorHoldProducesNoOrder(t *testing.T) {
	chat := &toolLoopChat{finalText: "Conditions are choppy. Recommendation: HOLD. Confidence: 0.4"}
	catalog := &catalogTools{fakeTools: *healthyMarketTools(100)}
	proposer := &fakeProposer{}

	orch := NewOrchestrator(chat, "test-model", catalog, proposer, &memTraceRepo{}, "pilot")
	events := collectEvents(orch.Analyze(context.Background(), "user-1", "any trades today?"))

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, EventComplete, last.Type)
	assert.Empty(t, proposer.requests)

	proposal := events[len(events)-2].Data
	assert.Equal(t, "HOLD", proposal["action"])
}

func TestOrchestratorModelErrorEmitsErrorEvent(t *testing.T) {
	chat := &erroringChat{}
	catalog := &catalogTools{fakeTools: *healthyMarketTools(100)}
	traces := &memTraceRepo{}

	orch := NewOrchestrator(chat, "test-model", catalog, &fakeProposer{}, traces, "pilot")
	events := collectEvents(orch.Analyze(context.Background(), "user-1", "buy NVDA"))

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, EventError, last.Type)
	assert.NotEmpty(t, last.Data["error"])

	// Failed runs are still persisted
	require.Len(t, traces.runs, 1)
}

type erroringChat struct {
	scriptedChat
}

func (c *erroringChat) Chat(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	return nil, assert.AnError
}
