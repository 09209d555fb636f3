package agents

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"atlas/internal/adapters/ai"
	"atlas/internal/domain/order"
	"atlas/internal/domain/trace"
	"atlas/internal/services/execution"
	"atlas/internal/tools"
	"atlas/pkg/logger"
)

// EventType identifies a streaming orchestrator event
type EventType string

const (
	EventStatus     EventType = "status"
	EventThinking   EventType = "thinking"
	EventToolCall   EventType = "tool_call"
	EventToolResult EventType = "tool_result"
	EventProposal   EventType = "proposal"
	EventComplete   EventType = "complete"
	EventError      EventType = "error"
)

// Event is one item in the orchestrator's output stream
type Event struct {
	Type EventType              `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// Proposal is the orchestrator's parsed trade recommendation
type Proposal struct {
	Action      Action   `json:"action"`
	Symbol      string   `json:"symbol,omitempty"`
	Quantity    int64    `json:"quantity,omitempty"`
	EntryPrice  float64  `json:"entry_price,omitempty"`
	StopLoss    *float64 `json:"stop_loss,omitempty"`
	TargetPrice *float64 `json:"target_price,omitempty"`
	Confidence  float64  `json:"confidence"`
	Rationale   string   `json:"rationale"`
	OrderID     string   `json:"order_id,omitempty"`
	OrderError  string   `json:"order_error,omitempty"`
}

// Proposer creates proposed orders awaiting user approval
type Proposer interface {
	Propose(ctx context.Context, req execution.ProposeRequest) (*order.Order, error)
}

// ToolCatalog exposes tools by name for model-driven invocation
type ToolCatalog interface {
	ExecuteByName(ctx context.Context, name string, args map[string]interface{}) map[string]interface{}
	Definitions() []ai.ToolDefinition
}

// Orchestrator runs the interactive copilot flow: the user states an
// intent, the model investigates through tools, and the final
// recommendation becomes a proposed order waiting for approval. Progress
// is reported as an ordered event stream suitable for server push.
type Orchestrator struct {
	chat      ai.ChatProvider
	model     string
	tools     ToolCatalog
	proposer  Proposer
	traces    trace.Repository
	accountID string
	log       *logger.Logger
}

// Max model round trips per analysis, counting one per tool batch
const maxToolRounds = 8

// NewOrchestrator creates the interactive orchestrator
func NewOrchestrator(chat ai.ChatProvider, model string, tools ToolCatalog, proposer Proposer, traces trace.Repository, accountID string) *Orchestrator {
	return &Orchestrator{
		chat:      chat,
		model:     model,
		tools:     tools,
		proposer:  proposer,
		traces:    traces,
		accountID: accountID,
		log:       logger.Get().With("component", "orchestrator"),
	}
}

// Analyze runs one analysis for the given intent, emitting events as it
// progresses. The returned channel closes after the terminal complete or
// error event.
func (o *Orchestrator) Analyze(ctx context.Context, userID, intent string) <-chan Event {
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		o.run(ctx, userID, intent, events)
	}()
	return events
}

func (o *Orchestrator) run(ctx context.Context, userID, intent string, events chan<- Event) {
	runID := uuid.NewString()
	started := time.Now().UTC()
	tracer := NewTracer(runID, o.traces)

	run := &trace.Run{
		RunID:     runID,
		UserID:    userID,
		Mode:      "copilot",
		Status:    trace.RunStatusRunning,
		Input:     intent,
		StartedAt: started,
	}
	defer func() {
		run.EndedAt = time.Now().UTC()
		run.DurationMs = run.EndedAt.Sub(started).Milliseconds()
		run.ToolsCalled = marshalToolCalls(tracer.ToolCalls())
		if o.traces != nil {
			saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := o.traces.SaveRun(saveCtx, run); err != nil {
				o.log.Errorf("Failed to persist run trace %s: %v", runID, err)
			}
		}
	}()

	emit := func(t EventType, data map[string]interface{}) {
		select {
		case events <- Event{Type: t, Data: data}:
		case <-ctx.Done():
		}
	}

	fail := func(err error) {
		run.Status = trace.RunStatusFailed
		run.Error = err.Error()
		emit(EventError, map[string]interface{}{"error": err.Error()})
	}

	emit(EventStatus, map[string]interface{}{"status": "ANALYZING", "run_id": runID})

	messages := []ai.Message{
		{Role: ai.RoleSystem, Content: orchestratorSystemPrompt},
		{Role: ai.RoleUser, Content: intent},
	}

	var accumulated strings.Builder
	var marketSymbol string
	var marketPrice float64

	for round := 0; round < maxToolRounds; round++ {
		resp, err := callModel(ctx, o.chat, "orchestrator", ai.ChatRequest{
			Model:    o.model,
			Messages: messages,
			Tools:    o.tools.Definitions(),
		})
		if err != nil {
			fail(err)
			return
		}
		if len(resp.Choices) == 0 {
			break
		}
		msg := resp.Choices[0].Message

		if msg.Content != "" {
			accumulated.WriteString(msg.Content)
			accumulated.WriteString("\n")
			emit(EventThinking, map[string]interface{}{"thought": msg.Content})
		}

		if len(msg.ToolCalls) == 0 {
			break
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			args := map[string]interface{}{}
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				o.log.Warnf("Unparseable tool arguments for %s: %v", call.Function.Name, err)
			}
			emit(EventToolCall, map[string]interface{}{"tool": call.Function.Name, "params": args})

			toolStart := time.Now()
			result := o.tools.ExecuteByName(ctx, call.Function.Name, args)
			tracer.RecordToolCall(ctx, "orchestrator", call.Function.Name, args, result, time.Since(toolStart))

			if call.Function.Name == tools.NameMarketData && result["error"] == nil {
				if s, ok := result["symbol"].(string); ok {
					marketSymbol = s
				}
				if p, ok := result["price"].(float64); ok {
					marketPrice = p
				}
			}

			emit(EventToolResult, map[string]interface{}{
				"tool":    call.Function.Name,
				"summary": summarizeToolResult(result),
			})

			resultJSON, _ := json.Marshal(result)
			messages = append(messages, ai.Message{
				Role:       ai.RoleTool,
				Content:    string(resultJSON),
				ToolCallID: call.ID,
				Name:       call.Function.Name,
			})
		}
	}

	run.Reasoning = mustJSON(map[string]interface{}{"raw_thoughts": accumulated.String()})

	proposal := parseProposal(accumulated.String(), marketSymbol, marketPrice)

	if proposal.Action != ActionHold && o.proposer != nil {
		created, err := o.proposer.Propose(ctx, execution.ProposeRequest{
			AccountID:  o.accountID,
			Symbol:     proposal.Symbol,
			Side:       order.Side(proposal.Action),
			Quantity:   proposal.Quantity,
			StopLoss:   decimalPtr(proposal.StopLoss),
			TakeProfit: decimalPtr(proposal.TargetPrice),
			Confidence: proposal.Confidence,
			Reasoning:  proposal.Rationale,
			RunID:      runID,
		})
		if err != nil {
			o.log.Warnf("Failed to create order proposal: %v", err)
			proposal.OrderError = err.Error()
		} else {
			proposal.OrderID = created.ID.String()
			proposal.EntryPrice = created.Price.InexactFloat64()
		}
	}

	run.Decisions = mustJSON(proposal)
	run.Status = trace.RunStatusCompleted

	emit(EventProposal, proposalData(proposal))
	emit(EventComplete, map[string]interface{}{
		"trace_id": runID,
		"order_id": proposal.OrderID,
	})
}

// parseProposal extracts a trade recommendation from the accumulated
// model text. The symbol and price fall back to the last market data
// fetch when the text omits them.
func parseProposal(text, marketSymbol string, marketPrice float64) Proposal {
	upper := strings.ToUpper(text)

	if strings.Contains(upper, "HOLD") || strings.Contains(upper, "WAIT") || strings.Contains(upper, "NO TRADE") {
		return Proposal{
			Action:     ActionHold,
			Confidence: ParseConfidence(text),
			Rationale:  "Conditions not favorable",
		}
	}

	var action Action
	stripped := negatedBuyPattern.ReplaceAllString(text, "")
	switch {
	case strings.Contains(strings.ToUpper(stripped), "BUY"):
		action = ActionBuy
	case strings.Contains(upper, "SELL") && !strings.Contains(upper, "DON'T SELL"):
		action = ActionSell
	default:
		return Proposal{Action: ActionHold, Confidence: ParseConfidence(text), Rationale: "No clear trading setup"}
	}

	symbol := marketSymbol
	if parsed, ok := ParseSymbolAfter(text, "symbol"); ok {
		symbol = parsed
	}
	if symbol == "" {
		return Proposal{Action: ActionHold, Confidence: ParseConfidence(text), Rationale: "No symbol identified"}
	}

	quantity := int64(10)
	if parsed, ok := ParseIntAfter(text, "quantity"); ok && parsed > 0 {
		quantity = parsed
	}

	proposal := Proposal{
		Action:     action,
		Symbol:     symbol,
		Quantity:   quantity,
		EntryPrice: marketPrice,
		Confidence: ParseConfidence(text),
		Rationale:  tailOf(text, 500),
	}
	if stop, ok := ParseDollarAfter(text, "stop loss"); ok {
		proposal.StopLoss = &stop
	}
	if target, ok := ParseDollarAfter(text, "target"); ok {
		proposal.TargetPrice = &target
	}

	return proposal
}

func summarizeToolResult(result map[string]interface{}) string {
	if errMsg, ok := result["error"].(string); ok {
		return "Failed: " + errMsg
	}
	if summary, ok := result["summary"].(string); ok {
		return summary
	}
	return "Executed"
}

func proposalData(p Proposal) map[string]interface{} {
	data := map[string]interface{}{}
	raw, _ := json.Marshal(p)
	_ = json.Unmarshal(raw, &data)
	return data
}

func decimalPtr(v *float64) decimal.Decimal {
	if v == nil {
		return decimal.Decimal{}
	}
	return decimal.NewFromFloat(*v)
}

func tailOf(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[len(s)-max:]
}
