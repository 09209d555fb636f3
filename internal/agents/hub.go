package agents

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// MessageType classifies hub traffic
type MessageType string

const (
	MessageRequest   MessageType = "REQUEST"
	MessageResponse  MessageType = "RESPONSE"
	MessageBroadcast MessageType = "BROADCAST"
	MessageQuery     MessageType = "QUERY"
	MessageResult    MessageType = "RESULT"
)

// Message is a single entry in the hub's append-only history. Messages are
// audit records, control flow never depends on them.
type Message struct {
	ID        uuid.UUID              `json:"message_id"`
	From      string                 `json:"from_agent"`
	To        string                 `json:"to_agent,omitempty"`
	Type      MessageType            `json:"message_type"`
	Content   map[string]interface{} `json:"content"`
	Timestamp time.Time              `json:"timestamp"`
}

// Hub is the shared blackboard the agents coordinate through within one
// trading cycle. Each agent's latest broadcast is kept in shared context,
// every exchange is appended to history. The coordinator owns the hub and
// clears it at the start of each cycle.
type Hub struct {
	mu      sync.RWMutex
	agents  map[string]bool
	history []Message
	shared  map[string]map[string]interface{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		agents: make(map[string]bool),
		shared: make(map[string]map[string]interface{}),
	}
}

// Register adds an agent to the registry. Re-registering the same name is
// a no-op.
func (h *Hub) Register(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.agents[name] = true
}

// Agents returns the registered agent names
func (h *Hub) Agents() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.agents))
	for name := range h.agents {
		names = append(names, name)
	}
	return names
}

// Broadcast publishes content from an agent to everyone. The agent's slot
// in shared context is overwritten, prior values survive only in history.
func (h *Hub) Broadcast(from string, content map[string]interface{}) uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := Message{
		ID:        uuid.New(),
		From:      from,
		Type:      MessageBroadcast,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	h.history = append(h.history, msg)
	h.shared[from] = copyContent(content)

	return msg.ID
}

// Query records a query message for audit and returns the target agent's
// last broadcast. This is a snapshot read, not a live request to the
// target; nil means the target never broadcast.
func (h *Hub) Query(from, target, query string) map[string]interface{} {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.history = append(h.history, Message{
		ID:        uuid.New(),
		From:      from,
		To:        target,
		Type:      MessageQuery,
		Content:   map[string]interface{}{"query": query},
		Timestamp: time.Now().UTC(),
	})

	if content, ok := h.shared[target]; ok {
		return copyContent(content)
	}
	return nil
}

// SharedContext returns the agent's last broadcast, or an empty map if it
// never broadcast since the last clear
func (h *Hub) SharedContext(agent string) map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if content, ok := h.shared[agent]; ok {
		return copyContent(content)
	}
	return map[string]interface{}{}
}

// AllSharedContext returns a snapshot of every agent's last broadcast
func (h *Hub) AllSharedContext() map[string]map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	snapshot := make(map[string]map[string]interface{}, len(h.shared))
	for agent, content := range h.shared {
		snapshot[agent] = copyContent(content)
	}
	return snapshot
}

// History returns the last limit messages, oldest first. A non-empty agent
// filters to messages where that agent is sender or recipient; limit <= 0
// means no limit.
func (h *Hub) History(agent string, limit int) []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var filtered []Message
	if agent == "" {
		filtered = h.history
	} else {
		for _, msg := range h.history {
			if msg.From == agent || msg.To == agent {
				filtered = append(filtered, msg)
			}
		}
	}

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}

	out := make([]Message, len(filtered))
	copy(out, filtered)
	return out
}

// copyContent shields shared context from caller mutation. Reads are
// snapshots; nested values stay shared since broadcast content is
// treated as immutable once published.
func copyContent(content map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(content))
	for k, v := range content {
		out[k] = v
	}
	return out
}

// Clear wipes history and shared context. Registered agents survive.
func (h *Hub) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.history = nil
	h.shared = make(map[string]map[string]interface{})
}
