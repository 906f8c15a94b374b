package confirm

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Mode controls how prompts resolve. ModePrompt waits for the trusted UI;
// the auto modes exist for tests and development.
type Mode string

const (
	ModePrompt  Mode = "prompt"
	ModeApprove Mode = "approve"
	ModeDecline Mode = "decline"
)

// Prompt is one pending user-confirmation request.
type Prompt struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Origin    string    `json:"origin"`
	Payload   any       `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

type pendingPrompt struct {
	prompt Prompt
	done   chan bool
}

// Broker is the explicit request/response boundary for user confirmations.
// Each prompt has a single terminal outcome, approved or declined; there is
// no open-ended callback and cancellation is simply a decline.
type Broker struct {
	mu      sync.Mutex
	mode    Mode
	pending map[string]*pendingPrompt
	notify  func(Prompt)
	now     func() time.Time
}

// NewBroker creates a broker. notify fires for every new prompt so the UI
// can surface it; it may be nil.
func NewBroker(mode Mode, notify func(Prompt)) *Broker {
	if mode != ModeApprove && mode != ModeDecline {
		mode = ModePrompt
	}
	return &Broker{
		mode:    mode,
		pending: make(map[string]*pendingPrompt),
		notify:  notify,
		now:     time.Now,
	}
}

// Ask blocks until the prompt resolves and reports the user's decision.
// Context cancellation counts as a decline: a decline is a normal outcome,
// never an error.
func (b *Broker) Ask(ctx context.Context, kind, origin string, payload any) bool {
	switch b.mode {
	case ModeApprove:
		return true
	case ModeDecline:
		return false
	}

	entry := &pendingPrompt{
		prompt: Prompt{
			ID:        ulid.Make().String(),
			Kind:      kind,
			Origin:    origin,
			Payload:   payload,
			CreatedAt: b.now().UTC(),
		},
		done: make(chan bool, 1),
	}
	b.mu.Lock()
	b.pending[entry.prompt.ID] = entry
	b.mu.Unlock()
	if b.notify != nil {
		b.notify(entry.prompt)
	}

	select {
	case approved := <-entry.done:
		return approved
	case <-ctx.Done():
		b.remove(entry.prompt.ID)
		return false
	}
}

// Pending lists unresolved prompts, oldest first.
func (b *Broker) Pending() []Prompt {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Prompt, 0, len(b.pending))
	for _, entry := range b.pending {
		out = append(out, entry.prompt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Resolve delivers the decision for one prompt. Unknown ids report false:
// the prompt may already have resolved or been cancelled.
func (b *Broker) Resolve(id string, approved bool) bool {
	b.mu.Lock()
	entry, ok := b.pending[id]
	if ok {
		delete(b.pending, id)
	}
	b.mu.Unlock()
	if !ok {
		return false
	}
	entry.done <- approved
	return true
}

func (b *Broker) remove(id string) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}
