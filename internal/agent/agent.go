package agent

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Envelope is a signed payload ready for an external transport. This core
// never talks to a ledger or network itself; it produces envelopes and
// hands them to a Submitter.
type Envelope struct {
	Kind      string `json:"kind"`
	Origin    string `json:"origin"`
	Principal string `json:"principal"`
	PublicKey []byte `json:"public_key"`
	Payload   any    `json:"payload"`
	Signature []byte `json:"signature"`
}

type Receipt struct {
	ID            string `json:"id"`
	Accepted      bool   `json:"accepted"`
	SubmittedAtMs int64  `json:"submitted_at_ms"`
}

type Submitter interface {
	Submit(ctx context.Context, env Envelope) (Receipt, error)
}

// Mock is the default submitter: it accepts every envelope and keeps it
// around for inspection, so the daemon runs end to end without a gateway.
type Mock struct {
	mu        sync.Mutex
	envelopes []Envelope
}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Submit(_ context.Context, env Envelope) (Receipt, error) {
	m.mu.Lock()
	m.envelopes = append(m.envelopes, env)
	m.mu.Unlock()
	return Receipt{
		ID:            ulid.Make().String(),
		Accepted:      true,
		SubmittedAtMs: time.Now().UnixMilli(),
	}, nil
}

// Envelopes returns a copy of everything submitted so far.
func (m *Mock) Envelopes() []Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Envelope(nil), m.envelopes...)
}
