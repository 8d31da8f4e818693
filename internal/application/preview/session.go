package preview

import (
	"context"
	"sync"
	"time"

	"github.com/factuurdesk/backend/internal/domain/invoicing"
	"github.com/google/uuid"
)

// State is the lifecycle position of a preview session
type State string

const (
	StateAwaitingData State = "awaiting_data"
	StateRendering    State = "rendering"
	StateReady        State = "ready"
	StateDegraded     State = "degraded"
	StateFailed       State = "failed"
)

// IsSettled reports whether no attempt is running in this state
func (s State) IsSettled() bool {
	return s == StateReady || s == StateDegraded || s == StateFailed
}

// DegradedNotice is shown alongside the image preview
const DegradedNotice = "The PDF preview is too large to show inline. An image of the page is shown instead; the downloaded PDF is unaffected."

// Summary is the text fallback shown when a preview cannot be rendered
type Summary struct {
	InvoiceNumber string `json:"invoice_number"`
	ClientName    string `json:"client_name"`
	InvoiceDate   string `json:"invoice_date"`
	DueDate       string `json:"due_date"`
	TotalAmount   string `json:"total_amount"`
	ErrorMessage  string `json:"error_message"`
}

// InputError describes inputs that did not resolve
type InputError struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Missing []string `json:"missing,omitempty"`
}

// Snapshot is a consistent copy of a session's state
type Snapshot struct {
	SessionID uuid.UUID `json:"session_id"`
	InvoiceID uuid.UUID `json:"invoice_id"`
	State     State     `json:"state"`
	Attempt   int       `json:"attempt"`
	// PDF is the inline document when State is ready
	PDF string `json:"pdf,omitempty"`
	// Image is the page bitmap when State is degraded
	Image  string `json:"image,omitempty"`
	Notice string `json:"notice,omitempty"`
	// Summary is set when State is failed
	Summary *Summary `json:"summary,omitempty"`
	// InputError is set while State is awaiting_data because inputs failed
	InputError *InputError `json:"input_error,omitempty"`
	// Running reports whether an attempt is in progress
	Running bool `json:"running"`
	// Retryable reports whether Retry would start a new attempt
	Retryable bool      `json:"retryable"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session is one preview of one invoice. It is safe for concurrent use.
type Session struct {
	id      uuid.UUID
	invoice *invoicing.InvoiceRecord

	mu         sync.Mutex
	state      State
	attempt    int
	running    bool
	closed     bool
	pdf        string
	image      string
	notice     string
	summary    *Summary
	inputErr   *InputError
	err        error
	updatedAt  time.Time
	lastAccess time.Time
	settled    chan struct{}
}

func newSession(invoice *invoicing.InvoiceRecord, now time.Time) *Session {
	return &Session{
		id:         uuid.New(),
		invoice:    invoice,
		state:      StateAwaitingData,
		updatedAt:  now,
		lastAccess: now,
		settled:    make(chan struct{}),
	}
}

// ID returns the session identifier
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Snapshot returns the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:  s.id,
		InvoiceID:  s.invoice.ID,
		State:      s.state,
		Attempt:    s.attempt,
		PDF:        s.pdf,
		Image:      s.image,
		Notice:     s.notice,
		Summary:    s.summary,
		InputError: s.inputErr,
		Running:    s.running,
		Retryable:  !s.closed && !s.running,
		UpdatedAt:  s.updatedAt,
	}
	return snap
}

// Wait blocks until the current attempt settles or ctx is done, and returns
// the snapshot together with the attempt's error, if any.
func (s *Session) Wait(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	settled := s.settled
	s.mu.Unlock()

	select {
	case <-settled:
	case <-ctx.Done():
		return s.Snapshot(), ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), s.err
}

// Closed reports whether the session was closed
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// begin starts a new attempt from AwaitingData. It returns false when an
// attempt is already running or the session is closed.
func (s *Session) begin(now time.Time) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.running {
		return 0, false
	}
	s.attempt++
	s.running = true
	s.state = StateAwaitingData
	s.pdf, s.image, s.notice = "", "", ""
	s.summary, s.inputErr, s.err = nil, nil, nil
	s.updatedAt = now
	if isClosedChan(s.settled) {
		s.settled = make(chan struct{})
	}
	return s.attempt, true
}

// update applies fn if attempt is still the current one and the session is
// open. Updates for superseded or closed sessions are dropped.
func (s *Session) update(attempt int, now time.Time, fn func(s *Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || attempt != s.attempt {
		return false
	}
	fn(s)
	s.updatedAt = now
	return true
}

// finish marks the attempt as done, recording err for Wait.
func (s *Session) finish(attempt int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt != s.attempt {
		return
	}
	s.running = false
	s.err = err
	if !isClosedChan(s.settled) {
		close(s.settled)
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = now
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

func isClosedChan(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
