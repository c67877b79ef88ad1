// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat runs question/answer exchanges against the backend.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/documind-tui/internal/api"
	"github.com/jeranaias/documind-tui/internal/session"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyQuestion rejects questions that are empty or whitespace-only.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrExchangeInFlight rejects a new question while one is still
	// streaming. One exchange at a time.
	ErrExchangeInFlight = errors.New("an exchange is already in flight")
)

// =============================================================================
// STATES AND OUTCOMES
// =============================================================================

// State is the engine's position in the exchange lifecycle.
type State int

const (
	// StateIdle means no exchange has started.
	StateIdle State = iota
	// StateSent means the question is out but no answer data has arrived.
	StateSent
	// StateStreaming means answer text is arriving.
	StateStreaming
	// StateSettled means the last exchange finished; a new one may start.
	StateSettled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateSent:
		return "sent"
	case StateStreaming:
		return "streaming"
	case StateSettled:
		return "settled"
	default:
		return "idle"
	}
}

// OutcomeKind classifies how an exchange settled.
type OutcomeKind int

const (
	// OutcomeSuccess means the full answer arrived.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeFailure means the exchange failed; Advisory holds the
	// user-facing explanation.
	OutcomeFailure
	// OutcomeCancelled means the user cancelled; Text keeps what arrived.
	OutcomeCancelled
)

// Outcome is the settled result of an exchange.
type Outcome struct {
	Kind     OutcomeKind
	Text     string // full answer, or partial text for failures/cancels
	Advisory string // user-facing failure text, empty on success
	Err      error  // underlying error, nil on success
}

// Emission is a cumulative answer snapshot. Text always holds everything
// received so far; Final marks the last emission of the exchange.
type Emission struct {
	ExchangeID string
	Text       string
	Final      bool
}

// EmitFunc receives emissions as the answer arrives. Called from the
// goroutine running Ask; must not block for long.
type EmitFunc func(Emission)

// =============================================================================
// ENGINE
// =============================================================================

// readBufferSize is the chunk size for draining the response body. Chunk
// boundaries are arbitrary; the decoder reassembles lines across them.
const readBufferSize = 4096

// Engine runs exchanges. At most one is in flight at a time.
type Engine struct {
	mu        sync.Mutex
	client    *api.Client
	sessions  *session.Coordinator
	maxTokens int

	state      State
	exchangeID string
	cancel     context.CancelFunc
}

// NewEngine creates an engine bound to a client and session coordinator.
func NewEngine(client *api.Client, sessions *session.Coordinator) *Engine {
	return &Engine{
		client:   client,
		sessions: sessions,
	}
}

// SetMaxTokens sets the per-answer token budget. Zero means the server
// default; the client clamps oversized values.
func (e *Engine) SetMaxTokens(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.maxTokens = n
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Cancel aborts the in-flight exchange, if any. The exchange settles as
// OutcomeCancelled with whatever text had arrived.
func (e *Engine) Cancel() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Ask sends a question and drives the exchange to settlement. Blocks until
// the answer is complete, the exchange fails, or ctx/Cancel aborts it.
// The returned Outcome is also the Kind-specific last word: a non-nil error
// is returned only for pre-flight rejections (empty question, in-flight).
func (e *Engine) Ask(ctx context.Context, token, question string, emit EmitFunc) (Outcome, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Outcome{}, ErrEmptyQuestion
	}

	ctx, id, err := e.begin(ctx)
	if err != nil {
		return Outcome{}, err
	}

	outcome := e.run(ctx, id, token, question, emit)
	e.settle()

	if outcome.Kind == OutcomeSuccess && token != "" {
		e.refreshSessions(token)
	}
	return outcome, nil
}

// begin transitions Idle/Settled -> Sent and registers the cancel handle.
func (e *Engine) begin(ctx context.Context) (context.Context, string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateSent || e.state == StateStreaming {
		return nil, "", ErrExchangeInFlight
	}

	ctx, cancel := context.WithCancel(ctx)
	e.state = StateSent
	e.exchangeID = uuid.NewString()
	e.cancel = cancel
	return ctx, e.exchangeID, nil
}

// settle transitions to Settled and releases the cancel handle.
func (e *Engine) settle() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.state = StateSettled
}

// markStreaming transitions Sent -> Streaming on the first answer data.
func (e *Engine) markStreaming() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateSent {
		e.state = StateStreaming
	}
}

// run performs the exchange and classifies its outcome.
func (e *Engine) run(ctx context.Context, id, token, question string, emit EmitFunc) Outcome {
	e.mu.Lock()
	req := api.AskRequest{
		Question:  question,
		SessionID: e.sessions.ActiveRef(),
		MaxTokens: e.maxTokens,
	}
	e.mu.Unlock()

	stream, err := e.client.Ask(ctx, token, req)
	if err != nil {
		return classify(ctx, err, "")
	}
	defer stream.Close()

	// The server's session id wins, even over an explicit selection.
	// Recorded before any answer text so a cancel cannot lose it.
	e.sessions.ObserveAssignedID(stream.AssignedSessionID)

	if !stream.Streamed {
		return e.consumePlain(ctx, id, stream, emit)
	}
	return e.consumeStream(ctx, id, stream, emit)
}

// consumePlain handles a non-streamed body: the whole answer in one piece,
// delivered as a single final emission.
func (e *Engine) consumePlain(ctx context.Context, id string, stream *api.AskStream, emit EmitFunc) Outcome {
	body, err := io.ReadAll(io.LimitReader(stream.Body(), api.MaxResponseSize))
	if err != nil {
		// A mid-answer read failure is a network failure
		return classify(ctx, fmt.Errorf("%w: %v", api.ErrNetwork, err), "")
	}

	e.markStreaming()
	text := strings.TrimSpace(string(body))
	emit(Emission{ExchangeID: id, Text: text, Final: true})
	return Outcome{Kind: OutcomeSuccess, Text: text}
}

// consumeStream drains an NDJSON body, emitting cumulative snapshots.
func (e *Engine) consumeStream(ctx context.Context, id string, stream *api.AskStream, emit EmitFunc) Outcome {
	var (
		decoder api.StreamDecoder
		answer  strings.Builder
		buf     = make([]byte, readBufferSize)
	)

	deliver := func(events []api.Event) {
		for _, part := range events {
			answer.WriteString(part.Content)
		}
		if len(events) > 0 {
			e.markStreaming()
			emit(Emission{ExchangeID: id, Text: answer.String()})
		}
	}

	for {
		n, err := stream.Body().Read(buf)
		if n > 0 {
			deliver(decoder.Feed(buf[:n]))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			// A mid-answer read failure is a network failure
			return classify(ctx, fmt.Errorf("%w: %v", api.ErrNetwork, err), answer.String())
		}
	}
	deliver(decoder.Finish())

	text := answer.String()
	emit(Emission{ExchangeID: id, Text: text, Final: true})
	return Outcome{Kind: OutcomeSuccess, Text: text}
}

// classify maps an exchange error to its settled outcome. Cancellation is
// checked first: a killed connection also surfaces as a read error.
func classify(ctx context.Context, err error, partial string) Outcome {
	if ctx.Err() != nil {
		return Outcome{Kind: OutcomeCancelled, Text: partial, Err: ctx.Err()}
	}

	var apiErr *api.APIError
	switch {
	case api.IsNetworkError(err):
		return Outcome{Kind: OutcomeFailure, Text: partial, Advisory: api.NetworkAdvisory, Err: err}
	case errors.As(err, &apiErr):
		return Outcome{Kind: OutcomeFailure, Text: partial, Advisory: apiErr.Detail(), Err: err}
	default:
		return Outcome{Kind: OutcomeFailure, Text: partial, Advisory: err.Error(), Err: err}
	}
}

// refreshSessions updates the session list after a successful exchange, so
// a freshly assigned conversation shows up. Failure is non-fatal.
func (e *Engine) refreshSessions(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := e.sessions.Refresh(ctx, token); err != nil {
		log.Printf("chat: session refresh after answer failed: %v", err)
	}
}
