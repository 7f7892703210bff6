package provider

import (
	"context"
	"sync"

	"github.com/ragstack/ragstack/pkg/llm/types"
)

// Stream is a single-pass, forward-only sequence of text fragments produced
// by a provider adapter. The producer goroutine pushes fragments into a
// bounded channel and closes it when the round trip ends; a caller that
// cancels its context stops the producer promptly, releasing the underlying
// network stream.
//
// After the fragment channel closes, Err reports a provider failure (if any)
// and Final returns the complete response, whose Content matches the
// concatenation of every yielded fragment.
type Stream struct {
	fragments chan string

	mu    sync.Mutex
	err   error
	final *types.GenerateResponse
}

// NewStream creates a stream for a producer goroutine to fill.
func NewStream() *Stream {
	return &Stream{
		fragments: make(chan string, 16),
	}
}

// Fragments returns the channel of text fragments. Each fragment is a
// non-empty increment; concatenating them reconstructs the full text.
func (s *Stream) Fragments() <-chan string {
	return s.fragments
}

// Err returns the provider failure that terminated the stream, if any.
// Valid once the fragment channel is closed.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

// Final returns the complete response accumulated by the producer. Valid once
// the fragment channel is closed; nil when the stream failed before
// completing.
func (s *Stream) Final() *types.GenerateResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.final
}

// Push sends one fragment, giving up when the caller's context is canceled.
// It reports whether the fragment was delivered. Producers must stop on a
// false return.
func (s *Stream) Push(ctx context.Context, fragment string) bool {
	if fragment == "" {
		return true
	}

	select {
	case s.fragments <- fragment:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close records the final response or failure and closes the fragment
// channel. Must be called exactly once by the producer.
func (s *Stream) Close(final *types.GenerateResponse, err error) {
	s.mu.Lock()
	s.final = final
	s.err = err
	s.mu.Unlock()

	close(s.fragments)
}
