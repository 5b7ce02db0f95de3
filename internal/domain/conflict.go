package domain

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ConflictDecision is the user's answer to a name collision
type ConflictDecision int

const (
	DecisionReplace ConflictDecision = iota
	DecisionKeepBoth
	DecisionCancel
)

// String returns the canonical config/flag spelling
func (d ConflictDecision) String() string {
	switch d {
	case DecisionReplace:
		return "replace"
	case DecisionKeepBoth:
		return "keep-both"
	case DecisionCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// ParseConflictDecision parses a flag or config value.
// "ask" (or empty) returns ok=false with no error: the caller should prompt.
func ParseConflictDecision(s string) (d ConflictDecision, ok bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ask":
		return DecisionCancel, false, nil
	case "replace":
		return DecisionReplace, true, nil
	case "keep-both", "keep_both", "keepboth":
		return DecisionKeepBoth, true, nil
	case "cancel":
		return DecisionCancel, true, nil
	default:
		return DecisionCancel, false, fmt.Errorf("unknown conflict decision %q", s)
	}
}

// ConflictRequest is a one-shot handshake between an upload and whoever decides
// what to do about an existing remote object with the same name.
//
// The upload publishes the request and waits; the decision-maker calls Resolve
// exactly once, from any goroutine. Only the first Resolve is accepted.
type ConflictRequest struct {
	FileName   string
	ExistingID string

	once     sync.Once
	done     chan struct{}
	decision ConflictDecision
}

// NewConflictRequest creates a pending request
func NewConflictRequest(fileName, existingID string) *ConflictRequest {
	return &ConflictRequest{
		FileName:   fileName,
		ExistingID: existingID,
		done:       make(chan struct{}),
	}
}

// Resolve fulfills the request. It returns false if the request was already resolved.
func (r *ConflictRequest) Resolve(d ConflictDecision) bool {
	accepted := false
	r.once.Do(func() {
		r.decision = d
		close(r.done)
		accepted = true
	})
	return accepted
}

// Done is closed once the request is resolved
func (r *ConflictRequest) Done() <-chan struct{} { return r.done }

// Resolved reports whether a decision has been recorded
func (r *ConflictRequest) Resolved() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Decision returns the recorded decision. Only meaningful after Done is closed.
func (r *ConflictRequest) Decision() ConflictDecision {
	<-r.done
	return r.decision
}

// Wait blocks the calling goroutine until the request is resolved or ctx ends.
// On cancellation the request is forced to DecisionCancel so a decision-maker
// still holding it observes a resolved request instead of a dangling one.
func (r *ConflictRequest) Wait(ctx context.Context) (ConflictDecision, error) {
	select {
	case <-r.done:
		return r.decision, nil
	case <-ctx.Done():
		r.Resolve(DecisionCancel)
		return DecisionCancel, ctx.Err()
	}
}
