package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConflictRequestAcceptsFirstResolutionOnly(t *testing.T) {
	req := NewConflictRequest("report.pdf", "file-1")
	assert.False(t, req.Resolved())

	assert.True(t, req.Resolve(DecisionKeepBoth))
	assert.False(t, req.Resolve(DecisionReplace))

	assert.True(t, req.Resolved())
	assert.Equal(t, DecisionKeepBoth, req.Decision())
}

func TestConflictRequestWaitResolvedFromAnotherGoroutine(t *testing.T) {
	req := NewConflictRequest("report.pdf", "file-1")

	go func() {
		time.Sleep(10 * time.Millisecond)
		req.Resolve(DecisionReplace)
	}()

	d, err := req.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DecisionReplace, d)
}

func TestConflictRequestWaitCancelledForcesCancel(t *testing.T) {
	req := NewConflictRequest("report.pdf", "file-1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d, err := req.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, DecisionCancel, d)

	// The late decision-maker sees an already-resolved request.
	assert.False(t, req.Resolve(DecisionReplace))
	select {
	case <-req.Done():
	default:
		t.Fatal("Done must be closed after forced cancellation")
	}
	assert.Equal(t, DecisionCancel, req.Decision())
}

func TestParseConflictDecision(t *testing.T) {
	tests := []struct {
		in   string
		want ConflictDecision
		ok   bool
		err  bool
	}{
		{in: "replace", want: DecisionReplace, ok: true},
		{in: "Keep-Both", want: DecisionKeepBoth, ok: true},
		{in: "keep_both", want: DecisionKeepBoth, ok: true},
		{in: "cancel", want: DecisionCancel, ok: true},
		{in: "ask", want: DecisionCancel},
		{in: "", want: DecisionCancel},
		{in: "overwrite", want: DecisionCancel, err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, ok, err := ParseConflictDecision(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
