package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/shuttle/internal/adapter"
	"github.com/mmcdole/shuttle/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestStaticResolverDecidesImmediately(t *testing.T) {
	req := domain.NewConflictRequest("a.txt", "id")
	StaticResolver{Decision: domain.DecisionKeepBoth}.PublishConflict(req)

	require.True(t, req.Resolved())
	assert.Equal(t, domain.DecisionKeepBoth, req.Decision())
}

func waitDecision(t *testing.T, req *domain.ConflictRequest) domain.ConflictDecision {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	d, err := req.Wait(ctx)
	require.NoError(t, err)
	return d
}

func TestPromptResolverReadsAnswer(t *testing.T) {
	tests := []struct {
		input string
		want  domain.ConflictDecision
	}{
		{"r\n", domain.DecisionReplace},
		{"k\n", domain.DecisionKeepBoth},
		{"keep-both\n", domain.DecisionKeepBoth},
		{"C\n", domain.DecisionCancel},
		{"what\nr\n", domain.DecisionReplace},
		{"", domain.DecisionCancel},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			p := NewPromptResolver(strings.NewReader(tt.input), &out, adapter.NullLogger())
			req := domain.NewConflictRequest("a.txt", "id")

			p.PublishConflict(req)

			assert.Equal(t, tt.want, waitDecision(t, req))
			assert.Contains(t, out.String(), `"a.txt" already exists`)
			require.NoError(t, p.Close())
		})
	}
}

func TestPromptResolverCancelledPromptReleasesInput(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	pr, pw := io.Pipe()
	var out bytes.Buffer
	p := NewPromptResolver(pr, &out, adapter.NullLogger())

	first := domain.NewConflictRequest("a.txt", "1")
	p.PublishConflict(first)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	d, err := first.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, domain.DecisionCancel, d)

	// The next prompt gets the next answer; the abandoned one keeps Cancel.
	second := domain.NewConflictRequest("b.txt", "2")
	p.PublishConflict(second)
	_, err = io.WriteString(pw, "k\n")
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionKeepBoth, waitDecision(t, second))
	assert.Equal(t, domain.DecisionCancel, first.Decision())

	require.NoError(t, p.Close())
}

func TestPromptResolverCloseCancelsPendingPrompt(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	pr, _ := io.Pipe()
	p := NewPromptResolver(pr, io.Discard, adapter.NullLogger())
	req := domain.NewConflictRequest("a.txt", "1")
	p.PublishConflict(req)

	require.NoError(t, p.Close())

	assert.Equal(t, domain.DecisionCancel, waitDecision(t, req))
}
