package tui

import (
	"testing"

	"github.com/mmcdole/shuttle/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelObserverDropsWhenFull(t *testing.T) {
	o := NewChannelObserver(1)

	o.OnProgress(domain.ProgressSample{BytesSent: 1})
	o.OnProgress(domain.ProgressSample{BytesSent: 2})

	got := <-o.Samples()
	assert.Equal(t, int64(1), got.BytesSent)
	assert.Empty(t, o.Samples())
}

func TestChannelObserverIgnoresSamplesAfterClose(t *testing.T) {
	o := NewChannelObserver(4)
	o.Close()
	o.Close()

	assert.NotPanics(t, func() { o.OnProgress(domain.ProgressSample{BytesSent: 1}) })
	_, ok := <-o.Samples()
	assert.False(t, ok)
}

func TestChannelConflictPublisherDelivers(t *testing.T) {
	p := NewChannelConflictPublisher()
	req := domain.NewConflictRequest("a.txt", "id")

	p.PublishConflict(req)

	got := <-p.Requests()
	assert.Same(t, req, got)
	assert.False(t, req.Resolved())
}

func TestChannelConflictPublisherCancelsWhenBusy(t *testing.T) {
	p := NewChannelConflictPublisher()
	first := domain.NewConflictRequest("a.txt", "1")
	second := domain.NewConflictRequest("b.txt", "2")

	p.PublishConflict(first)
	p.PublishConflict(second)

	require.True(t, second.Resolved())
	assert.Equal(t, domain.DecisionCancel, second.Decision())
	assert.False(t, first.Resolved())
}

func TestChannelConflictPublisherCancelsAfterClose(t *testing.T) {
	p := NewChannelConflictPublisher()
	p.Close()
	req := domain.NewConflictRequest("a.txt", "1")

	p.PublishConflict(req)

	require.True(t, req.Resolved())
	assert.Equal(t, domain.DecisionCancel, req.Decision())
}
