package tui

import (
	"sync"

	"github.com/mmcdole/shuttle/internal/domain"
)

// ChannelObserver adapts domain.ProgressObserver to a channel for Bubble Tea.
type ChannelObserver struct {
	mu     sync.Mutex
	ch     chan domain.ProgressSample
	closed bool
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver(buffer int) *ChannelObserver {
	return &ChannelObserver{ch: make(chan domain.ProgressSample, buffer)}
}

// OnProgress sends progress to the channel (non-blocking if full).
// Samples are cumulative, so a dropped one is superseded by the next.
func (o *ChannelObserver) OnProgress(sample domain.ProgressSample) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	select {
	case o.ch <- sample:
	default:
	}
}

// Samples is the receive side read by WaitForProgressCmd
func (o *ChannelObserver) Samples() <-chan domain.ProgressSample {
	return o.ch
}

// Close ends the stream once the upload has returned
func (o *ChannelObserver) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.closed = true
		close(o.ch)
	}
}

// ChannelConflictPublisher hands conflict requests to the UI through a channel.
type ChannelConflictPublisher struct {
	mu     sync.Mutex
	ch     chan *domain.ConflictRequest
	closed bool
}

// NewChannelConflictPublisher creates a publisher with room for one pending request
func NewChannelConflictPublisher() *ChannelConflictPublisher {
	return &ChannelConflictPublisher{ch: make(chan *domain.ConflictRequest, 1)}
}

// PublishConflict implements domain.ConflictPublisher. When nobody can take the
// request it is resolved to Cancel rather than left waiting.
func (p *ChannelConflictPublisher) PublishConflict(req *domain.ConflictRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		req.Resolve(domain.DecisionCancel)
		return
	}
	select {
	case p.ch <- req:
	default:
		req.Resolve(domain.DecisionCancel)
	}
}

// Requests is the receive side read by WaitForConflictCmd
func (p *ChannelConflictPublisher) Requests() <-chan *domain.ConflictRequest {
	return p.ch
}

// Close ends the stream once the upload has returned
func (p *ChannelConflictPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
}
