package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mmcdole/shuttle/internal/domain"
)

// progressInterval is the minimum spacing between plain progress lines
const progressInterval = 500 * time.Millisecond

// lineProgress prints throttled progress lines for non-interactive output.
// The first and final samples are always printed.
type lineProgress struct {
	out      io.Writer
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	last    time.Time
	sent    int64
	printed bool
}

func newLineProgress(out io.Writer) *lineProgress {
	return &lineProgress{out: out, interval: progressInterval, now: time.Now}
}

// OnProgress implements domain.ProgressObserver
func (p *lineProgress) OnProgress(s domain.ProgressSample) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.printed && s.BytesSent == p.sent {
		return
	}
	now := p.now()
	final := s.TotalBytes > 0 && s.BytesSent >= s.TotalBytes
	if p.printed && !final && now.Sub(p.last) < p.interval {
		return
	}
	p.last = now
	p.sent = s.BytesSent
	p.printed = true

	fmt.Fprintf(p.out, "%s: %s / %s (%.0f%%)\n",
		s.FileName,
		humanize.Bytes(uint64(s.BytesSent)),
		humanize.Bytes(uint64(s.TotalBytes)),
		s.Percentage())
}
