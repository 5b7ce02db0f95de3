package service

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/mmcdole/shuttle/internal/domain"
)

// StaticResolver answers every conflict with the same decision.
// It is used for non-interactive runs (--on-conflict, upload.on_conflict).
type StaticResolver struct {
	Decision domain.ConflictDecision
}

// PublishConflict implements domain.ConflictPublisher
func (r StaticResolver) PublishConflict(req *domain.ConflictRequest) {
	req.Resolve(r.Decision)
}

// PromptResolver asks on a line-oriented terminal.
// One reader goroutine owns the input and hands lines to whichever prompt is
// pending, so a prompt abandoned by cancellation never consumes a later answer.
type PromptResolver struct {
	in     io.Reader
	out    io.Writer
	logger *slog.Logger

	lines     chan string
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// NewPromptResolver creates a resolver that writes the question to out and reads answers from in
func NewPromptResolver(in io.Reader, out io.Writer, logger *slog.Logger) *PromptResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &PromptResolver{
		in:     in,
		out:    out,
		logger: logger,
		lines:  make(chan string),
		done:   make(chan struct{}),
	}
}

// PublishConflict implements domain.ConflictPublisher
func (p *PromptResolver) PublishConflict(req *domain.ConflictRequest) {
	fmt.Fprintf(p.out, "%q already exists. [r]eplace, [k]eep both, [c]ancel? ", req.FileName)
	p.startOnce.Do(func() { go p.readLines() })

	go func() {
		for {
			select {
			case <-req.Done():
				return
			case <-p.done:
				req.Resolve(domain.DecisionCancel)
				return
			case line, ok := <-p.lines:
				if !ok {
					req.Resolve(domain.DecisionCancel)
					return
				}
				if d, ok := parseAnswer(line); ok {
					req.Resolve(d)
					return
				}
				fmt.Fprint(p.out, "Please answer r, k or c: ")
			}
		}
	}()
}

// Close stops reading. in is closed too when it is an io.Closer, which
// releases a reader blocked on it.
func (p *PromptResolver) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		if c, ok := p.in.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}

func (p *PromptResolver) readLines() {
	defer close(p.lines)

	r := bufio.NewReader(p.in)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			select {
			case p.lines <- line:
			case <-p.done:
				return
			}
		}
		if err != nil {
			p.logger.Debug("conflict prompt input closed", "error", err)
			return
		}
	}
}

// parseAnswer accepts single letters and full decision names
func parseAnswer(line string) (domain.ConflictDecision, bool) {
	switch s := strings.ToLower(strings.TrimSpace(line)); s {
	case "r":
		return domain.DecisionReplace, true
	case "k":
		return domain.DecisionKeepBoth, true
	case "c":
		return domain.DecisionCancel, true
	default:
		d, ok, err := domain.ParseConflictDecision(s)
		return d, ok && err == nil
	}
}
