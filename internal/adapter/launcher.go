package adapter

import (
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// startFunc starts a command without waiting for it
type startFunc func(name string, args ...string) error

func startCommand(name string, args ...string) error {
	if _, err := exec.LookPath(name); err != nil {
		return err
	}
	return exec.Command(name, args...).Start()
}

// Opener opens web links in a browser. It implements domain.LinkOpener.
type Opener struct {
	command string   // configured command, empty for system default
	args    []string // arguments placed before the URL
	goos    string
	start   startFunc
	logger  *slog.Logger
}

// NewOpener creates an Opener. command may include arguments, e.g. "firefox --new-tab".
func NewOpener(command string, logger *slog.Logger) *Opener {
	if logger == nil {
		logger = slog.Default()
	}
	fields := strings.Fields(command)
	o := &Opener{goos: runtime.GOOS, start: startCommand, logger: logger}
	if len(fields) > 0 {
		o.command = fields[0]
		o.args = fields[1:]
	}
	return o
}

// Open launches link with the configured command or the system default handler
func (o *Opener) Open(link string) error {
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("refusing to open non-web link %q", link)
	}

	if o.command != "" {
		args := append(append([]string{}, o.args...), link)
		o.logger.Info("opening link with configured command", "command", o.command, "url", link)
		return o.start(o.command, args...)
	}

	name, args := defaultOpenCommand(o.goos, link)
	o.logger.Info("opening link with system default", "os", o.goos, "url", link)
	if err := o.start(name, args...); err != nil {
		return fmt.Errorf("failed to open link: %w", err)
	}
	return nil
}

// defaultOpenCommand returns the system default handler invocation for goos
func defaultOpenCommand(goos, link string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{link}
	case "windows":
		// cmd's start would split query strings on &
		return "rundll32", []string{"url.dll,FileProtocolHandler", link}
	default:
		// Linux and other Unix-like systems
		return "xdg-open", []string{link}
	}
}
