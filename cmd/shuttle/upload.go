package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/shuttle/internal/domain"
	"github.com/mmcdole/shuttle/internal/service"
	"github.com/mmcdole/shuttle/internal/tui"
	"github.com/spf13/cobra"
)

// Exit codes for upload outcomes
const (
	exitFailed    = 1
	exitCancelled = 130
)

type uploadOptions struct {
	folder     string
	onConflict string
	noTUI      bool
	pick       bool
}

func newUploadCmd(root *rootOptions) *cobra.Command {
	opts := &uploadOptions{}

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file to the default folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.folder, "folder", "f", "", `target folder id ("root" for the store root; default from config)`)
	cmd.Flags().StringVar(&opts.onConflict, "on-conflict", "", "what to do when the name exists: ask, replace, keep-both, cancel")
	cmd.Flags().BoolVar(&opts.noTUI, "no-tui", false, "print plain progress lines instead of the interactive view")
	cmd.Flags().BoolVarP(&opts.pick, "pick", "p", false, "choose the target folder before uploading")
	return cmd
}

func runUpload(cmd *cobra.Command, root *rootOptions, opts *uploadOptions, file string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path, err := filepath.Abs(file)
	if err != nil {
		return err
	}

	a, err := newApp(root, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	policy := opts.onConflict
	if policy == "" {
		policy = a.cfg.Upload.OnConflict
	}
	decision, decided, err := domain.ParseConflictDecision(policy)
	if err != nil {
		return err
	}

	useTUI := !opts.noTUI && interactive()
	if opts.pick && !useTUI {
		return fmt.Errorf("--pick needs an interactive terminal")
	}

	folderID, folderName := targetFolder(a, opts.folder)
	if opts.pick {
		if err := a.ensureSignedIn(ctx); err != nil {
			return err
		}
		folder, ok, err := pickFolder(a, folderID)
		if err != nil {
			return err
		}
		if !ok {
			return exitError{code: exitCancelled}
		}
		folderID, folderName = folder.ID, displayName(a, folder)
	}

	var result domain.TransferResult
	if useTUI {
		result, err = uploadWithTUI(ctx, a, path, folderID, folderName, decision, decided)
		if err != nil {
			return err
		}
	} else {
		result = uploadPlain(ctx, a, cmd.OutOrStdout(), path, folderID, decision, decided)
		fmt.Fprintln(cmd.OutOrStdout(), plainResult(result))
	}

	return resultError(result)
}

// targetFolder resolves the --folder flag against the configured default
func targetFolder(a *app, flag string) (id, name string) {
	switch flag {
	case "":
		settings := a.settings.UploadSettings()
		return settings.DefaultFolderID, settings.DefaultFolderName
	case "root":
		return "", a.rootLabel()
	default:
		return flag, flag
	}
}

func displayName(a *app, f domain.RemoteFolder) string {
	if f.ID == "" {
		return a.rootLabel()
	}
	return f.Name
}

func uploadWithTUI(
	ctx context.Context,
	a *app,
	path, folderID, folderName string,
	decision domain.ConflictDecision,
	decided bool,
) (domain.TransferResult, error) {
	// The device flow prints to the terminal, so it must finish first.
	if err := a.ensureSignedIn(ctx); err != nil {
		return domain.TransferResult{}, err
	}

	observer := tui.NewChannelObserver(64)
	conflicts := tui.NewChannelConflictPublisher()

	var publisher domain.ConflictPublisher = conflicts
	if decided {
		publisher = service.StaticResolver{Decision: decision}
	}

	svc := a.uploadService(
		service.WithProgressObserver(observer),
		service.WithConflictPublisher(publisher),
	)

	model := tui.NewUploadModel(ctx, svc, observer, conflicts, path, folderID, folderName)
	final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if err != nil {
		a.logger.Error("TUI error", "error", err)
	}

	if m, ok := final.(tui.UploadModel); ok {
		if result, done := m.Result(); done {
			return result, nil
		}
	}
	if err != nil {
		return domain.TransferResult{}, fmt.Errorf("TUI error: %w", err)
	}
	return domain.Cancelled(), nil
}

func uploadPlain(
	ctx context.Context,
	a *app,
	out io.Writer,
	path, folderID string,
	decision domain.ConflictDecision,
	decided bool,
) domain.TransferResult {
	var publisher domain.ConflictPublisher
	switch {
	case decided:
		publisher = service.StaticResolver{Decision: decision}
	case interactive():
		prompt := service.NewPromptResolver(os.Stdin, out, a.logger)
		defer prompt.Close()
		publisher = prompt
	default:
		publisher = unattendedResolver{out: out}
	}

	var observer domain.ProgressObserver = domain.NoOpObserver{}
	if a.settings.UploadSettings().ShowProgress {
		observer = newLineProgress(out)
	}

	svc := a.uploadService(
		service.WithProgressObserver(observer),
		service.WithConflictPublisher(publisher),
	)
	return svc.UploadTo(ctx, path, folderID)
}

// unattendedResolver cancels collisions when nobody can be asked
type unattendedResolver struct {
	out io.Writer
}

func (r unattendedResolver) PublishConflict(req *domain.ConflictRequest) {
	fmt.Fprintf(r.out, "%q already exists and there is no terminal to ask; use --on-conflict to decide.\n", req.FileName)
	req.Resolve(domain.DecisionCancel)
}

// plainResult renders a result without styling
func plainResult(r domain.TransferResult) string {
	switch r.Outcome {
	case domain.OutcomeSuccess:
		line := "Uploaded " + r.Name
		if r.Resolution != nil {
			line += " (" + r.Resolution.String() + ")"
		}
		if r.WebLink != "" {
			line += "\n" + r.WebLink
		}
		return line
	case domain.OutcomeCancelled:
		return "Upload cancelled"
	default:
		return "Upload failed: " + r.Message
	}
}

// resultError maps an outcome to the process exit status
func resultError(r domain.TransferResult) error {
	switch r.Outcome {
	case domain.OutcomeSuccess:
		return nil
	case domain.OutcomeCancelled:
		return exitError{code: exitCancelled}
	default:
		return exitError{code: exitFailed}
	}
}
