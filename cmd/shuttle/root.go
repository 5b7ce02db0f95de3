package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every command
type rootOptions struct {
	configDir string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "shuttle",
		Short: "Upload files to Google Drive or an S3 bucket",
		Long: `shuttle uploads a single file to a cloud store, asking what to do
when a file with the same name already exists in the target folder.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("shuttle {{.Version}}\n")
	root.PersistentFlags().StringVar(&opts.configDir, "config", "", "configuration directory (default ~/.config/shuttle)")

	root.AddCommand(
		newUploadCmd(opts),
		newFoldersCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newStatusCmd(opts),
		newHistoryCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "shuttle %s\n", Version)
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
