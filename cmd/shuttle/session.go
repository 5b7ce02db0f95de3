package main

import (
	"fmt"
	"io"

	"github.com/mmcdole/shuttle/internal/service"
	"github.com/spf13/cobra"
)

func newLoginCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in to the remote store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()

			status, err := a.session.Login(cmd.Context())
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func newLogoutCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential and cached folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newStatusCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the connection and default folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			printStatus(out, a.session.Status(cmd.Context()))
			_, name := a.folders.Default()
			fmt.Fprintf(out, "Default folder: %s\n", name)
			return nil
		},
	}
}

func printStatus(w io.Writer, s service.SessionStatus) {
	fmt.Fprintf(w, "Backend:        %s\n", s.Backend)
	switch {
	case !s.Interactive:
		fmt.Fprintln(w, "Credentials:    from configuration")
	case s.Authenticated && s.Email != "":
		fmt.Fprintf(w, "Signed in as:   %s\n", s.Email)
	case s.Authenticated:
		fmt.Fprintln(w, "Signed in")
	default:
		fmt.Fprintln(w, "Not signed in (run 'shuttle login')")
	}
}
