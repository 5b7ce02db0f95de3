package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/shuttle/internal/domain"
	"github.com/mmcdole/shuttle/internal/tui"
	"github.com/spf13/cobra"
)

func newFoldersCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folders",
		Short: "Browse, create and choose remote folders",
	}
	cmd.AddCommand(
		newFoldersListCmd(root),
		newFoldersCreateCmd(root),
		newFoldersBrowseCmd(root),
		newFoldersFindCmd(root),
		newFoldersDefaultCmd(root),
	)
	return cmd
}

func newFoldersListCmd(root *rootOptions) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "list [parent-id]",
		Short: "List the folders under a parent (the store root by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			parentID := ""
			if len(args) == 1 {
				parentID = args[0]
			}

			var folders []domain.RemoteFolder
			if refresh {
				folders, err = a.folders.Refresh(cmd.Context(), parentID)
			} else {
				folders, err = a.folders.List(cmd.Context(), parentID)
			}
			if err != nil {
				return err
			}
			printFolders(cmd.OutOrStdout(), folders)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&refresh, "refresh", "r", false, "bypass the local folder cache")
	return cmd
}

func newFoldersCreateCmd(root *rootOptions) *cobra.Command {
	var parentID string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			folder, err := a.folders.Create(cmd.Context(), args[0], parentID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", folder.Name, folder.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&parentID, "parent", "", "parent folder id (default the store root)")
	return cmd
}

func newFoldersBrowseCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Pick the default upload folder interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !interactive() {
				return fmt.Errorf("browse needs an interactive terminal; use 'folders default <id>'")
			}

			a, err := newApp(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ensureSignedIn(cmd.Context()); err != nil {
				return err
			}

			current, _ := a.folders.Default()
			folder, ok, err := pickFolder(a, current)
			if err != nil || !ok {
				return err
			}

			folder.Name = displayName(a, folder)
			if err := a.folders.SetDefault(folder); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default folder: %s\n", folder.Name)
			return nil
		},
	}
}

func newFoldersFindCmd(root *rootOptions) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "find <query>",
		Short: "Fuzzy-search folder names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.folders.Crawl(cmd.Context(), depth); err != nil {
				return err
			}

			matches := a.folders.Search(args[0])
			if len(matches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matching folders")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, m := range matches {
				fmt.Fprintf(w, "%s\t%s\n", m.Path, m.Folder.ID)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 3, "how many folder levels to scan")
	return cmd
}

func newFoldersDefaultCmd(root *rootOptions) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "default [folder-id|root]",
		Short: "Show or set the default upload folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				id, current := a.folders.Default()
				if id == "" {
					id = "root"
				}
				fmt.Fprintf(out, "%s (%s)\n", current, id)
				return nil
			}

			folder := domain.RemoteFolder{ID: args[0], Name: name}
			if folder.ID == "root" {
				folder = domain.RemoteFolder{Name: a.rootLabel()}
			}
			if folder.Name == "" {
				folder.Name = folder.ID
			}
			if err := a.folders.SetDefault(folder); err != nil {
				return err
			}
			fmt.Fprintf(out, "Default folder: %s\n", folder.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name for the folder")
	return cmd
}

// pickFolder runs the folder picker full screen
func pickFolder(a *app, defaultID string) (domain.RemoteFolder, bool, error) {
	picker := tui.NewFolderPicker(a.folders, a.rootLabel(), defaultID)
	final, err := tea.NewProgram(picker, tea.WithAltScreen()).Run()
	if err != nil {
		return domain.RemoteFolder{}, false, fmt.Errorf("TUI error: %w", err)
	}
	m, ok := final.(tui.FolderPicker)
	if !ok {
		return domain.RemoteFolder{}, false, nil
	}
	folder, ok := m.Selected()
	return folder, ok, nil
}

func printFolders(w io.Writer, folders []domain.RemoteFolder) {
	if len(folders) == 0 {
		fmt.Fprintln(w, "No folders")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, f := range folders {
		marker := ""
		if f.HasChildren {
			marker = "/"
		}
		fmt.Fprintf(tw, "%s%s\t%s\n", f.Name, marker, f.ID)
	}
	tw.Flush()
}
