package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkitti/fileglancer/pkg/filestore"
)

func newLsCommand(a *app) *cobra.Command {
	var long, asJSON bool

	cmd := &cobra.Command{
		Use:   "ls <share> [path]",
		Short: "List a directory in a share",
		Long: `List the entries of a directory, sorted by name. Entries that vanish while
the directory is being read are skipped.

Examples:
  fileglancer ls /groups/scicomp
  fileglancer ls /groups/scicomp data/raw -l
  fileglancer ls /local --json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fs, err := a.filestore(ctx, args[0])
			if err != nil {
				return err
			}

			path := "."
			if len(args) > 1 {
				path = args[1]
			}

			entries, err := fs.List(ctx, path)
			if filestore.IsCode(err, filestore.ErrNotDirectory) {
				// ls on a file shows the file itself
				fi, derr := fs.Describe(ctx, path)
				if derr != nil {
					return derr
				}
				entries, err = []filestore.FileInfo{fi}, nil
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				if entries == nil {
					entries = []filestore.FileInfo{}
				}
				return writeJSON(out, entries)
			case long:
				return writeLong(out, entries)
			}
			for _, fi := range entries {
				fmt.Fprintln(out, displayName(fi))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&long, "long", "l", false, "show permissions, owner, group, size and modification time")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}

func newStatCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stat <share> <path>",
		Short: "Describe a file or directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fs, err := a.filestore(ctx, args[0])
			if err != nil {
				return err
			}

			fi, err := fs.Describe(ctx, args[1])
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), fi)
			}
			return writeStat(cmd.OutOrStdout(), fi)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newCatCommand(a *app) *cobra.Command {
	var chunkSize int

	cmd := &cobra.Command{
		Use:   "cat <share> <path>",
		Short: "Stream a file to standard output",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fs, err := a.filestore(ctx, args[0])
			if err != nil {
				return err
			}

			chunks, err := fs.ReadStream(ctx, args[1], chunkSize)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for chunk, err := range chunks {
				if err != nil {
					return err
				}
				if _, err := out.Write(chunk); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "read chunk size in bytes (default filestore.chunk_size)")
	return cmd
}

func newTouchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "touch <share> <path>",
		Short: "Create an empty file (fails if the path exists)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fs, err := a.filestore(ctx, args[0])
			if err != nil {
				return err
			}
			return fs.CreateFile(ctx, args[1])
		},
	}
}

func newMkdirCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <share> <path>",
		Short: "Create a directory (the parent must exist)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fs, err := a.filestore(ctx, args[0])
			if err != nil {
				return err
			}
			return fs.CreateDirectory(ctx, args[1])
		},
	}
}

func newMvCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <share> <old> <new>",
		Short: "Rename or move within a share",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fs, err := a.filestore(ctx, args[0])
			if err != nil {
				return err
			}
			return fs.Rename(ctx, args[1], args[2])
		},
	}
}

func newRmCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <share> <path>",
		Short: "Remove a file or an empty directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fs, err := a.filestore(ctx, args[0])
			if err != nil {
				return err
			}
			return fs.Remove(ctx, args[1])
		},
	}
}

func newChmodCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chmod <share> <path> <mode>",
		Short: "Set permissions",
		Long: `Set the permission bits of a file or directory. The mode is either octal
(644, 0755) or symbolic in ls form (-rw-r--r--, rwxr-x---). A symbolic mode
with a leading "-" must follow "--".

Examples:
  fileglancer chmod /groups/scicomp data/run.sh 755
  fileglancer chmod /groups/scicomp data/run.sh -- -rwxr-x---`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fs, err := a.filestore(ctx, args[0])
			if err != nil {
				return err
			}
			return fs.SetPermissions(ctx, args[1], args[2])
		},
	}
}
