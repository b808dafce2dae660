package cli

import (
	"fmt"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/mkitti/fileglancer/pkg/central"
)

// currentUsername is the default for --user.
func currentUsername() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}
	return u.Username
}

func newLinksCommand(a *app) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "links",
		Short: "Manage a user's proxied paths",
		Long: `Proxied paths ("links") share a mount path under a generated sharing key.
They live on the central server; this command needs central.url.

Available commands:
  list    List a user's proxied paths
  create  Share a mount path
  update  Change a proxied path's mount path or name
  delete  Remove a proxied path

Examples:
  fileglancer links list --user alice
  fileglancer links create /groups/scicomp/data --user alice
  fileglancer links update 3f2a9c --name results --user alice
  fileglancer links delete 3f2a9c --user alice`,
	}

	cmd.PersistentFlags().StringVarP(&username, "user", "u", currentUsername(), "owner of the proxied paths")

	cmd.AddCommand(
		newLinksListCommand(a, &username),
		newLinksCreateCommand(a, &username),
		newLinksUpdateCommand(a, &username),
		newLinksDeleteCommand(a, &username),
	)
	return cmd
}

func newLinksListCommand(a *app, username *string) *cobra.Command {
	var (
		key    string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's proxied paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}

			paths, err := svc.ProxiedPaths.Get(cmd.Context(), *username, key)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, paths)
			}
			tw := newTable(out)
			fmt.Fprintln(tw, "SHARING KEY\tNAME\tMOUNT PATH")
			for _, p := range paths {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.SharingKey, orDash(p.SharingName), p.MountPath)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "only show the proxied path with this sharing key")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newLinksCreateCommand(a *app, username *string) *cobra.Command {
	return &cobra.Command{
		Use:   "create <mount_path>",
		Short: "Share a mount path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}

			p, err := svc.ProxiedPaths.Create(cmd.Context(), *username, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}
}

func newLinksUpdateCommand(a *app, username *string) *cobra.Command {
	var mountPath, name string

	cmd := &cobra.Command{
		Use:   "update <sharing_key>",
		Short: "Change a proxied path's mount path or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd central.ProxiedPathUpdate
			if cmd.Flags().Changed("mount-path") {
				upd.MountPath = &mountPath
			}
			if cmd.Flags().Changed("name") {
				upd.SharingName = &name
			}
			if upd.MountPath == nil && upd.SharingName == nil {
				return fmt.Errorf("nothing to update: pass --mount-path and/or --name")
			}

			svc, err := a.services()
			if err != nil {
				return err
			}

			p, err := svc.ProxiedPaths.Update(cmd.Context(), *username, args[0], upd)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}

	cmd.Flags().StringVar(&mountPath, "mount-path", "", "new mount path")
	cmd.Flags().StringVar(&name, "name", "", "new sharing name")
	return cmd
}

func newLinksDeleteCommand(a *app, username *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <sharing_key>",
		Short: "Remove a proxied path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			return svc.ProxiedPaths.Delete(cmd.Context(), *username, args[0])
		},
	}
}
