package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkitti/fileglancer/pkg/central"
	"github.com/mkitti/fileglancer/pkg/registry"
)

// shareJSON is a share as printed by shares --json; Mounted only with --probe.
type shareJSON struct {
	central.FileSharePath
	Mounted *bool `json:"mounted,omitempty"`
}

func newSharesCommand(a *app) *cobra.Command {
	var probe, asJSON bool

	cmd := &cobra.Command{
		Use:   "shares",
		Short: "List the configured file share paths",
		Long: `List the file share paths published by the central server (or the single
local share when no central server is configured).

With --probe each share's Linux path is checked and a MOUNTED column added.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.services()
			if err != nil {
				return err
			}

			var statuses []registry.MountStatus
			if probe {
				statuses, err = svc.Resolver.Probe(ctx)
			} else {
				shares, gerr := svc.Shares.Get(ctx)
				err = gerr
				for _, s := range shares {
					statuses = append(statuses, registry.MountStatus{Share: s})
				}
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				shares := make([]shareJSON, 0, len(statuses))
				for _, st := range statuses {
					sj := shareJSON{FileSharePath: st.Share}
					if probe {
						sj.Mounted = &st.Mounted
					}
					shares = append(shares, sj)
				}
				return writeJSON(out, shares)
			}

			tw := newTable(out)
			if probe {
				fmt.Fprintln(tw, "CANONICAL PATH\tZONE\tGROUP\tLINUX PATH\tMOUNTED")
			} else {
				fmt.Fprintln(tw, "CANONICAL PATH\tZONE\tGROUP\tLINUX PATH")
			}
			for _, st := range statuses {
				s := st.Share
				if probe {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", s.CanonicalPath, s.Zone, orDash(s.Group), orDash(s.LinuxPath), st.Mounted)
				} else {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.CanonicalPath, s.Zone, orDash(s.Group), orDash(s.LinuxPath))
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", false, "check whether each share is mounted on this host")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
