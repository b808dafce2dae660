package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mkitti/fileglancer/pkg/filestore"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// displayName marks directories with a trailing slash.
func displayName(fi filestore.FileInfo) string {
	if fi.IsDir {
		return fi.Name + "/"
	}
	return fi.Name
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// writeLong prints entries in ls -l form.
func writeLong(w io.Writer, entries []filestore.FileInfo) error {
	tw := newTable(w)
	for _, fi := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			fi.Permissions,
			orDash(fi.Owner),
			orDash(fi.Group),
			humanize.IBytes(uint64(fi.Size)),
			fi.ModTime().Format(time.DateTime),
			displayName(fi),
		)
	}
	return tw.Flush()
}

func writeStat(w io.Writer, fi filestore.FileInfo) error {
	tw := newTable(w)
	kind := "file"
	if fi.IsDir {
		kind = "directory"
	}
	fmt.Fprintf(tw, "Path:\t%s\n", fi.Path)
	fmt.Fprintf(tw, "Type:\t%s\n", kind)
	fmt.Fprintf(tw, "Size:\t%d (%s)\n", fi.Size, humanize.IBytes(uint64(fi.Size)))
	fmt.Fprintf(tw, "Permissions:\t%s\n", fi.Permissions)
	fmt.Fprintf(tw, "Owner:\t%s\n", orDash(fi.Owner))
	fmt.Fprintf(tw, "Group:\t%s\n", orDash(fi.Group))
	fmt.Fprintf(tw, "Modified:\t%s (%s)\n", fi.ModTime().Format(time.RFC3339), humanize.Time(fi.ModTime()))
	return tw.Flush()
}
