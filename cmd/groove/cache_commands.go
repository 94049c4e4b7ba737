package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"groove/internal/handles"
	"groove/internal/library"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and verify the media caches",
	}

	cacheCmd.AddCommand(newCacheStatusCommand(ctx))
	cacheCmd.AddCommand(newCacheVerifyCommand(ctx))

	return cacheCmd
}

func newCacheStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd, func(lib *library.Library) error {
				stats, err := lib.Stats(cmd.Context())
				if err != nil {
					return fmt.Errorf("gather cache stats: %w", err)
				}
				if asJSON {
					return writeJSON(cmd, stats)
				}
				printStats(cmd, stats)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit stats as JSON")
	return cmd
}

func printStats(cmd *cobra.Command, stats library.Stats) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Tracks:      %d (%d resident)\n", stats.TrackCount, stats.ResidentTracks)
	fmt.Fprintf(out, "Handles:     %d\n", stats.HandleCount)
	fmt.Fprintf(out, "Thumbnails:  %s\n", describeBlobStats(stats.Thumbs))
	fmt.Fprintf(out, "Audio:       %s\n", describeBlobStats(stats.Audio))
	fmt.Fprintf(out, "Media files: %d, %s\n", stats.MediaFiles, humanBytes(stats.MediaBytes))
	fmt.Fprintf(out, "Disk:        %s free of %s\n", humanBytes(int64(stats.DiskFree)), humanBytes(int64(stats.DiskTotal)))
}

func describeBlobStats(stats library.BlobStats) string {
	s := fmt.Sprintf("%d entries, %s", stats.Entries, humanBytes(stats.Bytes))
	if stats.Orphans > 0 {
		s += fmt.Sprintf(" (%d orphaned files)", stats.Orphans)
	}
	return s
}

func newCacheVerifyCommand(ctx *commandContext) *cobra.Command {
	var fix bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check handle artifacts against the filesystem",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd, func(lib *library.Library) error {
				findings, err := lib.Verify(cmd.Context(), fix)
				if err != nil {
					return fmt.Errorf("verify handles: %w", err)
				}
				if asJSON {
					if findings == nil {
						findings = []handles.Finding{}
					}
					return writeJSON(cmd, findings)
				}

				out := cmd.OutOrStdout()
				if len(findings) == 0 {
					fmt.Fprintln(out, "All handle artifacts verified")
					return nil
				}
				rendered := renderTable(out,
					[]string{"Track", "Kind", "Blob ID", "Path"},
					buildFindingRows(findings),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(out, rendered)
				if fix {
					fmt.Fprintf(out, "Cleared %d dangling ids\n", len(findings))
				} else {
					fmt.Fprintf(out, "Found %d dangling ids (run with --fix to clear them)\n", len(findings))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Clear dangling ids and save the repaired handles")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit findings as JSON")
	return cmd
}

func buildFindingRows(findings []handles.Finding) [][]string {
	rows := make([][]string, 0, len(findings))
	for _, finding := range findings {
		rows = append(rows, []string{
			finding.TrackID,
			string(finding.Kind),
			finding.BlobID,
			finding.Path,
		})
	}
	return rows
}
