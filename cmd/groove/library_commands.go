package main

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/collate"

	"groove/internal/config"
	"groove/internal/fileutil"
	"groove/internal/library"
	"groove/internal/logging"
	"groove/internal/media"
	"groove/internal/ndjson"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "Inspect and manage the track library",
	}

	libraryCmd.AddCommand(newLibraryListCommand(ctx))
	libraryCmd.AddCommand(newLibraryShowCommand(ctx))
	libraryCmd.AddCommand(newLibraryImportCommand(ctx))

	return libraryCmd
}

func newLibraryListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List library tracks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd, func(lib *library.Library) error {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				tracks, err := lib.AllTracks(cmd.Context())
				if err != nil {
					return fmt.Errorf("read library: %w", err)
				}
				sortTracks(tracks, cfg)

				if asJSON {
					return writeJSON(cmd, tracks)
				}
				if len(tracks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Library is empty")
					return nil
				}
				out := cmd.OutOrStdout()
				rendered := renderTable(out,
					[]string{"ID", "Title", "Artist", "Duration", "Views"},
					buildTrackRows(tracks),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
				)
				fmt.Fprintln(out, rendered)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit tracks as JSON")
	return cmd
}

// sortTracks orders tracks by title under the configured locale, falling
// back to id so equal titles stay stable.
func sortTracks(tracks []media.Track, cfg *config.Config) {
	coll := collate.New(cfg.SortTag(), collate.IgnoreCase)
	sort.SliceStable(tracks, func(i, j int) bool {
		if cmp := coll.CompareString(tracks[i].Title, tracks[j].Title); cmp != 0 {
			return cmp < 0
		}
		return tracks[i].ID < tracks[j].ID
	})
}

func buildTrackRows(tracks []media.Track) [][]string {
	rows := make([][]string, 0, len(tracks))
	for _, track := range tracks {
		views := ""
		if track.ViewCount > 0 {
			views = strconv.FormatUint(track.ViewCount, 10)
		}
		rows = append(rows, []string{
			track.ID,
			track.Title,
			track.ArtistLine(),
			track.DurationString(),
			views,
		})
	}
	return rows
}

type artifactDetail struct {
	BlobID string `json:"blob_id"`
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

type trackDetail struct {
	media.Track
	Color     string          `json:"primary_color,omitempty"`
	Thumbnail *artifactDetail `json:"thumbnail_artifact,omitempty"`
	Audio     *artifactDetail `json:"audio_artifact,omitempty"`
}

func newLibraryShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <track-id>",
		Short: "Show one track with its cached artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withLibrary(cmd, func(lib *library.Library) error {
				co, err := lib.Fetch(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("fetch track: %w", err)
				}
				defer co.Release()

				cell, ok := co.Get(id)
				if !ok {
					return fmt.Errorf("track %s not found", id)
				}
				detail := buildTrackDetail(lib, cell.Get())

				if asJSON {
					return writeJSON(cmd, detail)
				}
				printTrackDetail(cmd, detail)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the track as JSON")
	return cmd
}

func buildTrackDetail(lib *library.Library, track media.Track) trackDetail {
	detail := trackDetail{Track: track}
	handle := lib.Handle(track.ID)
	if color, ok := handle.Color(); ok {
		detail.Color = color
	}
	if id, ok := handle.ThumbID(); ok {
		path, _ := handle.ThumbPath()
		detail.Thumbnail = &artifactDetail{BlobID: id, Path: path, Exists: fileutil.Exists(path)}
	}
	if id, ok := handle.AudioID(); ok {
		path, _ := handle.AudioPath()
		detail.Audio = &artifactDetail{BlobID: id, Path: path, Exists: fileutil.Exists(path)}
	}
	return detail
}

func printTrackDetail(cmd *cobra.Command, detail trackDetail) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:       %s\n", detail.ID)
	fmt.Fprintf(out, "Title:    %s\n", detail.Title)
	fmt.Fprintf(out, "Artist:   %s\n", detail.ArtistLine())
	if detail.Album != "" {
		fmt.Fprintf(out, "Album:    %s\n", detail.Album)
	}
	fmt.Fprintf(out, "Duration: %s\n", detail.DurationString())
	if detail.ViewCount > 0 {
		fmt.Fprintf(out, "Views:    %d\n", detail.ViewCount)
	}
	fmt.Fprintf(out, "URL:      %s\n", detail.WebpageURL)
	if len(detail.Tags) > 0 {
		fmt.Fprintf(out, "Tags:     %s\n", strings.Join(detail.Tags, ", "))
	}
	if detail.Color != "" {
		fmt.Fprintf(out, "Color:    #%s\n", detail.Color)
	}
	fmt.Fprintf(out, "Thumbnail file: %s\n", describeArtifact(detail.Thumbnail))
	fmt.Fprintf(out, "Audio file:     %s\n", describeArtifact(detail.Audio))
}

func describeArtifact(artifact *artifactDetail) string {
	if artifact == nil {
		return "none"
	}
	if !artifact.Exists {
		return fmt.Sprintf("%s (missing)", artifact.Path)
	}
	return artifact.Path
}

func newLibraryImportCommand(ctx *commandContext) *cobra.Command {
	var overwriteFlag bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import tracks from an ndjson file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve import path: %w", err)
			}

			source := ndjson.NewStore[media.Track](path, logging.NewNop())
			lines, err := source.Read(cmd.Context())
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("import file %s does not exist", path)
				}
				return fmt.Errorf("read import file: %w", err)
			}
			if len(lines) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No tracks found in %s\n", path)
				return nil
			}
			tracks := make([]media.Track, 0, len(lines))
			for _, line := range lines {
				tracks = append(tracks, line.Item)
			}

			overwrite := cfg.Library.OverwriteImports
			if cmd.Flags().Changed("overwrite") {
				overwrite = overwriteFlag
			}

			return ctx.withLibrary(cmd, func(lib *library.Library) error {
				if err := lib.Extend(cmd.Context(), tracks, overwrite); err != nil {
					return fmt.Errorf("import tracks: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tracks (overwrite: %s)\n", len(tracks), yesNo(overwrite))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&overwriteFlag, "overwrite", false, "Replace stored tracks that share ids with the import")
	return cmd
}
