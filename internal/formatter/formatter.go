// package formatter exports watch list data to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/desertthunder/anitrack/internal/models"
	"github.com/desertthunder/anitrack/internal/shared"
)

// Format names accepted by [ParseFormat].
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// ParseFormat normalizes an export format name. "md" and "text" are accepted aliases.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatText, "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
	}
}

// Extension is the file extension for a normalized format.
func Extension(format string) string {
	switch format {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatText:
		return ".txt"
	default:
		return ".json"
	}
}

// WatchlistExport is a snapshot of one user's watch list.
type WatchlistExport struct {
	UserID     string               `json:"user_id"`
	ExportedAt time.Time            `json:"exported_at"`
	Entries    []*models.WatchEntry `json:"entries"`
	Covers     map[string]string    `json:"covers,omitempty"` // entry id -> cover file relative to the export
}

// ExportToCSV writes one row per entry with columns: #, Title, MAL ID, Status, Episodes, Score, Start, Finish, Broadcast
func ExportToCSV(export *WatchlistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"#", "Title", "MAL ID", "Status", "Episodes", "Score", "Start", "Finish", "Broadcast"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range export.Entries {
		record := []string{
			strconv.Itoa(e.Sequence()),
			e.Title(),
			strconv.Itoa(e.MalID()),
			string(e.Status()),
			strconv.Itoa(e.EpisodesWatched()),
			scoreText(e.Score()),
			e.Start(),
			e.Finish(),
			broadcastText(e),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders the list grouped by status, with cover thumbnails when available
func ExportToMarkdown(export *WatchlistExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Watch list: %s\n\n", export.UserID)
	fmt.Fprintf(&buf, "**Entries**: %d\n", len(export.Entries))
	fmt.Fprintf(&buf, "**Exported**: %s\n\n", export.ExportedAt.Format(time.RFC3339))

	for _, status := range models.Statuses {
		var group []*models.WatchEntry
		for _, e := range export.Entries {
			if e.Status() == status {
				group = append(group, e)
			}
		}
		if len(group) == 0 {
			continue
		}

		fmt.Fprintf(&buf, "## %s (%d)\n\n", status, len(group))
		for _, e := range group {
			if cover := export.Covers[e.ID()]; cover != "" {
				fmt.Fprintf(&buf, "![%s](%s)\n\n", e.Title(), cover)
			}
			fmt.Fprintf(&buf, "- **%s**", e.Title())
			if e.MalID() > 0 {
				fmt.Fprintf(&buf, " ([MAL](https://myanimelist.net/anime/%d))", e.MalID())
			}
			fmt.Fprintf(&buf, " - episodes: %d, score: %s", e.EpisodesWatched(), scoreText(e.Score()))
			if e.Broadcast().Known() {
				fmt.Fprintf(&buf, ", airs: %s", e.Broadcast())
			}
			buf.WriteString("\n")
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText renders one numbered line per entry
func ExportToText(export *WatchlistExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Watch list: %s\n", export.UserID)
	fmt.Fprintf(&buf, "Entries: %d\n\n", len(export.Entries))

	for i, e := range export.Entries {
		fmt.Fprintf(&buf, "%d. %s [%s] %d eps, score %s\n", i+1, e.Title(), e.Status(), e.EpisodesWatched(), scoreText(e.Score()))
	}

	return buf.Bytes(), nil
}

// ExportToJSON marshals the export with indentation
func ExportToJSON(export *WatchlistExport) ([]byte, error) {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}
	return data, nil
}

// Render dispatches to the exporter for format.
func Render(export *WatchlistExport, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export)
	case FormatText:
		return ExportToText(export)
	default:
		return ExportToJSON(export)
	}
}

// WriteExport renders the export and writes it to path on fs, creating parent directories.
//
// Defaults to watchlist_{user}{ext} in the working directory.
func WriteExport(fs afero.Fs, export *WatchlistExport, format, path string) (string, error) {
	if path == "" {
		path = "watchlist_" + shared.NormalizeTitleKey(export.UserID) + Extension(format)
	}

	data, err := Render(export, format)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// WriteManifest writes v as indented JSON to path on fs
func WriteManifest(fs afero.Fs, v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func scoreText(score int) string {
	if score == 0 {
		return "-"
	}
	return strconv.Itoa(score)
}

func broadcastText(e *models.WatchEntry) string {
	if !e.Broadcast().Known() {
		return ""
	}
	return e.Broadcast().String()
}
