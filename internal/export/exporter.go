package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rebeliceyang/lazycirc/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

// Formats accepted by Write
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

var listHeader = []string{"Name", "Description", "Library", "Expression", "Query", "Tags", "Created", "Updated", "Last Used", "Usage Count"}

var entryHeader = []string{"ID", "Title", "Authors", "Publisher", "Published", "Language", "Genres", "Updated"}

// ExportToCSV exports saved lists to a CSV file
func ExportToCSV(lists []models.CustomList, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteListsCSV(w, lists) })
}

// ExportToJSON exports saved lists to a JSON file
func ExportToJSON(lists []models.CustomList, path string) error {
	return writeFile(path, func(w io.Writer) error { return writeJSON(w, lists) })
}

// WriteLists writes saved lists to w in the given format
func WriteLists(w io.Writer, format string, lists []models.CustomList) error {
	switch format {
	case FormatCSV:
		return WriteListsCSV(w, lists)
	case FormatJSON:
		return writeJSON(w, lists)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// WriteEntries writes search results to w in the given format
func WriteEntries(w io.Writer, format string, entries []models.Entry) error {
	switch format {
	case FormatCSV:
		return WriteEntriesCSV(w, entries)
	case FormatJSON:
		return writeJSON(w, entries)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// WriteListsCSV writes saved lists as CSV with a header row
func WriteListsCSV(w io.Writer, lists []models.CustomList) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(listHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, l := range lists {
		lastUsed := ""
		if !l.LastUsed.IsZero() {
			lastUsed = l.LastUsed.Format(timeLayout)
		}

		row := []string{
			l.Name,
			l.Description,
			l.Library,
			l.Expression,
			l.Query,
			strings.Join(l.Tags, ", "),
			l.CreatedAt.Format(timeLayout),
			l.UpdatedAt.Format(timeLayout),
			lastUsed,
			strconv.Itoa(l.UsageCount),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteEntriesCSV writes search results as CSV with a header row
func WriteEntriesCSV(w io.Writer, entries []models.Entry) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(entryHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, e := range entries {
		genres := e.CategoryTerms(models.SchemeGenre)
		updated := ""
		if !e.Updated.IsZero() {
			updated = e.Updated.Format(timeLayout)
		}

		row := []string{
			e.ID,
			e.Title,
			strings.Join(e.Authors, "; "),
			e.Publisher,
			e.Published,
			e.Language,
			strings.Join(genres, "; "),
			updated,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
