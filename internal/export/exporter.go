// Package export writes result pages and saved filters to files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rebeliceyang/lazyes/internal/dsl"
	"github.com/rebeliceyang/lazyes/internal/models"
)

// Format is an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts "csv" or "json" in any case
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// PageToCSV writes the page as CSV: the key column, then the page columns
func PageToCSV(w io.Writer, page *models.Page) error {
	writer := csv.NewWriter(w)

	header := append([]string{models.KeyField}, page.Columns...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range page.Rows {
		record := make([]string, 0, len(header))
		record = append(record, row.ID)
		for _, v := range row.Values(page.Columns) {
			record = append(record, dsl.CellText(v))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// PageToJSON writes the page documents as a pretty-printed JSON array
func PageToJSON(w io.Writer, page *models.Page) error {
	docs := make([]models.Document, 0, len(page.Rows))
	for _, row := range page.Rows {
		docs = append(docs, row.Document)
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal documents to JSON: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

// FavoritesToCSV writes saved filters as CSV
func FavoritesToCSV(w io.Writer, favorites []models.Favorite) error {
	writer := csv.NewWriter(w)

	header := []string{"Name", "Description", "Connection", "Index", "Type", "Filter", "Tags", "Created", "Last Used", "Usage Count"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, fav := range favorites {
		lastUsed := ""
		if !fav.LastUsed.IsZero() {
			lastUsed = fav.LastUsed.Format("2006-01-02 15:04:05")
		}
		row := []string{
			fav.Name,
			fav.Description,
			fav.Connection,
			fav.Index,
			fav.Type,
			fav.Filter,
			strings.Join(fav.Tags, ", "),
			fav.CreatedAt.Format("2006-01-02 15:04:05"),
			lastUsed,
			strconv.Itoa(fav.UsageCount),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// FileName builds the default export file name for an index page
func FileName(index string, page int, format Format, now time.Time) string {
	return fmt.Sprintf("%s_p%d_%s.%s", index, page, now.Format("20060102_150405"), format)
}

// WritePage exports the page into dir and returns the file path
func WritePage(dir, index string, page *models.Page, format Format, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, FileName(index, page.Current, format, now))

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() { _ = file.Close() }()

	switch format {
	case FormatCSV:
		err = PageToCSV(file, page)
	case FormatJSON:
		err = PageToJSON(file, page)
	default:
		err = fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}
