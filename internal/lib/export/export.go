// Package export turns result rows into saved CSV files and describes them
// for the downloads page.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultPreviewRows is how many data rows a preview covers.
	DefaultPreviewRows = 5
	// previewCellMax is the longest cell shown before truncation.
	previewCellMax = 50

	// NoPreview is the preview text of a file without data rows.
	NoPreview = "No data available for preview."

	// ContentType of every saved export.
	ContentType = "text/csv"

	fileTimeLayout = "20060102_150405"
	// DateLayout is how the saved date is displayed.
	DateLayout = "2006-01-02 15:04:05"
)

// Record is the metadata kept alongside each saved export.
type Record struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	Size        string `json:"size"`
	Preview     string `json:"preview"`
	Condition   string `json:"condition"`
	CellType    string `json:"cell_type"`
	Rows        int    `json:"rows"`
}

// Metadata flattens r for the blob store.
func (r Record) Metadata() map[string]string {
	return map[string]string{
		"id":          r.ID,
		"filename":    r.Filename,
		"title":       r.Title,
		"description": r.Description,
		"type":        r.Type,
		"date":        r.Date,
		"size":        r.Size,
		"preview":     r.Preview,
		"condition":   r.Condition,
		"cell_type":   r.CellType,
		"rows":        fmt.Sprint(r.Rows),
	}
}

// RecordFromMetadata is the inverse of Record.Metadata.
func RecordFromMetadata(m map[string]string) Record {
	r := Record{
		ID:          m["id"],
		Filename:    m["filename"],
		Title:       m["title"],
		Description: m["description"],
		Type:        m["type"],
		Date:        m["date"],
		Size:        m["size"],
		Preview:     m["preview"],
		Condition:   m["condition"],
		CellType:    m["cell_type"],
	}
	_, _ = fmt.Sscan(m["rows"], &r.Rows)
	return r
}

// NewRecord describes a freshly written export.
func NewRecord(id, searchType, condition, cellType string, at time.Time) Record {
	kind := Capitalize(searchType)
	return Record{
		ID:          id,
		Filename:    FileName(searchType, condition, cellType, at, id),
		Title:       fmt.Sprintf("%s Results (%s, %s)", kind, condition, cellType),
		Description: fmt.Sprintf("Search for %s in %s cells", condition, cellType),
		Type:        kind,
		Date:        at.Format(DateLayout),
		Condition:   condition,
		CellType:    cellType,
	}
}

// WriteCSV writes header then rows.
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// Preview summarizes up to maxRows rows by their first column, as
// "header: value" pairs joined with ", ". Cells longer than 50 characters
// are cut and suffixed with "...".
func Preview(header []string, rows [][]string, maxRows int) string {
	if maxRows <= 0 {
		maxRows = DefaultPreviewRows
	}
	if len(header) == 0 || len(rows) == 0 {
		return NoPreview
	}
	if len(rows) > maxRows {
		rows = rows[:maxRows]
	}

	parts := make([]string, 0, len(rows))
	for _, row := range rows {
		cell := ""
		if len(row) > 0 {
			cell = truncate(row[0], previewCellMax)
		}
		parts = append(parts, header[0]+": "+cell)
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}

// HumanSize formats a byte count with two decimals, stepping through
// B, KB, MB and GB by 1024 and ending at TB.
func HumanSize(n int64) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024 {
			return fmt.Sprintf("%.2f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.2f TB", size)
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName builds {type}_{condition}_{cell}_{YYYYmmdd_HHMMSS}_{id}.csv with
// every user-supplied part reduced to filename-safe characters.
func FileName(searchType, condition, cellType string, at time.Time, id string) string {
	return fmt.Sprintf("%s_%s_%s_%s_%s.csv",
		sanitize(searchType, "query"),
		sanitize(condition, "unknown"),
		sanitize(cellType, "unknown"),
		at.Format(fileTimeLayout),
		sanitize(id, "export"),
	)
}

func sanitize(s, fallback string) string {
	s = strings.Trim(unsafeFileChars.ReplaceAllString(strings.TrimSpace(s), "-"), "-.")
	if s == "" {
		return fallback
	}
	return s
}

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
