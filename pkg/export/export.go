// Package export renders social leads as spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/xuri/excelize/v2"
)

// Supported formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

const sheetName = "Leads"

var headers = []string{
	"ID", "Platform", "Status", "Match Score", "Subreddit / Business", "Author",
	"Title", "URL", "Reasoning", "Drafted Reply", "Body", "Found At",
}

// ContentType returns the MIME type of format.
func ContentType(format string) string {
	if format == FormatCSV {
		return "text/csv"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Valid reports whether format can be written.
func Valid(format string) bool {
	return format == FormatXLSX || format == FormatCSV
}

// Write renders leads to w in format.
func Write(w io.Writer, format string, leads []models.SocialLead) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, leads)
	case FormatCSV:
		return WriteCSV(w, leads)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

func row(lead models.SocialLead) []interface{} {
	return []interface{}{
		lead.ID,
		string(lead.Platform),
		string(lead.Status),
		lead.MatchScore,
		lead.Subreddit,
		lead.Author,
		lead.PostTitle,
		lead.PostURL,
		lead.MatchReasoning,
		lead.DraftedReply,
		lead.PostBody,
		lead.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// WriteXLSX writes a single-sheet workbook with a styled header row.
func WriteXLSX(w io.Writer, leads []models.SocialLead) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F5C6C6"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
	}

	for r, lead := range leads {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		values := row(lead)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	last, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetColWidth(sheetName, "A", last, 18); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteCSV writes leads with the same columns as the workbook.
func WriteCSV(w io.Writer, leads []models.SocialLead) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, lead := range leads {
		values := row(lead)
		record := make([]string, len(values))
		for i, v := range values {
			switch t := v.(type) {
			case float64:
				record[i] = strconv.FormatFloat(t, 'f', 2, 64)
			default:
				record[i] = fmt.Sprint(t)
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Filename builds the attachment name for a studio export.
func Filename(slug, format string, now time.Time) string {
	return fmt.Sprintf("social-leads-%s-%s.%s", slug, now.UTC().Format("2006-01-02"), format)
}
