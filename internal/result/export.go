package result

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Fanchen-Meng/online-study-room/internal/store"

	"github.com/jung-kurt/gofpdf"
)

var ErrUnknownFormat = errors.New("unknown export format")

// ContentType maps an export format to its HTTP media type.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case "csv":
		return "text/csv"
	case "pdf":
		return "application/pdf"
	default:
		return "application/json"
	}
}

type Exporter struct {
	st *store.Store
	// FontPath names a UTF-8 TrueType font for PDF output. Without it the
	// core Arial font is used, which only covers cp1252, so CJK titles
	// come out as '?'.
	FontPath string
}

func NewExporter(st *store.Store) *Exporter { return &Exporter{st: st} }

func (e *Exporter) Export(ctx context.Context, format string) ([]byte, error) {
	all, err := e.st.All(ctx)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case "json":
		return json.MarshalIndent(all, "", "  ")
	case "csv":
		var b bytes.Buffer
		w := csv.NewWriter(&b)
		_ = w.Write([]string{"id", "title", "duration", "actual_time", "completed", "created_at"})
		for _, t := range all {
			_ = w.Write([]string{
				fmt.Sprint(t.ID), t.Title, fmt.Sprint(t.Duration), fmt.Sprint(t.ActualTime),
				fmt.Sprint(t.Completed), t.CreatedAt.Format(store.TimeLayout),
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
		return b.Bytes(), nil
	case "pdf":
		return renderPDF(all, e.FontPath)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

func renderPDF(all []store.Task, fontPath string) ([]byte, error) {
	var total, done int
	for _, t := range all {
		total += t.ActualTime
		if t.Completed {
			done++
		}
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	family := "Arial"
	tr := func(s string) string { return s }
	if fontPath != "" {
		if _, err := os.Stat(fontPath); err != nil {
			return nil, fmt.Errorf("pdf font: %w", err)
		}
		family = "unicode"
		pdf.AddUTF8Font(family, "", fontPath)
		pdf.AddUTF8Font(family, "B", fontPath)
	} else {
		// core fonts are cp1252
		tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	pdf.AddPage()
	pdf.SetFont(family, "B", 14)
	pdf.Cell(40, 10, "Study Room Task Report")
	pdf.Ln(12)
	pdf.SetFont(family, "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Tasks: %d   Completed: %d   Time spent: %d min", len(all), done, total/60))
	pdf.Ln(10)

	widths := []float64{12, 88, 22, 26, 22}
	header := []string{"ID", "Title", "Estimate", "Spent", "Done"}
	pdf.SetFont(family, "B", 10)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont(family, "", 10)
	for _, t := range all {
		status := "no"
		if t.Completed {
			status = "yes"
		}
		row := []string{
			fmt.Sprint(t.ID),
			tr(t.Title),
			fmt.Sprintf("%d min", t.Duration),
			fmt.Sprintf("%d min", t.ActualTime/60),
			status,
		}
		for i, c := range row {
			pdf.CellFormat(widths[i], 6, c, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
