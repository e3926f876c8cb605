package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"mercator-hq/courier/pkg/newsletter"
)

// CSVExporter exports records to CSV format.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

var csvHeader = []string{
	"id", "publish_date", "status", "title", "hook", "sections", "conclusion", "sources",
	"audio_url", "audio_duration_seconds", "error_message", "created_at", "updated_at",
}

// Export writes records to w, one row per record. Sections and sources are
// encoded as JSON text.
func (e *CSVExporter) Export(ctx context.Context, records []*newsletter.Record, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(csvHeader); err != nil {
			return newExportError("csv", len(records), err)
		}
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := recordToRow(record)
		if err != nil {
			return newExportError("csv", len(records), err)
		}
		if err := writer.Write(row); err != nil {
			return newExportError("csv", len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return newExportError("csv", len(records), err)
	}
	return nil
}

func recordToRow(r *newsletter.Record) ([]string, error) {
	sections, err := json.Marshal(r.Sections)
	if err != nil {
		return nil, err
	}
	sources, err := json.Marshal(r.Sources)
	if err != nil {
		return nil, err
	}

	var audioURL, duration, errMsg string
	if r.AudioURL != nil {
		audioURL = *r.AudioURL
	}
	if r.AudioDurationSeconds != nil {
		duration = strconv.Itoa(*r.AudioDurationSeconds)
	}
	if r.ErrorMessage != nil {
		errMsg = *r.ErrorMessage
	}

	return []string{
		r.ID, r.PublishDate, string(r.Status), r.Title, r.Hook, string(sections), r.Conclusion, string(sources),
		audioURL, duration, errMsg,
		r.CreatedAt.UTC().Format(time.RFC3339Nano), r.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}
