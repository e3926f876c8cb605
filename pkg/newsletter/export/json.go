package export

import (
	"context"
	"encoding/json"
	"io"

	"mercator-hq/courier/pkg/newsletter"
)

// JSONExporter exports records as a JSON array.
type JSONExporter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes records to w as a JSON array. An empty input writes "[]".
func (e *JSONExporter) Export(ctx context.Context, records []*newsletter.Record, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []*newsletter.Record{}
	}

	var (
		data []byte
		err  error
	)
	if e.Pretty {
		data, err = json.MarshalIndent(records, "", "  ")
	} else {
		data, err = json.Marshal(records)
	}
	if err != nil {
		return newExportError("json", len(records), err)
	}

	if _, err := w.Write(data); err != nil {
		return newExportError("json", len(records), err)
	}
	return nil
}
