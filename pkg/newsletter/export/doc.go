// Package export writes newsletter records to portable formats.
//
//   - JSON: always an array, optionally indented; used for retention archives
//   - CSV: one row per record with sections and sources flattened to JSON
//     text; used by the CLI export command
//
// Both exporters implement Exporter:
//
//	exporter := export.NewJSONExporter(true)
//	if err := exporter.Export(ctx, records, f); err != nil {
//	    return err
//	}
package export
