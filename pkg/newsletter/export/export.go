package export

import (
	"context"
	"io"

	"mercator-hq/courier/pkg/newsletter"
)

// Exporter writes records to w in a specific format.
type Exporter interface {
	Export(ctx context.Context, records []*newsletter.Record, w io.Writer) error
}
