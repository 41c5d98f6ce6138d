package geo

import (
	"fmt"

	h3 "github.com/uber/h3-go/v4"
)

// Quantizer maps a coordinate to a deduplication bucket key. The bucket
// granularity is tuned independently of the significance threshold.
type Quantizer interface {
	Key(p Point) string
}

// DecimalQuantizer buckets by rounding coordinates to a fixed number of
// decimal places. At the default 6 places a bucket is roughly 0.1 m at
// the equator.
type DecimalQuantizer struct {
	Precision int
}

// NewDecimalQuantizer returns a quantizer with the default precision.
func NewDecimalQuantizer() DecimalQuantizer {
	return DecimalQuantizer{Precision: 6}
}

func (q DecimalQuantizer) Key(p Point) string {
	prec := q.Precision
	if prec <= 0 {
		prec = 6
	}
	return fmt.Sprintf("%.*f_%.*f", prec, p.Lat, prec, p.Lng)
}

// CellQuantizer buckets by H3 cell at a configurable resolution. Resolution
// 15 cells are ~0.9 m across; lower resolutions widen the bucket.
type CellQuantizer struct {
	Resolution int
}

func (q CellQuantizer) Key(p Point) string {
	res := q.Resolution
	if res <= 0 || res > 15 {
		res = 15
	}
	cell, err := h3.LatLngToCell(h3.LatLng{Lat: p.Lat, Lng: p.Lng}, res)
	if err != nil {
		// Out-of-range coordinate; fall back to decimal bucketing so the
		// dedup counter still bounds spam.
		return DecimalQuantizer{Precision: 6}.Key(p)
	}
	return cell.String()
}
