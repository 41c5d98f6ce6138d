package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecimalQuantizer(t *testing.T) {
	q := NewDecimalQuantizer()

	// Sub-precision jitter lands in the same bucket.
	a := q.Key(Point{Lat: 40.7128004, Lng: -74.0060004})
	b := q.Key(Point{Lat: 40.7128001, Lng: -74.0060001})
	assert.Equal(t, a, b)
	assert.Equal(t, "40.712800_-74.006000", a)

	// A shift at the sixth decimal changes the bucket.
	c := q.Key(Point{Lat: 40.712801, Lng: -74.006000})
	assert.NotEqual(t, a, c)
}

func TestDecimalQuantizerConfigurablePrecision(t *testing.T) {
	coarse := DecimalQuantizer{Precision: 3}
	a := coarse.Key(Point{Lat: 40.7128, Lng: -74.0060})
	b := coarse.Key(Point{Lat: 40.7131, Lng: -74.0062})
	assert.Equal(t, a, b, "3dp buckets should absorb ~100m moves")
}

func TestCellQuantizer(t *testing.T) {
	q := CellQuantizer{Resolution: 9}

	// Resolution 9 cells are ~170m across; nearby points share a cell.
	a := q.Key(Point{Lat: 40.71280, Lng: -74.00600})
	b := q.Key(Point{Lat: 40.71281, Lng: -74.00601})
	assert.Equal(t, a, b)

	// A move of several km lands in a different cell.
	c := q.Key(Point{Lat: 40.75, Lng: -73.98})
	assert.NotEqual(t, a, c)
}
