package landcover

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpanToWkt(t *testing.T) {
	assert.Equal(t,
		"POLYGON((1.000000 2.000000, 1.000000 4.000000, 3.000000 4.000000, 3.000000 2.000000, 1.000000 2.000000))",
		SpanToWkt([4]float64{1, 2, 3, 4}))
}

func TestWindowGeoTransform(t *testing.T) {
	gt := WindowGeoTransform(refGeoTransform, Window{XOff: 326, YOff: 183, XSize: 326, YSize: 184})
	assert.InDelta(t, -500000+326*30.0, gt[0], 1e-9)
	assert.InDelta(t, 800000-183*30.0, gt[3], 1e-9)
	assert.Equal(t, refGeoTransform[1], gt[1])
	assert.Equal(t, refGeoTransform[5], gt[5])
}

func TestRasterBounds(t *testing.T) {
	b := RasterBounds(refGeoTransform, refCols, refRows)
	assert.InDelta(t, -500000.0, b[0], 1e-9)
	assert.InDelta(t, 800000-refRows*30.0, b[1], 1e-9)
	assert.InDelta(t, -500000+refCols*30.0, b[2], 1e-9)
	assert.InDelta(t, 800000.0, b[3], 1e-9)
}

func TestCornerPolygonClosed(t *testing.T) {
	p := CornerPolygon(refGeoTransform, refCols, refRows)
	coords := p.Coords()[0]
	assert.Len(t, coords, 5)
	assert.Equal(t, coords[0], coords[4])
}

func TestUnionSpans(t *testing.T) {
	assert.Equal(t, [4]float64{}, UnionSpans())
	u := UnionSpans([4]float64{0, 0, 1, 1}, [4]float64{2, -1, 3, 0.5}, [4]float64{-1, 0.5, 0, 4})
	assert.Equal(t, [4]float64{-1, -1, 3, 4}, u)
}

func TestAffineRoundTrip(t *testing.T) {
	af := AffineFromGeoTransform(refGeoTransform)
	assert.Equal(t, [6]float64{30, 0, -500000, 0, -30, 800000}, af)
	assert.Equal(t, refGeoTransform, GeoTransformFromAffine(af))
}
