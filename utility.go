package landcover

import (
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
)

func PointsToWkt(lon1, lon2, lat1, lat2 float64) string {
	return fmt.Sprintf("POLYGON((%[1]f %[3]f, %[1]f %[4]f, %[2]f %[4]f, %[2]f %[3]f, %[1]f %[3]f))", lon1, lon2, lat1, lat2)
}

// span为[minx,miny,maxx,maxy]
func SpanToWkt(span [4]float64) string {
	return PointsToWkt(span[0], span[2], span[1], span[3])
}

// 像素坐标(px,py)经GDAL仿射变换得到投影坐标
func ApplyGeoTransform(gt [6]float64, px, py float64) (x, y float64) {
	x = gt[0] + px*gt[1] + py*gt[2]
	y = gt[3] + px*gt[4] + py*gt[5]
	return
}

// 子窗口的仿射变换：原点平移到窗口左上角像素
func WindowGeoTransform(gt [6]float64, win Window) [6]float64 {
	x, y := ApplyGeoTransform(gt, float64(win.XOff), float64(win.YOff))
	return [6]float64{x, gt[1], gt[2], y, gt[4], gt[5]}
}

// 影像四角像素经仿射变换后的多边形（投影坐标）
func CornerPolygon(gt [6]float64, width, height int) *geom.Polygon {
	w, h := float64(width), float64(height)
	corners := [][2]float64{{0, 0}, {0, h}, {w, h}, {w, 0}, {0, 0}}
	ring := make([]geom.Coord, len(corners))
	for i, c := range corners {
		x, y := ApplyGeoTransform(gt, c[0], c[1])
		ring[i] = geom.Coord{x, y}
	}
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{ring})
}

// 影像范围 [minx,miny,maxx,maxy]
func RasterBounds(gt [6]float64, width, height int) [4]float64 {
	return BoundsToSpan(CornerPolygon(gt, width, height).Bounds())
}

func BoundsToSpan(b *geom.Bounds) [4]float64 {
	return [4]float64{b.Min(0), b.Min(1), b.Max(0), b.Max(1)}
}

// 多个范围的并集
func UnionSpans(spans ...[4]float64) (ret [4]float64) {
	if len(spans) == 0 {
		return
	}
	b := geom.NewBounds(geom.XY).Set(spans[0][:]...)
	for _, s := range spans[1:] {
		b.Extend(geom.NewBounds(geom.XY).Set(s[:]...).Polygon())
	}
	return BoundsToSpan(b)
}

// GDAL仿射系数 [c,a,b,f,d,e] 转为行优先顺序 [a,b,c,d,e,f]（像元宽度在首位）
func AffineFromGeoTransform(gt [6]float64) [6]float64 {
	return [6]float64{gt[1], gt[2], gt[0], gt[4], gt[5], gt[3]}
}

func GeoTransformFromAffine(af [6]float64) [6]float64 {
	return [6]float64{af[2], af[0], af[1], af[5], af[3], af[4]}
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
