package landcover

import (
	"strconv"
	"sync"

	"github.com/wgdzlh/landcover/log"

	"github.com/lukeroth/gdal"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"go.uber.org/zap"
)

type GdalToolbox struct {
	refMap map[int]gdal.SpatialReference
	rLock  sync.Mutex
	logTag string
}

// 初始化GDAL工具箱
func NewGdalToolbox() *GdalToolbox {
	return &GdalToolbox{
		refMap: map[int]gdal.SpatialReference{},
		logTag: "GdalToolbox:",
	}
}

// 获取srid对应的坐标系（可复用，故无需回收）
func (g *GdalToolbox) getSridRef(srid int) (ref gdal.SpatialReference, err error) {
	g.rLock.Lock()
	defer g.rLock.Unlock()
	ref, ok := g.refMap[srid]
	if ok {
		return
	}
	ref = gdal.CreateSpatialReference("")
	if err = ref.FromEPSG(srid); err != nil {
		log.Error(g.logTag+"set ref srid failed", zap.Int("srid", srid), zap.Error(err))
		ref.Destroy()
		err = eris.Wrapf(ErrUnsupportedSrid, "epsg %d", srid)
		return
	}
	// 固定为(经度,纬度)/(东,北)的传统GIS坐标序，避免EPSG:4326按纬经度输出
	ref.SetAxisMappingStrategy(gdal.OAMS_TraditionalGisOrder)
	g.refMap[srid] = ref
	return
}

// 坐标系WKT
func (g *GdalToolbox) SridWkt(srid int) (wkt string, err error) {
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	return ref.ToWKT()
}

// 从WKT解析srid
func (g *GdalToolbox) WktSrid(wkt string) (srid int, err error) {
	sp := gdal.CreateSpatialReference(wkt)
	defer sp.Destroy()
	rawId, ok := sp.AttrValue("AUTHORITY", 1)
	if !ok {
		if e := sp.AutoIdentifyEPSG(); e == nil {
			rawId, ok = sp.AttrValue("AUTHORITY", 1)
		}
	}
	if !ok || rawId == "" {
		err = ErrVoidSrid
		return
	}
	if srid, err = strconv.Atoi(rawId); err != nil {
		err = eris.Wrapf(ErrVoidSrid, "authority code %q", rawId)
	}
	return
}

func (g *GdalToolbox) parseWKB(b []byte, ref gdal.SpatialReference) (ret gdal.Geometry, err error) {
	ret, err = gdal.CreateFromWKB(b, ref, len(b))
	if err != nil {
		log.Error(g.logTag+"parse wkb failed", zap.Error(err))
	}
	return
}

// 转换WKB坐标系
func (g *GdalToolbox) TransformWkb(b []byte, srid, tSrid int) (ret []byte, err error) {
	if tSrid == srid {
		ret = b
		return
	}
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	tRef, err := g.getSridRef(tSrid)
	if err != nil {
		return
	}
	geo, err := g.parseWKB(b, ref)
	if err != nil {
		return
	}
	defer geo.Destroy()
	if err = geo.TransformTo(tRef); err != nil {
		log.Error(g.logTag+"geo transform failed", zap.Error(err))
		return
	}
	ret, err = geo.ToWKB()
	return
}

// 将多边形从srid转换到tSrid
func (g *GdalToolbox) TransformPolygon(p *geom.Polygon, srid, tSrid int) (ret *geom.Polygon, err error) {
	b, err := wkb.Marshal(p, wkb.NDR)
	if err != nil {
		err = eris.Wrap(err, "encode polygon wkb")
		return
	}
	if b, err = g.TransformWkb(b, srid, tSrid); err != nil {
		err = eris.Wrapf(err, "transform polygon from epsg %d to %d", srid, tSrid)
		return
	}
	t, err := wkb.Unmarshal(b)
	if err != nil {
		err = eris.Wrap(err, "decode polygon wkb")
		return
	}
	ret, ok := t.(*geom.Polygon)
	if !ok {
		err = eris.Errorf("transformed geometry is %T, not a polygon", t)
	}
	return
}

// 影像足迹：四角像素经仿射变换，再转到经纬度
func (g *GdalToolbox) Footprint(gt [6]float64, width, height, srid int) (*geom.Polygon, error) {
	return g.TransformPolygon(CornerPolygon(gt, width, height), srid, UNIVERSAL_SRID)
}
