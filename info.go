package landcover

import (
	"os"

	"github.com/wgdzlh/landcover/log"

	gdal "github.com/airbusgeo/godal"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const mimeTiff = "image/tiff"

// 读取栅格文件的仿射变换、坐标系、波段属性及统计
func (g *GdalToolbox) ReadRasterInfo(path string) (info RasterInfo, err error) {
	fi, err := os.Stat(path)
	if err != nil {
		err = eris.Wrapf(ErrMissingTile, "%s: %v", path, err)
		return
	}
	if fi.IsDir() {
		err = eris.Wrapf(ErrNotTif, "%s is a directory", path)
		return
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		err = eris.Wrapf(ErrTifReadFailed, "detect type of %s: %v", path, err)
		return
	}
	if !mt.Is(mimeTiff) {
		err = eris.Wrapf(ErrNotTif, "%s is %s", path, mt.String())
		return
	}
	ds, err := gdal.Open(path, gdal.RasterOnly())
	if err != nil {
		log.Error(g.logTag+"open tif failed", zap.String("path", path), zap.Error(err))
		err = eris.Wrapf(ErrInvalidTif, "open %s: %v", path, err)
		return
	}
	defer ds.Close()
	st := ds.Structure()
	info = RasterInfo{
		Path:      path,
		Size:      fi.Size(),
		Width:     st.SizeX,
		Height:    st.SizeY,
		BandCount: st.NBands,
		DataType:  stacDataType(st.DataType),
	}
	if info.Transform, err = ds.GeoTransform(); err != nil {
		err = eris.Wrapf(ErrWrongTif, "%s has no geotransform: %v", path, err)
		return
	}
	if info.EPSG, info.WKT, err = g.datasetSrid(ds); err != nil {
		err = eris.Wrapf(err, "crs of %s", path)
		return
	}
	bands := ds.Bands()
	if len(bands) == 0 {
		err = eris.Wrapf(ErrWrongTif, "%s has no band", path)
		return
	}
	band := bands[0]
	info.NoData, info.HasNoData = band.NoData()
	info.ColorCount = len(LegendColors(band.ColorTable()))
	if st.DataType == gdal.Byte {
		if info.Stats, err = bandStats(band, info.NoData, info.HasNoData); err != nil {
			err = eris.Wrapf(err, "statistics of %s", path)
			return
		}
	}
	log.Info(g.logTag+"read raster info", zap.String("path", path), zap.Int("width", info.Width),
		zap.Int("height", info.Height), zap.Int("epsg", info.EPSG), zap.Int64("size", info.Size))
	return
}

func (g *GdalToolbox) datasetSrid(ds *gdal.Dataset) (srid int, wkt string, err error) {
	if ds.Projection() == "" {
		err = ErrVoidSrid
		return
	}
	sr := ds.SpatialRef()
	defer sr.Close()
	if wkt, err = sr.WKT(); err != nil {
		err = eris.Wrapf(ErrVoidSrid, "export wkt: %v", err)
		return
	}
	srid, err = g.WktSrid(wkt)
	return
}

// 校验栅格是否符合输出约定：单波段uint8、无数据值为0、配色表及坐标系一致
func ValidateRasterInfo(info RasterInfo, epsg int) error {
	switch {
	case info.BandCount != 1:
		return eris.Wrapf(ErrWrongTif, "%s has %d bands", info.Path, info.BandCount)
	case info.DataType != LandcoverBand.DataType:
		return eris.Wrapf(ErrWrongTif, "%s has data type %s", info.Path, info.DataType)
	case !info.HasNoData || info.NoData != NO_DATA_VALUE:
		return eris.Wrapf(ErrWrongTif, "%s nodata is not %d", info.Path, NO_DATA_VALUE)
	case info.ColorCount != len(ClassLegend):
		return eris.Wrapf(ErrWrongTif, "%s has %d legend colors", info.Path, info.ColorCount)
	case info.EPSG != epsg:
		return eris.Wrapf(ErrUnsupportedSrid, "%s is in %s, want %s", info.Path, epsgCode(info.EPSG), epsgCode(epsg))
	case info.Width <= 0 || info.Height <= 0:
		return eris.Wrapf(ErrEmptyTif, "%s", info.Path)
	}
	return nil
}

// 调色板中与图例配色一致的项。TIFF调色板不存透明度，读回时alpha恒为255，故只比较RGB
func LegendColors(ct gdal.ColorTable) map[uint8][4]int16 {
	ret := map[uint8][4]int16{}
	for _, cv := range ClassLegend {
		if int(cv.Code) >= len(ct.Entries) {
			continue
		}
		if e := ct.Entries[cv.Code]; SameRGB(e, ColourMap[cv.Code]) {
			ret[cv.Code] = e
		}
	}
	return ret
}

func SameRGB(a, b [4]int16) bool {
	return a[0] == b[0] && a[1] == b[1] && a[2] == b[2]
}

func stacDataType(dt gdal.DataType) string {
	switch dt {
	case gdal.Byte:
		return "uint8"
	case gdal.UInt16:
		return "uint16"
	case gdal.Int16:
		return "int16"
	case gdal.UInt32:
		return "uint32"
	case gdal.Int32:
		return "int32"
	case gdal.Float32:
		return "float32"
	case gdal.Float64:
		return "float64"
	}
	return "other"
}

func bandStats(band gdal.Band, nodata float64, hasNoData bool) (stats BandStats, err error) {
	var (
		total, valid int64
		sum          float64
		min, max     byte = 255, 0
	)
	err = scanBand(band, func(buf []byte) bool {
		total += int64(len(buf))
		for _, v := range buf {
			if hasNoData && float64(v) == nodata {
				continue
			}
			valid++
			sum += float64(v)
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		return true
	})
	if err != nil || total == 0 {
		return
	}
	if valid > 0 {
		stats.Minimum = float64(min)
		stats.Maximum = float64(max)
		stats.Mean = sum / float64(valid)
	}
	stats.ValidPercent = float64(valid) * 100 / float64(total)
	return
}
