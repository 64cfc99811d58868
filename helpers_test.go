package landcover

import (
	"path/filepath"
	"testing"

	gdal "github.com/airbusgeo/godal"
	"github.com/stretchr/testify/require"
)

const (
	refRows = 367
	refCols = 652
)

// 参考影像左上角（EPSG:3978，位于加拿大中部）
var refGeoTransform = [6]float64{-500000, LANDCOVER_RES, 0, 800000, 0, -LANDCOVER_RES}

// 按fill生成单波段uint8 GeoTIFF
func writeSourceTif(t *testing.T, dir, name string, width, height int, fill func(x, y int) byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	ds, err := gdal.Create(gdal.GTiff, path, 1, gdal.Byte, width, height)
	require.NoError(t, err)
	require.NoError(t, ds.SetGeoTransform(refGeoTransform))
	sr, err := gdal.NewSpatialRefFromEPSG(LANDCOVER_EPSG)
	require.NoError(t, err)
	defer sr.Close()
	require.NoError(t, ds.SetSpatialRef(sr))
	buf := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			buf[y*width+x] = fill(x, y)
		}
	}
	require.NoError(t, ds.Bands()[0].Write(0, 0, buf, width, height))
	require.NoError(t, ds.Close())
	return path
}

// 按图例编码循环填充
func legendFill(x, y int) byte {
	return ClassLegend[(x/16+y/16)%len(ClassLegend)].Code
}

// 左半部分为无数据值
func leftEmptyFill(width int) func(x, y int) byte {
	return func(x, y int) byte {
		if x < width/2 {
			return NO_DATA_VALUE
		}
		return legendFill(x, y)
	}
}

func writeReferenceTif(t *testing.T, dir string) string {
	return writeSourceTif(t, dir, "CanadaLandcover2015.tif", refCols, refRows, legendFill)
}

func testDataset(t *testing.T) Dataset {
	t.Helper()
	ds, err := NewDataset("2015 Land Cover of Canada", "", JSONLD_HREF)
	require.NoError(t, err)
	return ds
}
