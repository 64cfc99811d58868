package landcover

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	gdal "github.com/airbusgeo/godal"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 校验输出栅格约定
func assertCogContract(t *testing.T, path string) {
	t.Helper()
	ds, err := gdal.Open(path)
	require.NoError(t, err)
	defer ds.Close()
	st := ds.Structure()
	assert.Equal(t, 1, st.NBands)
	assert.Equal(t, gdal.Byte, st.DataType)
	band := ds.Bands()[0]
	nd, ok := band.NoData()
	assert.True(t, ok)
	assert.Equal(t, float64(NO_DATA_VALUE), nd)
	ct := band.ColorTable()
	assert.Equal(t, gdal.RGBPalette, ct.PaletteInterp)
	for _, cv := range ClassLegend {
		require.Greater(t, len(ct.Entries), int(cv.Code))
		assert.True(t, SameRGB(ColourMap[cv.Code], ct.Entries[cv.Code]), "code %d: %v", cv.Code, ct.Entries[cv.Code])
	}
	assert.Len(t, LegendColors(ct), len(ClassLegend))
}

func TestCOGPaletteReadBack(t *testing.T) {
	dir := t.TempDir()
	src := writeReferenceTif(t, dir)
	out := filepath.Join(dir, CogFileName(src))
	_, err := NewGdalToolbox().CreateCOG(src, out)
	require.NoError(t, err)

	ds, err := gdal.Open(out)
	require.NoError(t, err)
	defer ds.Close()
	ct := ds.Bands()[0].ColorTable()
	require.Greater(t, len(ct.Entries), 17)
	// Urban在配色表中半透明，写入TIFF后仅保留RGB
	urban := ct.Entries[17]
	assert.Equal(t, [3]int16{219, 33, 38}, [3]int16{urban[0], urban[1], urban[2]})
	assert.Len(t, LegendColors(ct), len(ClassLegend))

	info, err := NewGdalToolbox().ReadRasterInfo(out)
	require.NoError(t, err)
	assert.Equal(t, len(ClassLegend), info.ColorCount)
	assert.NoError(t, ValidateRasterInfo(info, LANDCOVER_EPSG))
}

func TestLegendColorsIgnoresAlpha(t *testing.T) {
	ct := colorTable()
	for i := range ct.Entries {
		ct.Entries[i][3] = 255
	}
	assert.Len(t, LegendColors(ct), len(ClassLegend))

	ct.Entries[17] = [4]int16{0, 0, 0, 255}
	colors := LegendColors(ct)
	assert.Len(t, colors, len(ClassLegend)-1)
	assert.NotContains(t, colors, uint8(17))
}

func TestCreateCOG(t *testing.T) {
	dir := t.TempDir()
	src := writeReferenceTif(t, dir)
	g := NewGdalToolbox()

	out := filepath.Join(dir, "out", CogFileName(src))
	tile, err := g.CreateCOG(src, out)
	require.NoError(t, err)
	assert.Equal(t, out, tile.Path)
	assert.Equal(t, "CanadaLandcover2015_cog.tif", filepath.Base(out))
	assert.Equal(t, 1, tile.Row)
	assert.Equal(t, 1, tile.Col)
	assert.Equal(t, Window{XSize: refCols, YSize: refRows}, tile.Window)
	assert.Equal(t, refGeoTransform, tile.Transform)
	assert.Equal(t, RasterBounds(refGeoTransform, refCols, refRows), tile.Bounds)
	assertCogContract(t, out)

	ds, err := gdal.Open(out)
	require.NoError(t, err)
	defer ds.Close()
	st := ds.Structure()
	assert.Equal(t, refCols, st.SizeX)
	assert.Equal(t, refRows, st.SizeY)
	assert.Equal(t, COG_BLOCK_SIZE, st.BlockSizeX)
	assert.NotEmpty(t, ds.Bands()[0].Overviews())

	// 不残留临时文件
	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCreateCOGIdempotent(t *testing.T) {
	dir := t.TempDir()
	src := writeReferenceTif(t, dir)
	g := NewGdalToolbox()

	out := filepath.Join(dir, CogFileName(src))
	_, err := g.CreateCOG(src, out)
	require.NoError(t, err)
	first, err := os.ReadFile(out)
	require.NoError(t, err)

	_, err = g.CreateCOG(src, out)
	require.NoError(t, err)
	second, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second))
}

func TestCreateCOGErrors(t *testing.T) {
	dir := t.TempDir()
	g := NewGdalToolbox()

	_, err := g.CreateCOG(filepath.Join(dir, "missing.tif"), filepath.Join(dir, "x_cog.tif"))
	assert.True(t, eris.Is(err, ErrInvalidTif))

	src := writeReferenceTif(t, dir)
	_, err = g.CreateCOG(src, filepath.Join(dir, "y_cog.tif"), ExpectShape(100, 100))
	assert.True(t, eris.Is(err, ErrShapeMismatch))
	assert.NoFileExists(t, filepath.Join(dir, "y_cog.tif"))

	multi := filepath.Join(dir, "rgb.tif")
	ds, err := gdal.Create(gdal.GTiff, multi, 3, gdal.Byte, 10, 10)
	require.NoError(t, err)
	require.NoError(t, ds.SetGeoTransform(refGeoTransform))
	require.NoError(t, ds.Close())
	_, err = g.CreateCOG(multi, filepath.Join(dir, "rgb_cog.tif"))
	assert.True(t, eris.Is(err, ErrWrongTif))

	// 非Byte编码不做截断，直接拒绝
	wide := filepath.Join(dir, "uint16.tif")
	ds, err = gdal.Create(gdal.GTiff, wide, 1, gdal.UInt16, 10, 10)
	require.NoError(t, err)
	require.NoError(t, ds.SetGeoTransform(refGeoTransform))
	require.NoError(t, ds.Bands()[0].Write(0, 0, make([]uint16, 100), 10, 10))
	require.NoError(t, ds.Close())
	_, err = g.CreateCOG(wide, filepath.Join(dir, "uint16_cog.tif"))
	assert.True(t, eris.Is(err, ErrWrongTif))
	assert.NoFileExists(t, filepath.Join(dir, "uint16_cog.tif"))
}

func TestCreateRetiledCOGs(t *testing.T) {
	for _, n := range []int{1, 2, 4, 6} {
		dir := t.TempDir()
		src := writeReferenceTif(t, dir)
		g := NewGdalToolbox()

		tiles, err := g.CreateRetiledCOGs(src, filepath.Join(dir, "tiles"), n)
		require.NoError(t, err)
		require.Len(t, tiles, n)

		var (
			spans = make([][4]float64, 0, n)
			area  int
		)
		for _, tile := range tiles {
			assert.FileExists(t, tile.Path)
			assert.Equal(t, TileFileName(src, tile.Row, tile.Col), filepath.Base(tile.Path))
			assertCogContract(t, tile.Path)
			spans = append(spans, tile.Bounds)
			area += tile.Window.XSize * tile.Window.YSize

			ds, err := gdal.Open(tile.Path)
			require.NoError(t, err)
			gt, err := ds.GeoTransform()
			require.NoError(t, err)
			assert.Equal(t, tile.Transform, gt)
			st := ds.Structure()
			assert.Equal(t, tile.Window.XSize, st.SizeX)
			assert.Equal(t, tile.Window.YSize, st.SizeY)
			ds.Close()
		}
		assert.Equal(t, refCols*refRows, area, "n=%d", n)
		assert.Equal(t, RasterBounds(refGeoTransform, refCols, refRows), UnionSpans(spans...), "n=%d", n)
	}
}

func TestCreateRetiledCOGsSkipEmpty(t *testing.T) {
	dir := t.TempDir()
	src := writeSourceTif(t, dir, "half.tif", refCols, refRows, leftEmptyFill(refCols))
	g := NewGdalToolbox()

	all, err := g.CreateRetiledCOGs(src, filepath.Join(dir, "all"), 2)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	kept, err := g.CreateRetiledCOGs(src, filepath.Join(dir, "kept"), 2, SkipEmptyTiles(true))
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, 2, kept[0].Col)
	assert.NoFileExists(t, filepath.Join(dir, "kept", TileFileName(src, 1, 1)))

	empty := writeSourceTif(t, dir, "empty.tif", 64, 64, func(x, y int) byte { return NO_DATA_VALUE })
	_, err = g.CreateRetiledCOGs(empty, filepath.Join(dir, "none"), 4, SkipEmptyTiles(true))
	assert.True(t, eris.Is(err, ErrEmptyTif))
}

func TestCreateRetiledCOGsWrongCount(t *testing.T) {
	dir := t.TempDir()
	src := writeReferenceTif(t, dir)
	_, err := NewGdalToolbox().CreateRetiledCOGs(src, dir, 0)
	assert.True(t, eris.Is(err, ErrWrongTileCount))
}
