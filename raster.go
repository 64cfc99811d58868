package landcover

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/wgdzlh/landcover/log"
	"github.com/wgdzlh/landcover/utils"

	gdal "github.com/airbusgeo/godal"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

func init() {
	gdal.RegisterAll()
}

type cogOpts struct {
	blockSize int
	level     int
	skipEmpty bool
	shape     [2]int // [rows,cols]，为零时不校验
}

type CogOption func(o *cogOpts)

// COG内部分块大小
func BlockSize(size int) CogOption {
	return func(o *cogOpts) {
		if size > 0 {
			o.blockSize = size
		}
	}
}

// DEFLATE压缩级别
func DeflateLevel(level int) CogOption {
	return func(o *cogOpts) {
		if level > 0 {
			o.level = level
		}
	}
}

// 跳过全为无数据值的瓦片
func SkipEmptyTiles(skip bool) CogOption {
	return func(o *cogOpts) {
		o.skipEmpty = skip
	}
}

// 校验源影像行列数
func ExpectShape(rows, cols int) CogOption {
	return func(o *cogOpts) {
		o.shape = [2]int{rows, cols}
	}
}

func newCogOpts(opts []CogOption) cogOpts {
	o := cogOpts{
		blockSize: COG_BLOCK_SIZE,
		level:     COG_DEFLATE_LEVEL,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// 输入影像对应的COG文件名
func CogFileName(input string) string {
	return utils.GetFilenameWithoutExt(input) + COG_SUFFIX + FILE_EXT_TIF
}

// 切片COG文件名，行列号从1开始
func TileFileName(input string, row, col int) string {
	return fmt.Sprintf("%s_%d_%d%s%s", utils.GetFilenameWithoutExt(input), row, col, COG_SUFFIX, FILE_EXT_TIF)
}

// 将单张地类Tif转为COG
func (g *GdalToolbox) CreateCOG(input, output string, opts ...CogOption) (tile Tile, err error) {
	o := newCogOpts(opts)
	sds, err := g.openSource(input, o)
	if err != nil {
		return
	}
	defer sds.Close()
	st := sds.Structure()
	log.Info(g.logTag+"create cog", zap.String("input", input), zap.String("output", output),
		zap.Int("width", st.SizeX), zap.Int("height", st.SizeY))
	if err = os.MkdirAll(filepath.Dir(output), os.ModePerm); err != nil {
		err = eris.Wrapf(err, "create output dir for %s", output)
		return
	}
	tile, _, err = g.writeWindow(sds, Window{XSize: st.SizeX, YSize: st.SizeY}, output, cogOpts{
		blockSize: o.blockSize,
		level:     o.level,
	})
	if err != nil {
		return
	}
	tile.Row, tile.Col = 1, 1
	return
}

// 将地类Tif按n块网格切分，并分别转为COG
func (g *GdalToolbox) CreateRetiledCOGs(input, outDir string, n int, opts ...CogOption) (tiles []Tile, err error) {
	o := newCogOpts(opts)
	sds, err := g.openSource(input, o)
	if err != nil {
		return
	}
	defer sds.Close()
	st := sds.Structure()
	grid, err := PlanGrid(st.SizeX, st.SizeY, n)
	if err != nil {
		err = eris.Wrapf(err, "plan grid for %s", input)
		return
	}
	if err = os.MkdirAll(outDir, os.ModePerm); err != nil {
		err = eris.Wrapf(err, "create output dir %s", outDir)
		return
	}
	log.Info(g.logTag+"retile tif", zap.String("input", input), zap.String("outDir", outDir),
		zap.Int("rows", grid.Rows), zap.Int("cols", grid.Cols))
	var (
		tile    Tile
		skipped bool
	)
	for r := 0; r < grid.Rows; r++ {
		for c := 0; c < grid.Cols; c++ {
			out := filepath.Join(outDir, TileFileName(input, r+1, c+1))
			if tile, skipped, err = g.writeWindow(sds, grid.Window(r, c), out, o); err != nil {
				return
			}
			if skipped {
				log.Debug(g.logTag+"ignoring empty tile", zap.Int("row", r+1), zap.Int("col", c+1))
				continue
			}
			tile.Row, tile.Col = r+1, c+1
			tiles = append(tiles, tile)
		}
	}
	if len(tiles) == 0 {
		err = eris.Wrapf(ErrEmptyTif, "no tile of %s contains data", input)
	}
	return
}

func (g *GdalToolbox) openSource(input string, o cogOpts) (sds *gdal.Dataset, err error) {
	if _, e := os.Stat(input); e != nil {
		err = eris.Wrapf(ErrInvalidTif, "source %s: %v", input, e)
		return
	}
	sds, err = gdal.Open(input, gdal.RasterOnly())
	if err != nil {
		log.Error(g.logTag+"open tif failed", zap.String("input", input), zap.Error(err))
		err = eris.Wrapf(ErrInvalidTif, "open source %s: %v", input, err)
		return
	}
	st := sds.Structure()
	switch {
	case st.NBands != 1:
		err = eris.Wrapf(ErrWrongTif, "source %s has %d bands", input, st.NBands)
	case st.DataType != gdal.Byte:
		err = eris.Wrapf(ErrWrongTif, "source %s has data type %s, want uint8", input, stacDataType(st.DataType))
	case st.SizeX == 0 || st.SizeY == 0:
		err = eris.Wrapf(ErrEmptyTif, "source %s", input)
	case o.shape != [2]int{} && (st.SizeY != o.shape[0] || st.SizeX != o.shape[1]):
		err = eris.Wrapf(ErrShapeMismatch, "source %s is %dx%d, want %dx%d", input, st.SizeY, st.SizeX, o.shape[0], o.shape[1])
	}
	if err == nil {
		if _, e := sds.GeoTransform(); e != nil {
			err = eris.Wrapf(ErrWrongTif, "source %s has no geotransform: %v", input, e)
		}
	}
	if err != nil {
		sds.Close()
		sds = nil
	}
	return
}

// 按像素窗口裁剪到内存，再定稿为COG；裁剪不重采样，瓦片接缝处无损
func (g *GdalToolbox) writeWindow(sds *gdal.Dataset, win Window, output string, o cogOpts) (tile Tile, skipped bool, err error) {
	mds, err := sds.Translate("", srcWinSwitches(win.XOff, win.YOff, win.XSize, win.YSize))
	if err != nil {
		log.Error(g.logTag+"failed to crop raster", zap.String("output", output), zap.Error(err))
		err = eris.Wrapf(err, "crop window %+v for %s", win, output)
		return
	}
	defer mds.Close()
	if o.skipEmpty {
		var hasData bool
		if hasData, err = rasterHasData(mds); err != nil {
			err = eris.Wrapf(err, "scan window %+v for %s", win, output)
			return
		}
		if !hasData {
			skipped = true
			return
		}
	}
	if err = g.finalizeCOG(mds, output, o); err != nil {
		return
	}
	gt, err := sds.GeoTransform()
	if err != nil {
		err = eris.Wrapf(ErrWrongTif, "geotransform for %s: %v", output, err)
		return
	}
	tgt := WindowGeoTransform(gt, win)
	tile = Tile{
		Path:      output,
		Window:    win,
		Transform: tgt,
		Bounds:    RasterBounds(tgt, win.XSize, win.YSize),
	}
	return
}

// 定稿：先在内存影像上设置调色板与无数据值，再生成COG（含金字塔）。
// 调色板必须先于COG转换设置，否则金字塔会按CUBIC而非NEAREST重采样，破坏地类编码。
// 结果先写入临时文件，确认非空后再改名为正式文件。
func (g *GdalToolbox) finalizeCOG(mds *gdal.Dataset, output string, o cogOpts) (err error) {
	bands := mds.Bands()
	if len(bands) != 1 {
		return eris.Wrapf(ErrWrongTif, "%d bands for %s", len(bands), output)
	}
	band := bands[0]
	if err = band.SetColorTable(colorTable()); err != nil {
		return eris.Wrapf(err, "set color table for %s", output)
	}
	if err = band.SetNoData(NO_DATA_VALUE); err != nil {
		return eris.Wrapf(err, "set nodata for %s", output)
	}
	tmp := tmpPath(output, TMP_TIF)
	defer os.Remove(tmp)
	ods, err := mds.Translate(tmp, cogSwitches(o.blockSize, o.level))
	if err != nil {
		log.Error(g.logTag+"failed to translate cog", zap.String("output", output), zap.Error(err))
		return eris.Wrapf(err, "write cog %s", output)
	}
	if err = ods.Close(); err != nil {
		return eris.Wrapf(err, "close cog %s", output)
	}
	fi, err := os.Stat(tmp)
	if err != nil {
		return eris.Wrapf(err, "stat cog %s", output)
	}
	if fi.Size() == 0 {
		return eris.Wrapf(ErrEmptyOutput, "cog %s", output)
	}
	if err = os.Rename(tmp, output); err != nil {
		return eris.Wrapf(err, "publish cog %s", output)
	}
	log.Info(g.logTag+"cog written", zap.String("output", output), zap.Int64("size", fi.Size()))
	return
}

// 与正式文件同目录的临时文件名，保证改名为原子操作
func tmpPath(output, tmpl string) string {
	return filepath.Join(filepath.Dir(output), "."+filepath.Base(output)+fmt.Sprintf(tmpl, uuid.NewString()))
}

// 影像是否含有效（非无数据值）像元
func rasterHasData(ds *gdal.Dataset) (hasData bool, err error) {
	err = scanBand(ds.Bands()[0], func(buf []byte) bool {
		for _, v := range buf {
			if v != NO_DATA_VALUE {
				hasData = true
				return false
			}
		}
		return true
	})
	return
}

// 按块读取uint8波段，fn返回false时提前结束
func scanBand(band gdal.Band, fn func(buf []byte) bool) error {
	st := band.Structure()
	if st.SizeX == 0 || st.SizeY == 0 {
		return nil
	}
	if st.BlockSizeX <= 0 || st.BlockSizeY <= 0 {
		st.BlockSizeX, st.BlockSizeY = st.SizeX, 1
	}
	buf := make([]byte, st.BlockSizeX*st.BlockSizeY)
	for bl, ok := st.FirstBlock(), true; ok; bl, ok = bl.Next() {
		b := buf[:bl.W*bl.H]
		if err := band.Read(bl.X0, bl.Y0, b, bl.W, bl.H); err != nil {
			return eris.Wrapf(ErrTifReadFailed, "block at %d,%d: %v", bl.X0, bl.Y0, err)
		}
		if !fn(b) {
			return nil
		}
	}
	return nil
}
