package landcover

import (
	"math"

	"github.com/rotisserie/eris"
)

// 瓦片网格
type Grid struct {
	Rows   int
	Cols   int
	Width  int // 源影像宽（像素）
	Height int // 源影像高（像素）
}

// 将width*height的影像均分为n块，行列数取使单块长宽比最接近1的因数分解
func PlanGrid(width, height, n int) (grid Grid, err error) {
	if width <= 0 || height <= 0 {
		err = eris.Wrapf(ErrEmptyTif, "raster size %dx%d", width, height)
		return
	}
	if n < 1 {
		err = eris.Wrapf(ErrWrongTileCount, "requested %d tiles", n)
		return
	}
	best := math.Inf(1)
	for rows := 1; rows <= n; rows++ {
		if n%rows != 0 {
			continue
		}
		cols := n / rows
		if rows > height || cols > width {
			continue
		}
		cellW := float64(width) / float64(cols)
		cellH := float64(height) / float64(rows)
		if d := math.Abs(math.Log(cellW / cellH)); d < best {
			best = d
			grid = Grid{Rows: rows, Cols: cols, Width: width, Height: height}
		}
	}
	if grid.Rows == 0 {
		err = eris.Wrapf(ErrWrongTileCount, "%d tiles do not fit a %dx%d raster", n, width, height)
	}
	return
}

func (g Grid) Count() int {
	return g.Rows * g.Cols
}

// 第row行、第col列（均从0开始）的像素窗口，边界取整保证各窗口无缝无重叠
func (g Grid) Window(row, col int) Window {
	x0 := col * g.Width / g.Cols
	x1 := (col + 1) * g.Width / g.Cols
	y0 := row * g.Height / g.Rows
	y1 := (row + 1) * g.Height / g.Rows
	return Window{XOff: x0, YOff: y0, XSize: x1 - x0, YSize: y1 - y0}
}

// 按行优先顺序返回全部窗口
func (g Grid) Windows() []Window {
	ws := make([]Window, 0, g.Count())
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			ws = append(ws, g.Window(r, c))
		}
	}
	return ws
}
