package landcover

import "github.com/rotisserie/eris"

var (
	ErrInvalidTif       = eris.New("invalid tif")
	ErrWrongTif         = eris.New("tif is malformed")
	ErrTifReadFailed    = eris.New("tif read failed")
	ErrShapeMismatch    = eris.New("raster shape mismatch")
	ErrVoidSrid         = eris.New("raster with void srid")
	ErrUnsupportedSrid  = eris.New("raster with unsupported srid")
	ErrEmptyTif         = eris.New("empty tif")
	ErrEmptyOutput      = eris.New("zero-size output")
	ErrWrongTileCount   = eris.New("wrong tile count")
	ErrMissingTile      = eris.New("tile does not exist")
	ErrNotTif           = eris.New("tile is not a tif")
	ErrNoTiles          = eris.New("no tiles to assemble")
	ErrWrongMetadata    = eris.New("wrong dataset metadata")
	ErrUnsupportedInput = eris.New("only JSON-LD metadata is supported")
	ErrInvalidDocument  = eris.New("invalid stac document")
)
