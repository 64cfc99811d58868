package landcover

import "time"

// 地类图例项
type ClassValue struct {
	Code  uint8
	Label string
}

// 波段固定描述（对应STAC raster:bands）
type BandDescriptor struct {
	NoData            float64 `json:"nodata"`
	Sampling          string  `json:"sampling"`
	DataType          string  `json:"data_type"`
	SpatialResolution float64 `json:"spatial_resolution"`
}

// 输出COG瓦片
type Tile struct {
	Path      string     `json:"path"`
	Row       int        `json:"row"` // 网格行号，从1开始
	Col       int        `json:"col"` // 网格列号，从1开始
	Window    Window     `json:"window"`
	Transform [6]float64 `json:"transform"` // GDAL仿射变换
	Bounds    [4]float64 `json:"bounds"`    // 投影坐标范围 [minx,miny,maxx,maxy]
}

// 像素窗口
type Window struct {
	XOff  int `json:"x_off"`
	YOff  int `json:"y_off"`
	XSize int `json:"x_size"`
	YSize int `json:"y_size"`
}

// 数据集全局属性
type Dataset struct {
	ID          string
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	License     string
	MetadataURL string
	EPSG        int
	Resolution  float64
}

// 栅格文件信息
type RasterInfo struct {
	Path       string
	Size       int64
	Width      int
	Height     int
	BandCount  int
	DataType   string
	NoData     float64
	HasNoData  bool
	ColorCount int
	EPSG       int
	WKT        string
	Transform  [6]float64
	Stats      BandStats
}

// 波段统计（不含无数据像元）
type BandStats struct {
	Minimum      float64 `json:"minimum"`
	Maximum      float64 `json:"maximum"`
	Mean         float64 `json:"mean"`
	ValidPercent float64 `json:"valid_percent"`
}
