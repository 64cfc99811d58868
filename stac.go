package landcover

import (
	"time"

	"github.com/twpayne/go-geom/encoding/geojson"
)

// STAC链接
type Link struct {
	Rel   string `json:"rel" validate:"required"`
	Href  string `json:"href" validate:"required"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// STAC资产，附带file与raster扩展字段
type Asset struct {
	Href        string       `json:"href" validate:"required"`
	Type        string       `json:"type,omitempty"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Roles       []string     `json:"roles,omitempty"`
	FileSize    int64        `json:"file:size,omitempty" validate:"omitempty,gt=0"`
	FileValues  []FileValue  `json:"file:values,omitempty" validate:"dive"`
	RasterBands []RasterBand `json:"raster:bands,omitempty" validate:"dive"`
}

// 像元值到含义的映射
type FileValue struct {
	Values  []int  `json:"values" validate:"min=1"`
	Summary string `json:"summary" validate:"required"`
}

type RasterBand struct {
	BandDescriptor
	Statistics *BandStats `json:"statistics,omitempty"`
}

type Provider struct {
	Name  string   `json:"name" validate:"required"`
	Roles []string `json:"roles,omitempty"`
	URL   string   `json:"url,omitempty" validate:"omitempty,url"`
}

// Item属性，含proj与label扩展字段
type ItemProperties struct {
	Title            string       `json:"title,omitempty"`
	Description      string       `json:"description,omitempty"`
	Datetime         *time.Time   `json:"datetime"`
	StartDatetime    time.Time    `json:"start_datetime" validate:"required"`
	EndDatetime      time.Time    `json:"end_datetime" validate:"required,gtfield=StartDatetime"`
	ProjEPSG         int          `json:"proj:epsg" validate:"required"`
	ProjWKT2         string       `json:"proj:wkt2,omitempty"`
	ProjTransform    []float64    `json:"proj:transform" validate:"len=6"`
	ProjShape        []int        `json:"proj:shape" validate:"len=2,dive,gt=0"`
	ProjBBox         []float64    `json:"proj:bbox" validate:"len=4"`
	LabelType        string       `json:"label:type" validate:"oneof=raster vector"`
	LabelTasks       []string     `json:"label:tasks,omitempty"`
	LabelProperties  []string     `json:"label:properties"`
	LabelDescription string       `json:"label:description"`
	LabelClasses     []LabelClass `json:"label:classes" validate:"min=1,dive"`
}

type LabelClass struct {
	Name    *string  `json:"name"`
	Classes []string `json:"classes" validate:"min=1"`
}

type Item struct {
	Type           string            `json:"type" validate:"eq=Feature"`
	StacVersion    string            `json:"stac_version" validate:"required"`
	StacExtensions []string          `json:"stac_extensions,omitempty"`
	ID             string            `json:"id" validate:"required"`
	Geometry       *geojson.Geometry `json:"geometry" validate:"required"`
	BBox           []float64         `json:"bbox" validate:"len=4"`
	Properties     ItemProperties    `json:"properties"`
	Links          []Link            `json:"links" validate:"dive"`
	Assets         map[string]*Asset `json:"assets" validate:"min=1,dive"`
	Collection     string            `json:"collection,omitempty"`
}

type SpatialExtent struct {
	BBox [][]float64 `json:"bbox" validate:"min=1,dive,len=4"`
}

type TemporalExtent struct {
	Interval [][]*time.Time `json:"interval" validate:"min=1"`
}

type Extent struct {
	Spatial  SpatialExtent  `json:"spatial"`
	Temporal TemporalExtent `json:"temporal"`
}

type Collection struct {
	Type           string            `json:"type" validate:"eq=Collection"`
	StacVersion    string            `json:"stac_version" validate:"required"`
	StacExtensions []string          `json:"stac_extensions,omitempty"`
	ID             string            `json:"id" validate:"required"`
	Title          string            `json:"title,omitempty"`
	Description    string            `json:"description" validate:"required"`
	Keywords       []string          `json:"keywords,omitempty"`
	License        string            `json:"license" validate:"required"`
	Providers      []Provider        `json:"providers,omitempty" validate:"dive"`
	Extent         Extent            `json:"extent"`
	Links          []Link            `json:"links" validate:"dive"`
	Assets         map[string]*Asset `json:"assets,omitempty" validate:"dive"`
}

// 按rel查找链接
func findLink(links []Link, rel string) (Link, bool) {
	for _, l := range links {
		if l.Rel == rel {
			return l, true
		}
	}
	return Link{}, false
}

func (it *Item) Link(rel string) (Link, bool) {
	return findLink(it.Links, rel)
}

func (c *Collection) Link(rel string) (Link, bool) {
	return findLink(c.Links, rel)
}
