package landcover

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/wgdzlh/landcover/log"
	"github.com/wgdzlh/landcover/utils"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

const (
	ASSET_LANDCOVER = "landcover"
	ASSET_METADATA  = "metadata"
	ASSET_EXTENT    = "extent"

	resolutionTolerance = 1e-6
)

var tileSuffix = regexp.MustCompile(`_(\d+)_(\d+)` + COG_SUFFIX + `$`)

// Item ID：单张COG沿用数据集ID，切片COG追加行列号
func ItemID(path, datasetID string) string {
	base := utils.GetFilenameWithoutExt(path)
	if m := tileSuffix.FindStringSubmatch(base); m != nil {
		return datasetID + "-" + m[1] + "-" + m[2]
	}
	return datasetID
}

// 为单个COG生成STAC Item
func (g *GdalToolbox) CreateItem(path string, ds Dataset) (item *Item, err error) {
	info, err := g.ReadRasterInfo(path)
	if err != nil {
		return
	}
	href, err := filepath.Abs(path)
	if err != nil {
		err = eris.Wrapf(err, "resolve %s", path)
		return
	}
	if err = ValidateRasterInfo(info, ds.EPSG); err != nil {
		return
	}
	if ds.Resolution > 0 && (!almostEqual(info.Transform[1], ds.Resolution, resolutionTolerance) ||
		!almostEqual(-info.Transform[5], ds.Resolution, resolutionTolerance)) {
		err = eris.Wrapf(ErrWrongTif, "%s has pixel size %gx%g, want %g", path, info.Transform[1], -info.Transform[5], ds.Resolution)
		return
	}
	footprint, err := g.Footprint(info.Transform, info.Width, info.Height, info.EPSG)
	if err != nil {
		err = eris.Wrapf(err, "footprint of %s", path)
		return
	}
	geometry, err := geojson.Encode(footprint)
	if err != nil {
		err = eris.Wrapf(err, "encode footprint of %s", path)
		return
	}
	bbox := BoundsToSpan(footprint.Bounds())
	projBBox := RasterBounds(info.Transform, info.Width, info.Height)
	affine := AffineFromGeoTransform(info.Transform)
	stats := info.Stats
	datetime := ds.Start
	item = &Item{
		Type:           "Feature",
		StacVersion:    STAC_VERSION,
		StacExtensions: ItemExtensions,
		ID:             ItemID(path, ds.ID),
		Geometry:       geometry,
		BBox:           bbox[:],
		Properties: ItemProperties{
			Title:            ds.Title,
			Description:      ds.Description,
			Datetime:         &datetime,
			StartDatetime:    ds.Start,
			EndDatetime:      ds.End,
			ProjEPSG:         info.EPSG,
			ProjWKT2:         info.WKT,
			ProjTransform:    affine[:],
			ProjShape:        []int{info.Height, info.Width},
			ProjBBox:         projBBox[:],
			LabelType:        "raster",
			LabelTasks:       []string{"classification"},
			LabelDescription: "",
			LabelClasses:     []LabelClass{{Classes: legendNames()}},
		},
		Links: []Link{licenseLink()},
		Assets: map[string]*Asset{
			ASSET_LANDCOVER: {
				Href:        href,
				Type:        MEDIA_TYPE_COG,
				Title:       ds.Title,
				Roles:       []string{"data", "labels", "labels-raster"},
				FileSize:    info.Size,
				FileValues:  legendFileValues(),
				RasterBands: []RasterBand{{BandDescriptor: LandcoverBand, Statistics: &stats}},
			},
		},
	}
	if a := metadataAsset(ds); a != nil {
		item.Assets[ASSET_METADATA] = a
	}
	log.Debug(g.logTag+"item footprint", zap.String("id", item.ID), zap.String("bbox", SpanToWkt(bbox)))
	log.Info(g.logTag+"item created", zap.String("id", item.ID), zap.String("path", path))
	return
}

// 为全部COG生成Item，任一文件缺失或不合规即失败
func (g *GdalToolbox) CreateItems(paths []string, ds Dataset) (items []*Item, err error) {
	if len(paths) == 0 {
		err = ErrNoTiles
		return
	}
	seen := map[string]string{}
	items = make([]*Item, 0, len(paths))
	for _, p := range paths {
		var item *Item
		if item, err = g.CreateItem(p, ds); err != nil {
			items = nil
			return
		}
		if prev, ok := seen[item.ID]; ok {
			items = nil
			err = eris.Wrapf(ErrInvalidDocument, "item id %s shared by %s and %s", item.ID, prev, p)
			return
		}
		seen[item.ID] = p
		items = append(items, item)
	}
	return
}

// 生成汇总Collection：空间范围为各Item范围并集，时间范围取数据集起止
func CreateCollection(ds Dataset, items []*Item) (col *Collection, err error) {
	if len(items) == 0 {
		err = ErrNoTiles
		return
	}
	spans := make([][4]float64, 0, len(items))
	for _, it := range items {
		if len(it.BBox) != 4 {
			err = eris.Wrapf(ErrInvalidDocument, "item %s bbox %v", it.ID, it.BBox)
			return
		}
		spans = append(spans, [4]float64{it.BBox[0], it.BBox[1], it.BBox[2], it.BBox[3]})
	}
	union := UnionSpans(spans...)
	start, end := ds.Start, ds.End
	col = &Collection{
		Type:           "Collection",
		StacVersion:    STAC_VERSION,
		StacExtensions: []string{ExtLabel},
		ID:             LANDCOVER_ID,
		Title:          LANDCOVER_TITLE,
		Description:    DESCRIPTION,
		Keywords:       []string{"Land Cover", "Remote Sensing", "Landsat", "North America", "Canada"},
		License:        ds.License,
		Providers: []Provider{{
			Name:  PROVIDER_NAME,
			Roles: []string{"producer", "processor", "host"},
			URL:   PROVIDER_URL,
		}},
		Extent: Extent{
			Spatial:  SpatialExtent{BBox: [][]float64{union[:]}},
			Temporal: TemporalExtent{Interval: [][]*time.Time{{&start, &end}}},
		},
		Links: []Link{licenseLink()},
	}
	if a := metadataAsset(ds); a != nil {
		col.Assets = map[string]*Asset{ASSET_METADATA: a}
	}
	for _, it := range items {
		it.Collection = col.ID
		col.Links = append(col.Links, Link{Rel: "item", Href: ItemHref(it.ID), Type: MEDIA_TYPE_JSON})
	}
	return
}

func legendNames() []string {
	names := make([]string, len(ClassLegend))
	for i, cv := range ClassLegend {
		names[i] = cv.Label
	}
	return names
}

func legendFileValues() []FileValue {
	vs := make([]FileValue, len(ClassLegend))
	for i, cv := range ClassLegend {
		vs[i] = FileValue{Values: []int{int(cv.Code)}, Summary: cv.Label}
	}
	return vs
}

func licenseLink() Link {
	return Link{Rel: "license", Href: LICENSE_HREF, Title: LICENSE_TITLE}
}

func metadataAsset(ds Dataset) *Asset {
	if strings.TrimSpace(ds.MetadataURL) == "" {
		return nil
	}
	return &Asset{
		Href:  ds.MetadataURL,
		Type:  MEDIA_TYPE_JSONLD,
		Title: LANDCOVER_TITLE + " Metadata",
		Roles: []string{"metadata"},
	}
}
