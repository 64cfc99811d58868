package landcover

import (
	"strconv"
	"strings"
	"time"

	"github.com/wgdzlh/landcover/utils"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// JSON-LD中的关键字需转义，否则会被gjson当作修饰符
const (
	ldGraph    = `\@graph`
	ldId       = `\@id`
	ldType     = `\@type`
	ldValue    = `\@value`
	ldLanguage = `\@language`

	ldLangEn = "en"
)

// 数据集元数据（取自NRCan发布的JSON-LD）
type DatasetMetadata struct {
	Title       string
	AccessURL   string // TIFF资源包（zip）地址
	Description string
	Geometry    geom.T
}

// 解析JSON-LD元数据
func ParseMetadata(data []byte) (md DatasetMetadata, err error) {
	if !gjson.ValidBytes(data) {
		err = eris.Wrap(ErrWrongMetadata, "not a json document")
		return
	}
	graph := gjson.GetBytes(data, ldGraph)
	if !graph.IsArray() {
		err = eris.Wrap(ErrWrongMetadata, "missing @graph")
		return
	}
	var tiff, geoNode, descNode gjson.Result
	graph.ForEach(func(_, node gjson.Result) bool {
		if !tiff.Exists() && ldLiteral(node.Get("dct:format")) == "TIFF" {
			tiff = node
		}
		if !geoNode.Exists() && node.Get("locn:geometry").Exists() {
			geoNode = node.Get("locn:geometry")
		}
		if !descNode.Exists() && node.Get("dct:description").Exists() {
			descNode = node.Get("dct:description")
		}
		return !tiff.Exists() || !geoNode.Exists() || !descNode.Exists()
	})
	if !tiff.Exists() {
		err = eris.Wrap(ErrWrongMetadata, "no TIFF distribution")
		return
	}
	if md.Title = ldLiteral(tiff.Get("dct:title")); md.Title == "" {
		err = eris.Wrap(ErrWrongMetadata, "TIFF distribution without title")
		return
	}
	md.AccessURL = tiff.Get("dcat:accessURL." + ldId).String()
	if md.AccessURL == "" {
		md.AccessURL = ldLiteral(tiff.Get("dcat:accessURL"))
	}
	md.Description = ldLiteral(descNode)
	if geoNode.Exists() {
		if md.Geometry, err = parseGeoJSONLiteral(geoNode); err != nil {
			return
		}
	}
	return
}

// 取JSON-LD字面量：字符串、{"@value"}，或多语言数组中的英文项
func ldLiteral(r gjson.Result) string {
	switch {
	case r.Type == gjson.String:
		return r.String()
	case r.IsArray():
		var first string
		for _, v := range r.Array() {
			s := ldLiteral(v)
			if v.Get(ldLanguage).String() == ldLangEn {
				return s
			}
			if first == "" {
				first = s
			}
		}
		return first
	case r.IsObject():
		return r.Get(ldValue).String()
	}
	return ""
}

func parseGeoJSONLiteral(node gjson.Result) (g geom.T, err error) {
	var raw string
	for _, v := range node.Array() {
		if strings.Contains(v.Get(ldType).String(), "geo+json") {
			raw = v.Get(ldValue).String()
			break
		}
	}
	if raw == "" {
		err = eris.Wrap(ErrWrongMetadata, "no geojson geometry")
		return
	}
	if err = geojson.Unmarshal([]byte(raw), &g); err != nil {
		err = eris.Wrapf(ErrWrongMetadata, "decode geometry: %v", err)
	}
	return
}

// 由标题等生成数据集属性：起始为标题年份1月1日，跨度5年
func NewDataset(title, description, metadataURL string) (ds Dataset, err error) {
	year := utils.LeadingYear(title)
	if year == "" {
		err = eris.Wrapf(ErrWrongMetadata, "no year in title %q", title)
		return
	}
	y, _ := strconv.Atoi(year)
	id, err := utils.ToASCIIID(title)
	if err != nil || id == "" {
		err = eris.Wrapf(ErrWrongMetadata, "no id from title %q", title)
		return
	}
	if description == "" {
		description = DESCRIPTION
	}
	ds = Dataset{
		ID:          id,
		Title:       title,
		Description: description,
		Start:       time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC),
		License:     LICENSE,
		MetadataURL: metadataURL,
		EPSG:        LANDCOVER_EPSG,
		Resolution:  LANDCOVER_RES,
	}
	ds.End = ds.Start.AddDate(DATASET_SPAN_YEARS, 0, 0)
	return
}

func DatasetFromMetadata(md DatasetMetadata, metadataURL string) (Dataset, error) {
	return NewDataset(md.Title, md.Description, metadataURL)
}
