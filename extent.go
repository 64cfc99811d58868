package landcover

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

const EXTENT_FILE = "extent.geojson"

// 写出数据集范围（单要素FeatureCollection）
func WriteExtentAsset(fs afero.Fs, path string, geometry geom.T) error {
	data, err := encodeExtent(geometry)
	if err != nil {
		return eris.Wrapf(err, "extent %s", path)
	}
	return writeFileAtomic(fs, path, data)
}

func encodeExtent(geometry geom.T) ([]byte, error) {
	if geometry == nil {
		return nil, eris.Wrap(ErrWrongMetadata, "no geometry")
	}
	fc := geojson.FeatureCollection{
		Features: []*geojson.Feature{{
			Geometry:   geometry,
			Properties: map[string]interface{}{},
		}},
	}
	data, err := json.Marshal(&fc)
	if err != nil {
		return nil, eris.Wrap(err, "encode extent")
	}
	return append(data, '\n'), nil
}

func ExtentAsset(href string) *Asset {
	return &Asset{
		Href:  href,
		Type:  MEDIA_TYPE_GEOJSON,
		Title: "Land cover of Canada extent",
		Roles: []string{"metadata"},
	}
}
