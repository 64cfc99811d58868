package landcover

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// 不依赖GDAL构造的Item
func fakeItem(t *testing.T, dir, id string, span [4]float64) *Item {
	t.Helper()
	poly := geom.NewBounds(geom.XY).Set(span[:]...).Polygon()
	g, err := geojson.Encode(poly)
	require.NoError(t, err)
	ds := testDataset(t)
	return &Item{
		Type:        "Feature",
		StacVersion: STAC_VERSION,
		ID:          id,
		Geometry:    g,
		BBox:        span[:],
		Properties: ItemProperties{
			StartDatetime: ds.Start,
			EndDatetime:   ds.End,
			ProjEPSG:      LANDCOVER_EPSG,
			ProjTransform: []float64{30, 0, 0, 0, -30, 0},
			ProjShape:     []int{10, 10},
			ProjBBox:      []float64{0, -300, 300, 0},
			LabelType:     "raster",
			LabelClasses:  []LabelClass{{Classes: legendNames()}},
		},
		Links: []Link{licenseLink()},
		Assets: map[string]*Asset{
			ASSET_LANDCOVER: {Href: filepath.Join(dir, id+COG_SUFFIX+FILE_EXT_TIF), Type: MEDIA_TYPE_COG, FileSize: 100},
			ASSET_METADATA:  {Href: JSONLD_HREF, Type: MEDIA_TYPE_JSONLD},
		},
	}
}

func readDoc(t *testing.T, fs afero.Fs, path string) map[string]any {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func linkHrefs(doc map[string]any) map[string]string {
	ret := map[string]string{}
	for _, l := range doc["links"].([]any) {
		m := l.(map[string]any)
		rel := m["rel"].(string)
		if _, ok := ret[rel]; !ok {
			ret[rel] = m["href"].(string)
		}
	}
	return ret
}

func TestSaveCatalog(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "/catalog"
	items := []*Item{
		fakeItem(t, dir, "a", [4]float64{-100, 50, -99, 51}),
		fakeItem(t, dir, "b", [4]float64{-99, 50, -98, 51}),
	}
	col, err := CreateCollection(testDataset(t), items)
	require.NoError(t, err)

	require.NoError(t, SaveCatalog(fs, dir, col, items))

	colDoc := readDoc(t, fs, filepath.Join(dir, COLLECTION_FILE))
	hrefs := linkHrefs(colDoc)
	assert.Equal(t, "./collection.json", hrefs["root"])
	assert.Equal(t, "./collection.json", hrefs["self"])
	assert.Equal(t, LICENSE_HREF, hrefs["license"])
	assert.Equal(t, ItemHref("a"), hrefs["item"])

	itemDoc := readDoc(t, fs, filepath.Join(dir, "a", "a.json"))
	hrefs = linkHrefs(itemDoc)
	assert.Equal(t, "../collection.json", hrefs["root"])
	assert.Equal(t, "../collection.json", hrefs["parent"])
	assert.Equal(t, "../collection.json", hrefs["collection"])
	assert.Equal(t, "./a.json", hrefs["self"])
	assert.Equal(t, col.ID, itemDoc["collection"])
	assets := itemDoc["assets"].(map[string]any)
	assert.Equal(t, "../a_cog.tif", assets[ASSET_LANDCOVER].(map[string]any)["href"])
	assert.Equal(t, JSONLD_HREF, assets[ASSET_METADATA].(map[string]any)["href"])

	// 输入文档不被修改
	assert.Equal(t, filepath.Join(dir, "a_cog.tif"), items[0].Assets[ASSET_LANDCOVER].Href)
	assert.Len(t, items[0].Links, 1)

	// 无临时文件残留
	entries, err := afero.ReadDir(fs, dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"a", "b", COLLECTION_FILE}, names)
}

func TestSaveCatalogIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "/catalog"
	items := []*Item{fakeItem(t, dir, "a", [4]float64{-100, 50, -99, 51})}
	col, err := CreateCollection(testDataset(t), items)
	require.NoError(t, err)

	require.NoError(t, SaveCatalog(fs, dir, col, items))
	first, err := afero.ReadFile(fs, filepath.Join(dir, "a", "a.json"))
	require.NoError(t, err)
	require.NoError(t, SaveCatalog(fs, dir, col, items))
	second, err := afero.ReadFile(fs, filepath.Join(dir, "a", "a.json"))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestSaveCatalogRejectsInvalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "/catalog"
	items := []*Item{fakeItem(t, dir, "a", [4]float64{-100, 50, -99, 51})}
	col, err := CreateCollection(testDataset(t), items)
	require.NoError(t, err)

	orphan := fakeItem(t, dir, "orphan", [4]float64{-100, 50, -99, 51})
	err = SaveCatalog(fs, dir, col, []*Item{orphan})
	assert.True(t, eris.Is(err, ErrInvalidDocument))

	items[0].Properties.ProjShape = []int{10}
	err = SaveCatalog(fs, dir, col, items)
	assert.True(t, eris.Is(err, ErrInvalidDocument))
	exists, _ := afero.Exists(fs, filepath.Join(dir, COLLECTION_FILE))
	assert.False(t, exists)

	assert.True(t, eris.Is(SaveCatalog(fs, dir, col, nil), ErrNoTiles))
}

func TestSaveItem(t *testing.T) {
	fs := afero.NewMemMapFs()
	it := fakeItem(t, "/data", "a", [4]float64{-100, 50, -99, 51})
	path, err := SaveItem(fs, "/out", it)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", "a.json"), path)
	doc := readDoc(t, fs, path)
	assets := doc["assets"].(map[string]any)
	assert.Equal(t, "../data/a_cog.tif", assets[ASSET_LANDCOVER].(map[string]any)["href"])
}

func TestRelativeHref(t *testing.T) {
	assert.Equal(t, "./x.tif", relativeHref("/a/x.tif", "/a"))
	assert.Equal(t, "../x.tif", relativeHref("/a/x.tif", "/a/b"))
	assert.Equal(t, "https://h/x.tif", relativeHref("https://h/x.tif", "/a"))
	assert.Equal(t, "x.tif", relativeHref("x.tif", "/a"))
}

func TestSaveCatalogWritesNothingOnInvalidItem(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "/catalog"
	items := []*Item{
		fakeItem(t, dir, "a", [4]float64{-100, 50, -99, 51}),
		fakeItem(t, dir, "b", [4]float64{-99, 50, -98, 51}),
	}
	col, err := CreateCollection(testDataset(t), items)
	require.NoError(t, err)
	md, err := ParseMetadata([]byte(sampleJSONLD))
	require.NoError(t, err)

	items[1].Properties.ProjShape = []int{0, 0}
	err = SaveCatalog(fs, dir, col, items, WithExtent(md.Geometry))
	assert.True(t, eris.Is(err, ErrInvalidDocument))

	for _, p := range []string{
		filepath.Join(dir, "a", "a.json"),
		filepath.Join(dir, "b", "b.json"),
		filepath.Join(dir, EXTENT_FILE),
		filepath.Join(dir, COLLECTION_FILE),
	} {
		exists, err := afero.Exists(fs, p)
		require.NoError(t, err)
		assert.False(t, exists, p)
	}
}

func TestSaveCatalogWithExtent(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "/catalog"
	items := []*Item{fakeItem(t, dir, "a", [4]float64{-100, 50, -99, 51})}
	col, err := CreateCollection(testDataset(t), items)
	require.NoError(t, err)
	md, err := ParseMetadata([]byte(sampleJSONLD))
	require.NoError(t, err)

	require.NoError(t, SaveCatalog(fs, dir, col, items, WithExtent(md.Geometry)))

	exists, err := afero.Exists(fs, filepath.Join(dir, EXTENT_FILE))
	require.NoError(t, err)
	assert.True(t, exists)
	colDoc := readDoc(t, fs, filepath.Join(dir, COLLECTION_FILE))
	assets := colDoc["assets"].(map[string]any)
	assert.Equal(t, "./"+EXTENT_FILE, assets[ASSET_EXTENT].(map[string]any)["href"])
	assert.Equal(t, JSONLD_HREF, assets[ASSET_METADATA].(map[string]any)["href"])
	// 输入Collection不被修改
	assert.NotContains(t, col.Assets, ASSET_EXTENT)
}
