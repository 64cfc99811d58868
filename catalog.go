package landcover

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/wgdzlh/landcover/log"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

var validate = validator.New()

// Collection下Item文档的相对路径
func ItemHref(id string) string {
	return "./" + id + "/" + id + FILE_EXT_JSON
}

// 校验STAC文档
func ValidateDocument(doc any) error {
	if err := validate.Struct(doc); err != nil {
		return eris.Wrapf(ErrInvalidDocument, "%v", err)
	}
	return nil
}

type catalogOpts struct {
	extent geom.T
}

type CatalogOption func(o *catalogOpts)

// 同时写出数据集范围extent.geojson，并作为Collection资产引用
func WithExtent(geometry geom.T) CatalogOption {
	return func(o *catalogOpts) {
		o.extent = geometry
	}
}

type pendingFile struct {
	path string
	data []byte
}

// 写出Collection及其全部Item，所有链接与资产路径均为相对路径。
// 全部文档先编码并校验，任一不合规则不写任何文件；Collection最后写出
func SaveCatalog(fs afero.Fs, dir string, col *Collection, items []*Item, opts ...CatalogOption) (err error) {
	if len(items) == 0 {
		return ErrNoTiles
	}
	var o catalogOpts
	for _, opt := range opts {
		opt(&o)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return eris.Wrapf(err, "resolve catalog dir %s", dir)
	}
	pending := make([]pendingFile, 0, len(items)+2)
	for _, it := range items {
		if !hasItemLink(col, it.ID) {
			return eris.Wrapf(ErrInvalidDocument, "collection %s does not reference item %s", col.ID, it.ID)
		}
		itemDir := filepath.Join(absDir, it.ID)
		out := *it
		out.Collection = col.ID
		out.Links = relink(it.Links, "../"+COLLECTION_FILE, "./"+it.ID+FILE_EXT_JSON, "../"+COLLECTION_FILE)
		out.Assets = relativeAssets(it.Assets, itemDir)
		if err = ValidateDocument(&out); err != nil {
			return eris.Wrapf(err, "item %s", it.ID)
		}
		var f pendingFile
		if f, err = encodeJSON(filepath.Join(itemDir, it.ID+FILE_EXT_JSON), &out); err != nil {
			return
		}
		pending = append(pending, f)
	}
	colOut := *col
	colOut.Links = relink(col.Links, "./"+COLLECTION_FILE, "./"+COLLECTION_FILE, "")
	assets := col.Assets
	if o.extent != nil {
		extent := filepath.Join(absDir, EXTENT_FILE)
		var data []byte
		if data, err = encodeExtent(o.extent); err != nil {
			return eris.Wrapf(err, "extent %s", extent)
		}
		pending = append(pending, pendingFile{path: extent, data: data})
		assets = make(map[string]*Asset, len(col.Assets)+1)
		for k, a := range col.Assets {
			assets[k] = a
		}
		assets[ASSET_EXTENT] = ExtentAsset(extent)
	}
	colOut.Assets = relativeAssets(assets, absDir)
	if err = ValidateDocument(&colOut); err != nil {
		return eris.Wrapf(err, "collection %s", col.ID)
	}
	f, err := encodeJSON(filepath.Join(absDir, COLLECTION_FILE), &colOut)
	if err != nil {
		return
	}
	pending = append(pending, f)

	for _, f := range pending {
		if err = writeFileAtomic(fs, f.path, f.data); err != nil {
			return
		}
	}
	log.Info("catalog saved", zap.String("dir", absDir), zap.Int("items", len(items)))
	return
}

// 单独写出Item（不属于任何Collection），资产路径相对dir
func SaveItem(fs afero.Fs, dir string, it *Item) (path string, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		err = eris.Wrapf(err, "resolve item dir %s", dir)
		return
	}
	out := *it
	out.Links = relink(it.Links, "./"+it.ID+FILE_EXT_JSON, "./"+it.ID+FILE_EXT_JSON, "")
	out.Assets = relativeAssets(it.Assets, absDir)
	if err = ValidateDocument(&out); err != nil {
		err = eris.Wrapf(err, "item %s", it.ID)
		return
	}
	path = filepath.Join(absDir, it.ID+FILE_EXT_JSON)
	err = writeJSON(fs, path, &out)
	return
}

func hasItemLink(col *Collection, id string) bool {
	href := ItemHref(id)
	for _, l := range col.Links {
		if l.Rel == "item" && l.Href == href {
			return true
		}
	}
	return false
}

// 重建结构性链接（root/parent/self/collection），保留其余链接
func relink(links []Link, root, self, parent string) []Link {
	ret := []Link{{Rel: "root", Href: root, Type: MEDIA_TYPE_JSON}}
	if parent != "" {
		ret = append(ret,
			Link{Rel: "parent", Href: parent, Type: MEDIA_TYPE_JSON},
			Link{Rel: "collection", Href: parent, Type: MEDIA_TYPE_JSON},
		)
	}
	ret = append(ret, Link{Rel: "self", Href: self, Type: MEDIA_TYPE_JSON})
	for _, l := range links {
		switch l.Rel {
		case "root", "parent", "self", "collection":
			continue
		}
		ret = append(ret, l)
	}
	return ret
}

func relativeAssets(assets map[string]*Asset, base string) map[string]*Asset {
	if assets == nil {
		return nil
	}
	ret := make(map[string]*Asset, len(assets))
	for k, a := range assets {
		c := *a
		c.Href = relativeHref(a.Href, base)
		ret[k] = &c
	}
	return ret
}

// 本地文件路径转为相对base的路径，URL与已是相对路径者保持不变
func relativeHref(href, base string) string {
	if strings.Contains(href, "://") || !filepath.IsAbs(href) {
		return href
	}
	rel, err := filepath.Rel(base, href)
	if err != nil {
		return href
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel
}

func encodeJSON(path string, doc any) (f pendingFile, err error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		err = eris.Wrapf(err, "encode %s", path)
		return
	}
	return pendingFile{path: path, data: append(data, '\n')}, nil
}

func writeJSON(fs afero.Fs, path string, doc any) error {
	f, err := encodeJSON(path, doc)
	if err != nil {
		return err
	}
	return writeFileAtomic(fs, f.path, f.data)
}

// 先写同目录临时文件，非空后再改名
func writeFileAtomic(fs afero.Fs, path string, data []byte) error {
	if len(data) == 0 {
		return eris.Wrapf(ErrEmptyOutput, "%s", path)
	}
	if err := fs.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return eris.Wrapf(err, "create dir for %s", path)
	}
	tmp := tmpPath(path, TMP_JSON)
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		fs.Remove(tmp)
		return eris.Wrapf(err, "write %s", path)
	}
	if err := fs.Rename(tmp, path); err != nil {
		fs.Remove(tmp)
		return eris.Wrapf(err, "publish %s", path)
	}
	return nil
}
