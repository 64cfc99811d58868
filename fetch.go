package landcover

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wgdzlh/landcover/log"
	"github.com/wgdzlh/landcover/utils"

	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	packageFile = "package" + FILE_EXT_ZIP

	defaultFetchTimeout = 10 * time.Minute
)

// 下载元数据与资源包
type Fetcher struct {
	client *resty.Client
	logTag string
}

type FetcherConfig struct {
	Timeout   time.Duration
	UserAgent string
	Retries   int
}

func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFetchTimeout
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(retryCondition)
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	return &Fetcher{
		client: client,
		logTag: "Fetcher:",
	}
}

func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= 500 || code == 429 || code == 408
}

func isRemote(href string) bool {
	return strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://")
}

// 元数据地址：URL原样返回，本地路径转为绝对路径，保证文档中的引用与工作目录无关
func MetadataHref(href string) (string, error) {
	if href == "" || isRemote(href) {
		return href, nil
	}
	abs, err := filepath.Abs(href)
	if err != nil {
		return "", eris.Wrapf(err, "resolve metadata path %s", href)
	}
	return abs, nil
}

// 读取JSON-LD元数据，支持http(s)地址与本地路径
func (f *Fetcher) Metadata(ctx context.Context, href string) (md DatasetMetadata, err error) {
	if !strings.HasSuffix(strings.ToLower(href), FILE_EXT_JSONLD) {
		err = eris.Wrapf(ErrUnsupportedInput, "%s", href)
		return
	}
	var data []byte
	if isRemote(href) {
		var resp *resty.Response
		resp, err = f.client.R().SetContext(ctx).Get(href)
		if err != nil {
			log.Error(f.logTag+"get metadata failed", zap.String("url", href), zap.Error(err))
			err = eris.Wrapf(err, "get metadata %s", href)
			return
		}
		if resp.IsError() {
			err = eris.Errorf("get metadata %s: status %d", href, resp.StatusCode())
			return
		}
		data = resp.Body()
	} else if data, err = os.ReadFile(href); err != nil {
		err = eris.Wrapf(err, "read metadata %s", href)
		return
	}
	if md, err = ParseMetadata(data); err != nil {
		err = eris.Wrapf(err, "metadata %s", href)
		return
	}
	log.Info(f.logTag+"metadata loaded", zap.String("url", href), zap.String("title", md.Title))
	return
}

// 下载资源包（zip）到dir下的独立子目录并解压，返回其中的tif
func (f *Fetcher) AssetPackage(ctx context.Context, href, dir string) (tif string, err error) {
	if href == "" {
		err = eris.Wrap(ErrWrongMetadata, "empty asset package url")
		return
	}
	pkgDir, err := utils.GetUniqSubDir(dir)
	if err != nil {
		err = eris.Wrapf(err, "create package dir under %s", dir)
		return
	}
	zipPath := href
	if isRemote(href) {
		zipPath = filepath.Join(pkgDir, packageFile)
		var resp *resty.Response
		resp, err = f.client.R().SetContext(ctx).SetOutput(zipPath).Get(href)
		if err != nil {
			log.Error(f.logTag+"download package failed", zap.String("url", href), zap.Error(err))
			err = eris.Wrapf(err, "download %s", href)
			return
		}
		if resp.IsError() {
			err = eris.Errorf("download %s: status %d", href, resp.StatusCode())
			return
		}
		defer os.Remove(zipPath)
	}
	if tif, err = utils.GetFileInZip(zipPath, pkgDir, FILE_EXT_TIF); err != nil {
		err = eris.Wrapf(err, "unpack %s", href)
		return
	}
	log.Info(f.logTag+"asset package ready", zap.String("url", href), zap.String("tif", tif))
	return
}
