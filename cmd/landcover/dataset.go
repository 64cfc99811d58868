package main

import (
	"context"

	"github.com/rotisserie/eris"

	landcover "github.com/wgdzlh/landcover"
)

func newFetcher() *landcover.Fetcher {
	return landcover.NewFetcher(landcover.FetcherConfig{
		Timeout:   cfg.Fetch.Timeout(),
		UserAgent: cfg.Fetch.UserAgent,
		Retries:   cfg.Fetch.Retries,
	})
}

func cogOptions(skipEmpty bool) []landcover.CogOption {
	return []landcover.CogOption{
		landcover.BlockSize(cfg.Cog.BlockSize),
		landcover.DeflateLevel(cfg.Cog.DeflateLevel),
		landcover.SkipEmptyTiles(skipEmpty || cfg.Cog.SkipEmpty),
	}
}

func tileCount(flag int) int {
	if flag > 0 {
		return flag
	}
	return cfg.Cog.Tiles
}

// 有元数据地址时以元数据为准，否则使用配置
func resolveDataset(ctx context.Context, metadataURL string) (ds landcover.Dataset, md *landcover.DatasetMetadata, err error) {
	if metadataURL == "" {
		var href string
		if href, err = landcover.MetadataHref(cfg.Dataset.MetadataURL); err != nil {
			return
		}
		ds, err = landcover.NewDataset(cfg.Dataset.Title, cfg.Dataset.Description, href)
		if err != nil {
			err = eris.Wrap(err, "dataset from config")
			return
		}
	} else {
		if metadataURL, err = landcover.MetadataHref(metadataURL); err != nil {
			return
		}
		var m landcover.DatasetMetadata
		if m, err = newFetcher().Metadata(ctx, metadataURL); err != nil {
			return
		}
		if ds, err = landcover.DatasetFromMetadata(m, metadataURL); err != nil {
			return
		}
		md = &m
	}
	ds.EPSG = cfg.Dataset.EPSG
	ds.Resolution = cfg.Dataset.Resolution
	return
}
