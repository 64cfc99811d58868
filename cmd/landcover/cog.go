package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	landcover "github.com/wgdzlh/landcover"
)

var (
	cogSource    string
	cogDest      string
	cogTiles     int
	cogSkipEmpty bool
	cogMetadata  string
)

var createCogCmd = &cobra.Command{
	Use:   "create-cog",
	Short: "Convert a land cover GeoTIFF into one or more COGs",
	RunE: func(cmd *cobra.Command, args []string) error {
		tiles, err := normalize(cogSource, cogDest, tileCount(cogTiles), cogSkipEmpty)
		if err != nil {
			return err
		}
		printTiles(cmd, tiles)
		return nil
	},
}

var downloadCogCmd = &cobra.Command{
	Use:   "download-cog",
	Short: "Download the land cover asset package and convert it into COGs",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, md, err := resolveDataset(cmd.Context(), cogMetadata)
		if err != nil {
			return err
		}
		src, cleanup, err := downloadSource(cmd, md)
		if err != nil {
			return err
		}
		defer cleanup()
		tiles, err := normalize(src, cogDest, tileCount(cogTiles), cogSkipEmpty)
		if err != nil {
			return err
		}
		printTiles(cmd, tiles)
		return nil
	},
}

func init() {
	createCogCmd.Flags().StringVarP(&cogSource, "source", "s", "", "source land cover GeoTIFF")
	createCogCmd.Flags().StringVarP(&cogDest, "destination", "d", "", "output directory for COGs")
	createCogCmd.Flags().IntVar(&cogTiles, "tiles", 0, "number of grid tiles (default from config)")
	createCogCmd.Flags().BoolVar(&cogSkipEmpty, "skip-empty", false, "drop tiles holding only nodata")
	_ = createCogCmd.MarkFlagRequired("source")
	_ = createCogCmd.MarkFlagRequired("destination")

	downloadCogCmd.Flags().StringVarP(&cogDest, "destination", "d", "", "output directory for COGs")
	downloadCogCmd.Flags().StringVar(&cogMetadata, "metadata", landcover.JSONLD_HREF, "JSON-LD metadata url or path")
	downloadCogCmd.Flags().IntVar(&cogTiles, "tiles", 0, "number of grid tiles (default from config)")
	downloadCogCmd.Flags().BoolVar(&cogSkipEmpty, "skip-empty", false, "drop tiles holding only nodata")
	_ = downloadCogCmd.MarkFlagRequired("destination")

	rootCmd.AddCommand(createCogCmd, downloadCogCmd)
}

func normalize(src, dst string, tiles int, skipEmpty bool) ([]landcover.Tile, error) {
	opts := cogOptions(skipEmpty)
	if tiles <= 1 {
		tile, err := toolbox.CreateCOG(src, filepath.Join(dst, landcover.CogFileName(src)), opts...)
		if err != nil {
			return nil, err
		}
		return []landcover.Tile{tile}, nil
	}
	return toolbox.CreateRetiledCOGs(src, dst, tiles, opts...)
}

// 下载并解压资源包，返回tif路径及清理函数
func downloadSource(cmd *cobra.Command, md *landcover.DatasetMetadata) (src string, cleanup func(), err error) {
	if md == nil || md.AccessURL == "" {
		err = eris.Wrap(landcover.ErrWrongMetadata, "metadata has no asset package url")
		return
	}
	tmp, err := os.MkdirTemp(cfg.Cog.TmpDir, "landcover-")
	if err != nil {
		err = eris.Wrap(err, "create download dir")
		return
	}
	cleanup = func() { os.RemoveAll(tmp) }
	if src, err = newFetcher().AssetPackage(cmd.Context(), md.AccessURL, tmp); err != nil {
		cleanup()
		cleanup = nil
	}
	return
}

func tilePaths(tiles []landcover.Tile) []string {
	paths := make([]string, len(tiles))
	for i, t := range tiles {
		paths[i] = t.Path
	}
	return paths
}

func printTiles(cmd *cobra.Command, tiles []landcover.Tile) {
	for _, t := range tiles {
		fmt.Fprintln(cmd.OutOrStdout(), t.Path)
	}
}
