package main

import (
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	landcover "github.com/wgdzlh/landcover"
	"github.com/wgdzlh/landcover/log"
)

var (
	stacDest      string
	stacCog       string
	stacSource    string
	stacMetadata  string
	stacTiles     int
	stacSkipEmpty bool
)

var createItemCmd = &cobra.Command{
	Use:   "create-item",
	Short: "Create a STAC item for a land cover COG",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, _, err := resolveDataset(cmd.Context(), stacMetadata)
		if err != nil {
			return err
		}
		item, err := toolbox.CreateItem(stacCog, ds)
		if err != nil {
			return err
		}
		path, err := landcover.SaveItem(afero.NewOsFs(), stacDest, item)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var createCollectionCmd = &cobra.Command{
	Use:   "create-collection COG...",
	Short: "Create a STAC collection with one item per COG",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, md, err := resolveDataset(cmd.Context(), stacMetadata)
		if err != nil {
			return err
		}
		return writeCatalog(cmd, ds, md, args)
	},
}

var createCatalogCmd = &cobra.Command{
	Use:   "create-catalog",
	Short: "Convert the land cover raster into COGs and write the full STAC collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, md, err := resolveDataset(cmd.Context(), stacMetadata)
		if err != nil {
			return err
		}
		src := stacSource
		if src == "" {
			if md == nil {
				m, err := newFetcher().Metadata(cmd.Context(), cfg.Dataset.MetadataURL)
				if err != nil {
					return err
				}
				md = &m
			}
			var cleanup func()
			if src, cleanup, err = downloadSource(cmd, md); err != nil {
				return err
			}
			defer cleanup()
		}
		tiles, err := normalize(src, stacDest, tileCount(stacTiles), stacSkipEmpty)
		if err != nil {
			return err
		}
		return writeCatalog(cmd, ds, md, tilePaths(tiles))
	},
}

var createExtentCmd = &cobra.Command{
	Use:   "create-extent",
	Short: "Write the dataset extent as a GeoJSON asset",
	RunE: func(cmd *cobra.Command, args []string) error {
		href := stacMetadata
		if href == "" {
			href = cfg.Dataset.MetadataURL
		}
		_, md, err := resolveDataset(cmd.Context(), href)
		if err != nil {
			return err
		}
		if md == nil {
			return eris.Wrap(landcover.ErrWrongMetadata, "extent needs a metadata document")
		}
		path := filepath.Join(stacDest, landcover.EXTENT_FILE)
		if err = landcover.WriteExtentAsset(afero.NewOsFs(), path, md.Geometry); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	createItemCmd.Flags().StringVarP(&stacCog, "cog", "c", "", "COG to describe")
	createItemCmd.Flags().StringVarP(&stacDest, "destination", "d", "", "output directory for the item")
	createItemCmd.Flags().StringVar(&stacMetadata, "metadata", "", "JSON-LD metadata url or path (default: dataset config)")
	_ = createItemCmd.MarkFlagRequired("cog")
	_ = createItemCmd.MarkFlagRequired("destination")

	createCollectionCmd.Flags().StringVarP(&stacDest, "destination", "d", "", "output directory for the collection")
	createCollectionCmd.Flags().StringVar(&stacMetadata, "metadata", "", "JSON-LD metadata url or path (default: dataset config)")
	_ = createCollectionCmd.MarkFlagRequired("destination")

	createCatalogCmd.Flags().StringVarP(&stacDest, "destination", "d", "", "output directory for COGs and documents")
	createCatalogCmd.Flags().StringVarP(&stacSource, "source", "s", "", "source GeoTIFF (default: download the asset package)")
	createCatalogCmd.Flags().StringVar(&stacMetadata, "metadata", "", "JSON-LD metadata url or path (default: dataset config)")
	createCatalogCmd.Flags().IntVar(&stacTiles, "tiles", 0, "number of grid tiles (default from config)")
	createCatalogCmd.Flags().BoolVar(&stacSkipEmpty, "skip-empty", false, "drop tiles holding only nodata")
	_ = createCatalogCmd.MarkFlagRequired("destination")

	createExtentCmd.Flags().StringVarP(&stacDest, "destination", "d", "", "output directory for the extent")
	createExtentCmd.Flags().StringVar(&stacMetadata, "metadata", "", "JSON-LD metadata url or path (default: dataset config)")
	_ = createExtentCmd.MarkFlagRequired("destination")

	rootCmd.AddCommand(createItemCmd, createCollectionCmd, createCatalogCmd, createExtentCmd)
}

func writeCatalog(cmd *cobra.Command, ds landcover.Dataset, md *landcover.DatasetMetadata, cogs []string) error {
	items, err := toolbox.CreateItems(cogs, ds)
	if err != nil {
		return err
	}
	col, err := landcover.CreateCollection(ds, items)
	if err != nil {
		return err
	}
	var opts []landcover.CatalogOption
	if md != nil && md.Geometry != nil {
		opts = append(opts, landcover.WithExtent(md.Geometry))
	}
	if err = landcover.SaveCatalog(afero.NewOsFs(), stacDest, col, items, opts...); err != nil {
		return err
	}
	log.Info("collection written", zap.String("dir", stacDest), zap.Int("items", len(items)))
	fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(stacDest, landcover.COLLECTION_FILE))
	return nil
}
