package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	landcover "github.com/wgdzlh/landcover"
	"github.com/wgdzlh/landcover/internal/config"
)

var (
	cfg     *config.Config
	toolbox *landcover.GdalToolbox
)

var rootCmd = &cobra.Command{
	Use:          "landcover",
	Short:        "Land Cover of Canada COG and STAC tooling",
	Long:         "Converts the NRCan land cover raster into cloud-optimized GeoTIFFs and describes them as STAC items and collections.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		toolbox = landcover.NewGdalToolbox()

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
