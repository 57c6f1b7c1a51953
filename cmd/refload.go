package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phila-data/enrich-cli/internal/refindex"
)

var refloadCmd = &cobra.Command{
	Use:   "refload <source>",
	Short: "Build the sqlite geography file from an address table",
	Long: `Builds (or rebuilds) the local geography file the enrich command matches
against. The source is either a CSV export of the city address table
(street_address, lat, lon, plus enrichment columns) or an address-point
shapefile (.shp).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		source := args[0]
		dbPath := cfg.Reference.Database
		if v, _ := cmd.Flags().GetString("geography"); v != "" {
			dbPath = v
		}

		log := zap.L().With(zap.String("command", "refload"))
		log.Info("building geography file",
			zap.String("source", source),
			zap.String("geography", dbPath),
		)

		var (
			n   int
			err error
		)
		switch strings.ToLower(filepath.Ext(source)) {
		case ".shp":
			n, err = refindex.BuildFromShapefile(ctx, dbPath, source)
		case ".csv":
			n, err = refindex.BuildFromCSV(ctx, dbPath, source)
		default:
			return eris.Errorf("refload: unsupported source type %q (want .csv or .shp)", filepath.Ext(source))
		}
		if err != nil {
			return err
		}

		fmt.Printf("loaded %d address points into %s\n", n, dbPath)
		return nil
	},
}

func init() {
	refloadCmd.Flags().String("geography", "", "path to the sqlite geography file (default: from config)")
	rootCmd.AddCommand(refloadCmd)
}
