package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phila-data/enrich-cli/internal/csvio"
	"github.com/phila-data/enrich-cli/internal/pipeline"
	"github.com/phila-data/enrich-cli/internal/refindex"
	"github.com/phila-data/enrich-cli/internal/resilience"
	"github.com/phila-data/enrich-cli/internal/standardize"
	"github.com/phila-data/enrich-cli/pkg/ais"
	"github.com/phila-data/enrich-cli/pkg/tomtom"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Geocode and enrich a CSV or XLSX of addresses",
	Long: `Reads an input table, resolves every address through the local address
file, AIS, and the TomTom fallback, and writes <input>_enriched.csv with
coordinates and the requested enrichment columns.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyEnrichFlags(cmd)
		if err := cfg.Validate(); err != nil {
			return err
		}

		log := zap.L().With(zap.String("command", "enrich"))

		table, err := csvio.ReadTable(cfg.Input.File)
		if err != nil {
			return err
		}
		log.Info("input loaded",
			zap.String("path", cfg.Input.File),
			zap.Int("rows", len(table.Rows)),
		)

		index, err := refindex.Load(ctx, cfg.Reference.Database)
		if err != nil {
			return err
		}

		resolver := pipeline.NewResolver(
			standardize.NewParser(),
			index,
			ais.NewClient(cfg.AIS.Key,
				ais.WithBaseURL(cfg.AIS.BaseURL),
				ais.WithRateLimit(cfg.AIS.RateLimit),
			),
			tomtom.NewClient(
				tomtom.WithBaseURL(cfg.TomTom.BaseURL),
				tomtom.WithRateLimit(cfg.TomTom.RateLimit),
			),
			resilience.DefaultRetryConfig(),
		)

		start := time.Now()
		outcomes := pipeline.RunBatch(ctx, resolver,
			pipeline.AddressExtractor(cfg.Input),
			table.Rows,
			pipeline.BatchOptions{
				Concurrency: cfg.Batch.Concurrency,
				Timeout:     time.Duration(cfg.Batch.TimeoutSecs) * time.Second,
			},
		)

		reconciler := pipeline.NewReconciler(
			table.Columns,
			cfg.Output.EnrichmentFields,
			cfg.Output.SRID4326,
			cfg.Output.SRID2272,
		)
		rows := make([]map[string]string, len(table.Rows))
		for i, rec := range table.Rows {
			rows[i] = reconciler.Row(rec, outcomes[i])
		}

		outPath := cfg.Output.File
		if outPath == "" {
			outPath = csvio.OutputPath(cfg.Input.File)
		}
		if err := csvio.WriteCSV(outPath, reconciler.Columns(), rows); err != nil {
			return err
		}

		summary := pipeline.Summarize(outcomes, time.Since(start))
		summary.Log()
		fmt.Println(summary)
		fmt.Println("output written to", outPath)

		return nil
	},
}

// applyEnrichFlags overlays command-line flags onto the loaded config.
func applyEnrichFlags(cmd *cobra.Command) {
	if v, _ := cmd.Flags().GetString("input"); v != "" {
		cfg.Input.File = v
	}
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		cfg.Output.File = v
	}
	if v, _ := cmd.Flags().GetString("full-address-field"); v != "" {
		cfg.Input.FullAddressField = v
	}
	if v, _ := cmd.Flags().GetString("street-field"); v != "" {
		cfg.Input.StreetField = v
	}
	if v, _ := cmd.Flags().GetString("city-field"); v != "" {
		cfg.Input.CityField = v
	}
	if v, _ := cmd.Flags().GetString("state-field"); v != "" {
		cfg.Input.StateField = v
	}
	if v, _ := cmd.Flags().GetString("zip-field"); v != "" {
		cfg.Input.ZipField = v
	}
	if v, _ := cmd.Flags().GetString("fields"); v != "" {
		cfg.Output.EnrichmentFields = splitAndTrim(v)
	}
	if cmd.Flags().Changed("srid-4326") {
		cfg.Output.SRID4326, _ = cmd.Flags().GetBool("srid-4326")
	}
	if cmd.Flags().Changed("srid-2272") {
		cfg.Output.SRID2272, _ = cmd.Flags().GetBool("srid-2272")
	}
	if v, _ := cmd.Flags().GetString("geography"); v != "" {
		cfg.Reference.Database = v
	}
	if v, _ := cmd.Flags().GetInt("concurrency"); v > 0 {
		cfg.Batch.Concurrency = v
	}
	if v, _ := cmd.Flags().GetInt("timeout"); v > 0 {
		cfg.Batch.TimeoutSecs = v
	}
}

func init() {
	enrichCmd.Flags().String("input", "", "input CSV or XLSX file")
	enrichCmd.Flags().String("output", "", "output CSV path (default: <input>_enriched.csv)")
	enrichCmd.Flags().String("full-address-field", "", "column holding a single-line address")
	enrichCmd.Flags().String("street-field", "", "column holding the street address (split mode)")
	enrichCmd.Flags().String("city-field", "", "city column (split mode)")
	enrichCmd.Flags().String("state-field", "", "state column (split mode)")
	enrichCmd.Flags().String("zip-field", "", "zip column (split mode)")
	enrichCmd.Flags().String("fields", "", "comma-separated enrichment fields to request")
	enrichCmd.Flags().Bool("srid-4326", true, "emit geocode_lat/geocode_lon")
	enrichCmd.Flags().Bool("srid-2272", false, "emit geocode_x/geocode_y (PA State Plane South, feet)")
	enrichCmd.Flags().String("geography", "", "path to the sqlite geography file")
	enrichCmd.Flags().Int("concurrency", 0, "worker pool size (default: from config)")
	enrichCmd.Flags().Int("timeout", 0, "overall batch timeout in seconds (default: from config)")
	rootCmd.AddCommand(enrichCmd)
}

// splitAndTrim splits a comma-separated list, dropping empty entries.
func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
