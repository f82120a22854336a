package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arogyamap/access-cli/internal/classify"
	"github.com/arogyamap/access-cli/internal/export"
	"github.com/arogyamap/access-cli/internal/ingest"
	"github.com/arogyamap/access-cli/internal/pipeline"
	"github.com/arogyamap/access-cli/internal/projection"
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Run the accessibility scoring pipeline",
	Long: `Reads the local facility, district, road, and census datasets, computes
per-district accessibility metrics, classifies districts into access tiers,
and writes the report. Results are persisted to the configured store unless
--no-store is set.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var paths datasetPaths
		paths.Facilities, _ = cmd.Flags().GetString("facilities")
		paths.Regions, _ = cmd.Flags().GetString("regions")
		paths.Roads, _ = cmd.Flags().GetString("roads")
		paths.Boundary, _ = cmd.Flags().GetString("boundary")
		paths.Population, _ = cmd.Flags().GetString("population")
		paths.applyDefaults(cfg.Dataset.DataDir)

		in, err := loadInputs(paths)
		if err != nil {
			return err
		}

		canon, err := ingest.LoadAliases(cfg.Dataset.AliasFile)
		if err != nil {
			return err
		}

		pcfg := pipeline.Config{
			Projection: projection.Params{
				Zone:     cfg.Pipeline.UTMZone,
				Southern: cfg.Pipeline.Southern,
			},
			Thresholds: classify.Thresholds{
				Good: cfg.Pipeline.GoodThreshold,
				Poor: cfg.Pipeline.PoorThreshold,
			},
			RoadCategories: cfg.Pipeline.RoadCategories,
			RoadSearchM:    cfg.Pipeline.RoadSearchM,
			Concurrency:    cfg.Pipeline.Concurrency,
			Canonicalizer:  canon,
		}

		report, err := pipeline.Run(ctx, in, pcfg)
		if err != nil {
			return err
		}

		noStore, _ := cmd.Flags().GetBool("no-store")
		if !noStore {
			if err := persistReport(ctx, report); err != nil {
				return err
			}
		}

		outPath, _ := cmd.Flags().GetString("out")
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return eris.Wrapf(err, "compute: create %s", outPath)
			}
			defer f.Close()
			if err := export.WriteCSV(f, report, pcfg.Projection); err != nil {
				return err
			}
			zap.L().Info("report written", zap.String("path", outPath))
		}

		printReport(report)
		return nil
	},
}

func persistReport(ctx context.Context, report *pipeline.Report) error {
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	run, err := st.CreateRun(ctx)
	if err != nil {
		return err
	}

	persisted := report.ToRun()
	persisted.ID = run.ID
	persisted.StartedAt = run.StartedAt
	if err := st.CompleteRun(ctx, persisted); err != nil {
		return err
	}
	zap.L().Info("run persisted", zap.String("run_id", run.ID))
	return nil
}

func printReport(report *pipeline.Report) {
	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REGION\tTIER\tFACILITIES\tPOP/FACILITY")
	for _, cr := range report.Results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
			cr.Region, cr.Tier, cr.FacilityCount, cr.PopulationPerFacility.String())
	}
	tw.Flush()
	fmt.Printf("\nrun %s: %d regions, mean ratio %s, elapsed %s\n",
		report.RunID, len(report.Results), report.MeanRatio.String(), report.Elapsed.Round(time.Millisecond))
}

func init() {
	computeCmd.Flags().String("facilities", "", "facility point shapefile (default <data_dir>/facilities.shp)")
	computeCmd.Flags().String("regions", "", "district polygon shapefile (default <data_dir>/districts.shp)")
	computeCmd.Flags().String("roads", "", "road polyline shapefile (default <data_dir>/roads.shp)")
	computeCmd.Flags().String("boundary", "", "optional outer boundary shapefile")
	computeCmd.Flags().String("population", "", "census population table, .csv or .xlsx (default <data_dir>/population.csv)")
	computeCmd.Flags().String("out", "", "write the report as CSV to this path")
	computeCmd.Flags().Bool("no-store", false, "skip persisting the run to the store")
	rootCmd.AddCommand(computeCmd)
}
