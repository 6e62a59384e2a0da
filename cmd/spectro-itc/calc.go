// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/spectro-itc/internal/catalog"
	"github.com/pdiddy/spectro-itc/internal/export"
	"github.com/pdiddy/spectro-itc/internal/itcerr"
	"github.com/pdiddy/spectro-itc/internal/metrics"
	"github.com/pdiddy/spectro-itc/internal/recipe"
	"github.com/pdiddy/spectro-itc/internal/sed"
)

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Run a spectroscopy S/N calculation",
	Long: `Calc reads a parameters file, validates the instrument configuration,
computes signal, background and S/N on every CCD, and writes the result.

The text format prints the per-CCD summary. The yaml, json and fits formats
also carry every chart series.`,
	RunE: runCalc,
}

func runCalc(cmd *cobra.Command, args []string) error {
	paramsPath, _ := cmd.Flags().GetString("params")
	outPath, _ := cmd.Flags().GetString("out")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	cfg := itcConfig()

	p, err := loadParams(paramsPath)
	if err != nil {
		return err
	}
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}
	tables, release, err := openTables(cfg.Calib)
	if err != nil {
		return err
	}
	defer release()

	reg := prometheus.NewRegistry()
	m, err := metrics.NewCollector(reg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := recipe.Run(ctx, p, cat, tables, sed.New(tables, logger), recipe.Options{
		Workers:  cfg.Workers,
		Sampling: cfg.Sampling,
		Headless: cfg.Headless,
		Log:      logger,
		Metrics:  m,
	})
	if cfg.MetricsFile != "" {
		if werr := metrics.WriteFile(cfg.MetricsFile, reg); werr != nil {
			if err == nil {
				return werr
			}
			logger.Error("metrics not written", zap.Error(werr))
		}
	}
	if err != nil {
		if itcerr.IsConfig(err) {
			// user-correctable; print the message on its own
			fmt.Fprintln(cmd.ErrOrStderr(), err)
			return fmt.Errorf("invalid configuration")
		}
		return err
	}
	logger.Info("calculation finished",
		zap.String("id", out.ID.String()),
		zap.Int("ccds", len(out.CCDs)),
		zap.Float64("peak_pixel", out.PeakPixel),
		zap.Duration("elapsed", time.Since(start)))

	report := out.Report()
	if outPath != "" {
		if err := export.WriteFile(outPath, report, cfg.Format); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
		return nil
	}
	return export.Write(cmd.OutOrStdout(), report, cfg.Format)
}

func init() {
	calcCmd.Flags().StringP("params", "p", "", "calculation parameters (YAML)")
	calcCmd.Flags().StringP("out", "o", "", "output file (default: stdout)")
	calcCmd.Flags().String("format", "text", "output format: text, yaml, json, fits")
	calcCmd.Flags().Int("workers", 3, "CCDs computed in parallel")
	calcCmd.Flags().Float64("sampling", 0.01, "spectrum sampling in nm")
	calcCmd.Flags().Bool("headless", false, "keep only the S/N charts")
	calcCmd.Flags().String("calib-dir", "", "directory of calibration .dat tables")
	calcCmd.Flags().String("calib-db", "", "calibration database created by 'calib import'")
	calcCmd.Flags().Duration("timeout", 0, "abort the calculation after this long")
	calcCmd.Flags().String("metrics-file", "", "write calculation metrics here in Prometheus text format")
	_ = calcCmd.MarkFlagRequired("params")

	_ = viper.BindPFlag(keyFormat, calcCmd.Flags().Lookup("format"))
	_ = viper.BindPFlag(keyWorkers, calcCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag(keySampling, calcCmd.Flags().Lookup("sampling"))
	_ = viper.BindPFlag(keyHeadless, calcCmd.Flags().Lookup("headless"))
	_ = viper.BindPFlag(keyCalibDir, calcCmd.Flags().Lookup("calib-dir"))
	_ = viper.BindPFlag(keyCalibDB, calcCmd.Flags().Lookup("calib-db"))
	_ = viper.BindPFlag(keyMetrics, calcCmd.Flags().Lookup("metrics-file"))

	rootCmd.AddCommand(calcCmd)
}
