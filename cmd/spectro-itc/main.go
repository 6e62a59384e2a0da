// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the spectro-itc CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	verbose bool
	logger  = zap.NewNop()
)

// rootCmd is the base command for the spectro-itc CLI.
var rootCmd = &cobra.Command{
	Use:   "spectro-itc",
	Short: "Integration time calculator for a multi-CCD spectrograph",
	Long: `spectro-itc predicts the signal, background and signal-to-noise ratio a
spectroscopic observation will reach on each CCD of the detector mosaic.

A calculation reads instrument, source and observing parameters from a YAML
file, resolves the instrument options against the catalog, and loads the
throughput, quantum efficiency and gap tables from a calibration directory or
database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		// log where the command writes its own errors, not the process stderr
		sink := zapcore.AddSync(cmd.ErrOrStderr())
		core := zapcore.NewCore(zapcore.NewJSONEncoder(config.EncoderConfig), sink, config.Level)
		logger = zap.New(core, zap.ErrorOutput(sink))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./spectro-itc.yaml or ~/.config/spectro-itc/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().String("catalog", "", "instrument catalog YAML (default: built-in)")
	_ = viper.BindPFlag(keyCatalog, rootCmd.PersistentFlags().Lookup("catalog"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("spectro-itc")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "spectro-itc"))
		}
	}

	viper.SetEnvPrefix("SPECTRO_ITC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
