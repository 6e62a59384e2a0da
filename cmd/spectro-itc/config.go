// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/spectro-itc/internal/calib"
	"github.com/pdiddy/spectro-itc/pkg/types"
)

// Viper keys. Nested keys map to SPECTRO_ITC_CALIB_DIR and so on.
const (
	keyCalibDir = "calib.dir"
	keyCalibDB  = "calib.db_path"
	keyCatalog  = "catalog_path"
	keyWorkers  = "workers"
	keySampling = "sampling"
	keyHeadless = "headless"
	keyFormat   = "format"
	keyMetrics  = "metrics_file"
)

func init() {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetDefault(keyCalibDir, "lib/ghost")
}

// itcConfig assembles the tool settings from flags, environment and the
// config file.
func itcConfig() types.ITCConfig {
	return types.ITCConfig{
		Calib: types.CalibConfig{
			Dir:    viper.GetString(keyCalibDir),
			DBPath: viper.GetString(keyCalibDB),
		},
		CatalogPath: viper.GetString(keyCatalog),
		Workers:     viper.GetInt(keyWorkers),
		Sampling:    viper.GetFloat64(keySampling),
		Headless:    viper.GetBool(keyHeadless),
		Format:      types.OutputFormat(viper.GetString(keyFormat)),
		MetricsFile: viper.GetString(keyMetrics),
	}.WithDefaults()
}

// openTables returns a cached calibration source and a function releasing
// it. The database wins over the directory when both are configured.
func openTables(cfg types.CalibConfig) (*calib.Cache, func(), error) {
	if cfg.DBPath != "" {
		db, err := calib.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("calibration database", zap.String("path", cfg.DBPath))
		return calib.NewCache(db), func() { db.Close() }, nil
	}
	logger.Debug("calibration directory", zap.String("dir", cfg.Dir))
	return calib.NewCache(calib.DirSource{Dir: cfg.Dir}), func() {}, nil
}

// loadParams reads a calculation request from a YAML file.
func loadParams(path string) (types.ITCParameters, error) {
	var p types.ITCParameters
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("reading parameters: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parsing parameters %s: %w", path, err)
	}
	return p, nil
}
