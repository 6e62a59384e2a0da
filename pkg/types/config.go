package types

// OutputFormat selects how calc writes its result.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputYAML OutputFormat = "yaml"
	OutputJSON OutputFormat = "json"
	OutputFITS OutputFormat = "fits"
)

// CalibConfig locates calibration tables. When DBPath is set the SQLite
// database is used; otherwise tables are read from Dir.
type CalibConfig struct {
	// Dir is a directory of .dat tables (e.g. "lib/ghost").
	Dir string `json:"dir" yaml:"dir"`

	// DBPath is an SQLite calibration database created by "calib import".
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// ITCConfig holds tool settings that do not change between requests.
type ITCConfig struct {
	Calib CalibConfig `json:"calib" yaml:"calib"`

	// CatalogPath overrides the built-in instrument catalog.
	CatalogPath string `json:"catalog_path,omitempty" yaml:"catalog_path,omitempty"`

	// Workers bounds the number of CCDs computed in parallel (default 3).
	Workers int `json:"workers" yaml:"workers"`

	// Sampling is the spectrum grid in nm (default 0.01).
	Sampling float64 `json:"sampling" yaml:"sampling"`

	// Headless drops the signal charts and keeps only S/N charts.
	Headless bool `json:"headless" yaml:"headless"`

	Format OutputFormat `json:"format" yaml:"format"`

	// MetricsFile receives the calculation metrics in Prometheus text format
	// after every calc run, including failed ones.
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty"`
}

// WithDefaults returns c with zero fields replaced by defaults.
func (c ITCConfig) WithDefaults() ITCConfig {
	if c.Workers <= 0 {
		c.Workers = 3
	}
	if c.Sampling <= 0 {
		c.Sampling = 0.01
	}
	if c.Format == "" {
		c.Format = OutputText
	}
	return c
}
