// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog holds the instrument option tables (gratings, focal-plane
// masks, filters, detectors) keyed by identifier. Tables are loaded once and
// never modified; business rules are predicates over rows.
package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"

	"go.yaml.in/yaml/v3"
)

//go:embed catalog.yaml
var defaultYAML []byte

// Grating is a disperser. The mirror has zero ruling density.
type Grating struct {
	ID            string  `yaml:"id"`
	Name          string  `yaml:"name"`
	RulingDensity float64 `yaml:"ruling_density"`
	Dispersion    float64 `yaml:"dispersion"`
	Blaze         float64 `yaml:"blaze"`
	Resolution    float64 `yaml:"resolution"`
	Obsolete      bool    `yaml:"obsolete"`
}

// IsMirror reports whether the grating disperses no light.
func (g Grating) IsMirror() bool { return g.RulingDensity == 0 }

// Mask is a focal-plane unit.
type Mask struct {
	ID     string  `yaml:"id"`
	Name   string  `yaml:"name"`
	Width  float64 `yaml:"width"`
	IFU    bool    `yaml:"ifu"`
	Slits  int     `yaml:"slits"`
	Custom bool    `yaml:"custom"`
}

// IsNone reports whether no mask is in the beam.
func (m Mask) IsNone() bool { return m.ID == MaskNone }

// IsIFU2 reports whether the mask images two IFU slits at once.
func (m Mask) IsIFU2() bool { return m.IFU && m.Slits == 2 }

// SlitCount returns the number of simultaneously illuminated slits.
func (m Mask) SlitCount() int {
	if m.Slits > 1 {
		return m.Slits
	}
	return 1
}

// CustomSlitWidth is a selectable width for custom masks. Width 0 means the
// width is unknown.
type CustomSlitWidth struct {
	ID    string  `yaml:"id"`
	Width float64 `yaml:"width"`
}

// Filter is an imaging or order-blocking filter.
type Filter struct {
	ID         string  `yaml:"id"`
	Name       string  `yaml:"name"`
	Wavelength float64 `yaml:"wavelength"`
}

// IsNone reports whether no filter is selected.
func (f Filter) IsNone() bool { return f.ID == FilterNone }

// Amp holds the gain and read noise for one amplifier setting.
type Amp struct {
	Gain       string  `yaml:"gain"`
	ReadMode   string  `yaml:"read_mode"`
	GainPerADU float64 `yaml:"gain_e_per_adu"`
	ReadNoise  float64 `yaml:"read_noise"`
}

// CCD is one chip of a detector mosaic.
type CCD struct {
	Name    string `yaml:"name"`
	QETable string `yaml:"qe_table"`
}

// Detector describes a detector mosaic.
type Detector struct {
	Kind           string         `yaml:"kind"`
	Pixels         int            `yaml:"pixels"`
	PlateScale     float64        `yaml:"plate_scale"`
	PixelPitch     float64        `yaml:"pixel_pitch"`
	WellDepth      float64        `yaml:"well_depth"`
	ADSaturation   float64        `yaml:"ad_saturation"`
	DarkCurrent    float64        `yaml:"dark_current"`
	IFU2Separation float64        `yaml:"ifu2_separation"`
	GapPixels      map[string]int `yaml:"gap_pixels"`
	GapTable       string         `yaml:"gap_table"`
	CCDs           []CCD          `yaml:"ccds"`
	Amps           []Amp          `yaml:"amps"`
}

// Gap returns the inter-CCD gap in unbinned pixels at site.
func (d Detector) Gap(site string) (int, bool) {
	g, ok := d.GapPixels[site]
	return g, ok
}

// Amp returns the amplifier setting for gain and read mode.
func (d Detector) Amp(gain, readMode string) (Amp, bool) {
	for _, a := range d.Amps {
		if a.Gain == gain && a.ReadMode == readMode {
			return a, true
		}
	}
	return Amp{}, false
}

// Identifiers that carry meaning in validation rules.
const (
	MaskNone    = "FPU_NONE"
	FilterNone  = "NONE"
	CustomOther = "OTHER"
)

// Catalog is the full set of option tables.
type Catalog struct {
	Gratings         []Grating         `yaml:"gratings"`
	Masks            []Mask            `yaml:"masks"`
	CustomSlitWidths []CustomSlitWidth `yaml:"custom_slit_widths"`
	Filters          []Filter          `yaml:"filters"`
	Detectors        []Detector        `yaml:"detectors"`

	gratings  map[string]Grating
	masks     map[string]Mask
	widths    map[string]CustomSlitWidth
	filters   map[string]Filter
	detectors map[string]Detector
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in catalog: %v", err))
	}
	return c
}

// Load reads a catalog from a YAML file. An empty path returns Default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a catalog and builds its lookup indexes. Duplicate
// identifiers are rejected.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	c.gratings = make(map[string]Grating, len(c.Gratings))
	for _, g := range c.Gratings {
		if _, dup := c.gratings[g.ID]; dup {
			return nil, fmt.Errorf("duplicate grating %q", g.ID)
		}
		c.gratings[g.ID] = g
	}
	c.masks = make(map[string]Mask, len(c.Masks))
	for _, m := range c.Masks {
		if _, dup := c.masks[m.ID]; dup {
			return nil, fmt.Errorf("duplicate mask %q", m.ID)
		}
		c.masks[m.ID] = m
	}
	c.widths = make(map[string]CustomSlitWidth, len(c.CustomSlitWidths))
	for _, w := range c.CustomSlitWidths {
		c.widths[w.ID] = w
	}
	c.filters = make(map[string]Filter, len(c.Filters))
	for _, f := range c.Filters {
		if _, dup := c.filters[f.ID]; dup {
			return nil, fmt.Errorf("duplicate filter %q", f.ID)
		}
		c.filters[f.ID] = f
	}
	c.detectors = make(map[string]Detector, len(c.Detectors))
	for _, d := range c.Detectors {
		if len(d.CCDs) == 0 {
			return nil, fmt.Errorf("detector %q has no CCDs", d.Kind)
		}
		c.detectors[d.Kind] = d
	}
	return &c, nil
}

// Grating looks up a grating. The empty identifier selects the mirror.
func (c *Catalog) Grating(id string) (Grating, bool) {
	if id == "" {
		id = "MIRROR"
	}
	g, ok := c.gratings[id]
	return g, ok
}

// Mask looks up a focal-plane mask. The empty identifier selects no mask.
func (c *Catalog) Mask(id string) (Mask, bool) {
	if id == "" {
		id = MaskNone
	}
	m, ok := c.masks[id]
	return m, ok
}

// CustomSlitWidth looks up a custom slit width.
func (c *Catalog) CustomSlitWidth(id string) (CustomSlitWidth, bool) {
	w, ok := c.widths[id]
	return w, ok
}

// Filter looks up a filter. The empty identifier selects no filter.
func (c *Catalog) Filter(id string) (Filter, bool) {
	if id == "" {
		id = FilterNone
	}
	f, ok := c.filters[id]
	return f, ok
}

// Detector looks up a detector by kind.
func (c *Catalog) Detector(kind string) (Detector, bool) {
	d, ok := c.detectors[kind]
	return d, ok
}

// ActiveGratings returns the non-obsolete gratings sorted by identifier.
func (c *Catalog) ActiveGratings() []Grating {
	var out []Grating
	for _, g := range c.Gratings {
		if !g.Obsolete {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
