// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package recipe

import (
	"fmt"

	"github.com/pdiddy/spectro-itc/pkg/types"
)

// saturationWarnFraction is the fraction of the saturation limit at which a
// CCD summary carries a saturation warning.
const saturationWarnFraction = 0.95

// summaries reports the noise sources and peak pixel of every CCD.
func (r *Recipe) summaries(out *Output) []types.CCDSummary {
	limit := r.inst.SaturationLimit()
	gain := r.inst.Amp.GainPerADU

	sums := make([]types.CCDSummary, len(out.CCDs))
	for i, ccd := range out.CCDs {
		s := types.CCDSummary{
			CCD:          ccd.Index,
			Name:         ccd.Name,
			ReadNoise:    r.inst.Amp.ReadNoise,
			DarkCurrent:  r.inst.DarkCurrent(),
			PeakPixel:    ccd.PeakPixel,
			ImageQuality: ccd.ImageQuality,
		}
		if gain > 0 {
			s.PeakADU = ccd.PeakPixel / gain
		}
		if limit > 0 {
			s.PercentFull = 100 * ccd.PeakPixel / limit
			if ccd.PeakPixel >= saturationWarnFraction*limit {
				s.Warnings = append(s.Warnings, fmt.Sprintf(
					"Warning: peak pixel exceeds %.0f%% of the saturation limit of %.0f e- and may be saturated.",
					100*saturationWarnFraction, limit))
			}
		}
		sums[i] = s
	}
	return sums
}

// warnings returns the configuration warnings of the calculation.
func (r *Recipe) warnings() []string {
	var w []string
	if r.inst.IFUUsed() && r.inst.SpectralBinning == 4 {
		w = append(w, "THE SPECTRAL RESOLUTION IS UNDERSAMPLED. "+
			"The effective slit width of the IFU fibers is 0.31 arcsec, "+
			"and binning by four yields fewer than 1 pixel per resolution element for all gratings.")
	}
	return w
}
