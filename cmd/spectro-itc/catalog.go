// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/spectro-itc/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:       "catalog [gratings|masks|filters]",
	Short:     "List the instrument options a calculation can select",
	Long:      `Catalog prints the gratings, focal-plane masks and filters of the instrument catalog. Obsolete gratings are omitted.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"gratings", "masks", "filters"},
	RunE:      runCatalog,
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cat, err := catalog.Load(viper.GetString(keyCatalog))
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if len(args) == 0 {
		printGratings(w, cat)
		fmt.Fprintln(w)
		printMasks(w, cat)
		fmt.Fprintln(w)
		printFilters(w, cat)
		return nil
	}
	switch args[0] {
	case "gratings":
		printGratings(w, cat)
	case "masks":
		printMasks(w, cat)
	case "filters":
		printFilters(w, cat)
	default:
		return fmt.Errorf("unknown catalog table %q", args[0])
	}
	return nil
}

func printGratings(w io.Writer, cat *catalog.Catalog) {
	fmt.Fprintf(w, "%-14s %-8s %10s %12s %8s %10s\n", "GRATING", "NAME", "LINES/MM", "NM/PIX", "BLAZE", "RESOLUTION")
	for _, g := range cat.ActiveGratings() {
		fmt.Fprintf(w, "%-14s %-8s %10.0f %12.4f %8.1f %10.0f\n",
			g.ID, g.Name, g.RulingDensity, g.Dispersion, g.Blaze, g.Resolution)
	}
}

func printMasks(w io.Writer, cat *catalog.Catalog) {
	fmt.Fprintf(w, "%-16s %-24s %8s %6s\n", "MASK", "NAME", "WIDTH", "SLITS")
	for _, m := range cat.Masks {
		kind := ""
		if m.IFU {
			kind = " (IFU)"
		}
		fmt.Fprintf(w, "%-16s %-24s %8.2f %6d%s\n", m.ID, m.Name, m.Width, m.SlitCount(), kind)
	}
}

func printFilters(w io.Writer, cat *catalog.Catalog) {
	fmt.Fprintf(w, "%-14s %-20s %10s\n", "FILTER", "NAME", "NM")
	for _, f := range cat.Filters {
		fmt.Fprintf(w, "%-14s %-20s %10.1f\n", f.ID, f.Name, f.Wavelength)
	}
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
