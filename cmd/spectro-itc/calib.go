// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/spectro-itc/internal/calib"
)

var calibCmd = &cobra.Command{
	Use:   "calib",
	Short: "Manage calibration tables",
}

var calibImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a directory of .dat tables into a calibration database",
	Long: `Import reads every .dat table in --dir and stores it in the SQLite
database at --db, replacing tables of the same name. Calculations read the
database when calib.db_path is set.`,
	RunE: runCalibImport,
}

func runCalibImport(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	dbPath, _ := cmd.Flags().GetString("db")

	db, err := calib.OpenSQLite(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	summary, err := db.Import(cmd.Context(), calib.DirSource{Dir: dir}, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d table(s) failed to import", summary.Failed)
	}
	return nil
}

func init() {
	calibImportCmd.Flags().String("dir", "lib/ghost", "directory of .dat tables")
	calibImportCmd.Flags().String("db", "calib.db", "calibration database path")

	calibCmd.AddCommand(calibImportCmd)
	rootCmd.AddCommand(calibCmd)
}
