/*
Copyright © 2021 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/choiway/photoguess/internal/storage"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Creates the local game database",
	Long: `Creates the SQLite database the game keeps its saved session in
(SQLITE_PATH, .photoguess/photoguess.db by default) and the photos directory
if it does not exist yet. Any saved game is discarded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbDir := filepath.Dir(cfg.SQLitePath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dbDir, err)
		}

		log.Info("creating database", "path", cfg.SQLitePath)
		store, err := storage.InitSQLite(cmd.Context(), cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer store.Close()
		log.Info("kv table created")

		if err := os.MkdirAll(cfg.PhotosDir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", cfg.PhotosDir, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized photoguess. Put photos in %s and run `photoguess manifest`.\n", cfg.PhotosDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
