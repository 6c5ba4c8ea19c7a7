package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/choiway/photoguess/internal/exifmeta"
	"github.com/choiway/photoguess/internal/manifest"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file or dir>...",
	Short: "Prints the date and GPS position read from photos",
	Long: `Prints what the manifest builder would read from each photo, without
geocoding or touching the cache. Directories are walked recursively.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var paths []string
		for _, arg := range args {
			found, err := walkdirectory(arg)
			if err != nil {
				return fmt.Errorf("reading %s: %w", arg, err)
			}
			paths = append(paths, found...)
		}
		return inspect(cmd.OutOrStdout(), paths)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

// walkdirectory returns the supported images at or below path.
func walkdirectory(path string) ([]string, error) {
	paths := []string{}

	err := filepath.Walk(path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if manifest.IsSupported(filepath.Base(path)) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return paths, nil
}

func inspect(w io.Writer, paths []string) error {
	type record struct {
		Path string             `yaml:"path"`
		Meta *exifmeta.Metadata `yaml:"metadata"`
	}

	records := make([]record, 0, len(paths))
	for _, p := range paths {
		records = append(records, record{Path: p, Meta: exifmeta.ExtractFile(p)})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(records)
}
