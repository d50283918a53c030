package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/tablescope/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set Tablescope configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "datetime_threshold: %.3f\n", c.DatetimeThreshold)
		fmt.Fprintf(out, "sample_rows: %d\n", c.SampleRows)
		fmt.Fprintf(out, "outlier_threshold: %.3f\n", c.OutlierThreshold)
		fmt.Fprintf(out, "top_categories: %d\n", c.TopCategories)
		fmt.Fprintf(out, "correlation_min_columns: %d\n", c.CorrelationMinColumns)
		fmt.Fprintf(out, "scatter_matrix_min_columns: %d\n", c.ScatterMatrixMinColumns)
		fmt.Fprintf(out, "scatter_matrix_max_columns: %d\n", c.ScatterMatrixMaxColumns)
		fmt.Fprintf(out, "pairplot_min_columns: %d\n", c.PairplotMinColumns)
		fmt.Fprintf(out, "pairplot_max_rows: %d\n", c.PairplotMaxRows)
		fmt.Fprintf(out, "pairplot_columns: %d\n", c.PairplotColumns)
		fmt.Fprintf(out, "listen_addr: %s\n", c.ListenAddr)
		fmt.Fprintf(out, "max_upload_mb: %d\n", c.MaxUploadMB)
		fmt.Fprintf(out, "cache_entries: %d\n", c.CacheEntries)
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := cfg.Set(key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
