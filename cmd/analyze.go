package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tablescope/internal/charts"
	"github.com/KaramelBytes/tablescope/internal/loader"
	"github.com/KaramelBytes/tablescope/internal/pipeline"
	"github.com/KaramelBytes/tablescope/internal/utils"
)

// analyzeFlags are shared by analyze and analyze-batch.
type analyzeFlags struct {
	charts            string
	format            string
	datetimeThreshold float64
	sampleRows        int
	topCategories     int
	pairplotMaxRows   int
	delimiter         string
	decimal           string
	thousands         string
	sheetName         string
}

var (
	anaFlags      analyzeFlags
	anaOutputPath string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Profile a CSV/TSV/Parquet/XLSX file and plan its charts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		p, kinds, err := anaFlags.pipeline(cmd)
		if err != nil {
			return err
		}
		out, err := analyzeFile(cmd.Context(), p, path, kinds, anaFlags.format)
		if err != nil {
			return err
		}
		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaFlags.bind(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the analysis")
}

func (f *analyzeFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.charts, "charts", "all", "comma-separated chart kinds, 'all' or 'none'")
	fs.StringVar(&f.format, "format", "markdown", "output format: markdown|json")
	fs.Float64Var(&f.datetimeThreshold, "datetime-threshold", 0, "share of values that must parse for a text column to become datetime (overrides config)")
	fs.IntVar(&f.sampleRows, "sample-rows", 0, "number of head rows to include (overrides config)")
	fs.IntVar(&f.topCategories, "top-categories", 0, "categories shown per category-count chart (overrides config)")
	fs.IntVar(&f.pairplotMaxRows, "pairplot-max-rows", 0, "largest dataset eligible for a pairplot (overrides config)")
	fs.StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|'")
	fs.StringVar(&f.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	fs.StringVar(&f.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
	fs.StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to analyze (default first sheet)")
}

// options layers the changed flags over the loaded configuration.
func (f *analyzeFlags) options(cmd *cobra.Command) (pipeline.Options, error) {
	opt := currentConfig().PipelineOptions()
	fs := cmd.Flags()
	if fs.Changed("datetime-threshold") {
		if f.datetimeThreshold <= 0 || f.datetimeThreshold > 1 {
			return opt, fmt.Errorf("--datetime-threshold must be in (0, 1], got %v", f.datetimeThreshold)
		}
		opt.Analysis.DatetimeThreshold = f.datetimeThreshold
	}
	if fs.Changed("sample-rows") {
		if f.sampleRows < 0 {
			return opt, fmt.Errorf("--sample-rows must not be negative")
		}
		opt.Analysis.SampleRows = f.sampleRows
	}
	if fs.Changed("top-categories") && f.topCategories > 0 {
		opt.Limits.TopCategories = f.topCategories
	}
	if fs.Changed("pairplot-max-rows") && f.pairplotMaxRows > 0 {
		opt.Limits.PairplotMaxRows = f.pairplotMaxRows
	}

	switch f.delimiter {
	case "":
	case ",":
		opt.Load.Delimiter = ','
	case "\t", "tab":
		opt.Load.Delimiter = '\t'
	case ";":
		opt.Load.Delimiter = ';'
	case "|", "pipe":
		opt.Load.Delimiter = '|'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(f.decimal)) {
	case ",", "comma":
		opt.Load.DecimalSeparator = ','
	case ".", "dot":
		opt.Load.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", f.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(f.thousands)) {
	case ",":
		opt.Load.ThousandsSeparator = ','
	case ".":
		opt.Load.ThousandsSeparator = '.'
	case "space", " ":
		opt.Load.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", f.thousands)
	}
	opt.Load.Sheet = f.sheetName
	return opt, nil
}

// pipeline builds a pipeline and the selected chart kinds from the flags.
func (f *analyzeFlags) pipeline(cmd *cobra.Command) (*pipeline.Pipeline, []charts.Kind, error) {
	switch f.format {
	case "markdown", "md", "json":
	default:
		return nil, nil, fmt.Errorf("unsupported --format: %s (use markdown|json)", f.format)
	}
	opt, err := f.options(cmd)
	if err != nil {
		return nil, nil, err
	}
	kinds, err := charts.ParseKinds([]string{f.charts})
	if err != nil {
		return nil, nil, err
	}
	cache := loader.NewCache(currentConfig().CacheEntries)
	return pipeline.New(opt, cache, logger), kinds, nil
}

// analyzeFile runs one file through the pipeline and renders the result.
func analyzeFile(ctx context.Context, p *pipeline.Pipeline, path string, kinds []charts.Kind, format string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	res, err := p.Run(ctx, pipeline.Input{Name: path, Content: content, Kinds: kinds})
	if err != nil {
		logger.Debugf("analyze %s: %v", path, err)
		return nil, errors.New(pipeline.UserMessage(err))
	}
	if format == "json" {
		return utils.PrettyJSON(res)
	}
	return []byte(res.Markdown()), nil
}
