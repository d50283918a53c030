package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DatetimeThreshold != 0.9 || c.TopCategories != 10 || c.PairplotMaxRows != 5000 || c.PairplotColumns != 4 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	lim := c.Limits()
	if lim.ScatterMatrixMinColumns != 2 || lim.ScatterMatrixMaxColumns != 10 || lim.CorrelationMinColumns != 2 {
		t.Fatalf("unexpected limits: %+v", lim)
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("top_categories: 5\npairplot_max_rows: 100\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("TABLESCOPE_PAIRPLOT_MAX_ROWS", "250")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.TopCategories != 5 {
		t.Fatalf("top_categories = %d, want 5 from file", c.TopCategories)
	}
	if c.PairplotMaxRows != 250 {
		t.Fatalf("pairplot_max_rows = %d, want 250 from env", c.PairplotMaxRows)
	}
	opt := c.PipelineOptions()
	if opt.Limits.PairplotMaxRows != 250 || opt.Analysis.DatetimeThreshold != 0.9 {
		t.Fatalf("pipeline options = %+v", opt)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TABLESCOPE_SAMPLE_ROWS=9\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("TABLESCOPE_SAMPLE_ROWS") })
	c, err := Load(filepath.Join(dir, "none.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.SampleRows != 9 {
		t.Fatalf("sample_rows = %d, want 9 from .env", c.SampleRows)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("datetime_threshold: 1.5\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestSetAndSaveRoundTrip(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := c.Set("datetime_threshold", "0.75"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set("scatter_matrix_min_columns", "20"); err == nil {
		t.Fatalf("min > max should be rejected")
	}
	if c.ScatterMatrixMinColumns != 2 {
		t.Fatalf("failed Set must not change config")
	}
	if err := c.Set("nope", "1"); err == nil {
		t.Fatalf("unknown key should be rejected")
	}
	if err := Save(c, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.DatetimeThreshold != 0.75 {
		t.Fatalf("datetime_threshold = %v after reload", again.DatetimeThreshold)
	}
}
