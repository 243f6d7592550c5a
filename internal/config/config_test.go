package config

import (
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/autoanalyst/internal/ai"
)

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Model != ai.DefaultModel {
		t.Fatalf("model = %q, want %q", c.Model, ai.DefaultModel)
	}
	if c.HTTPTimeoutSec != 60 || c.ListenAddr != ":8080" {
		t.Fatalf("defaults = %+v", c)
	}
}

func TestLoadAPIKeyFromEnv(t *testing.T) {
	t.Setenv("AUTOANALYST_API_KEY", "gsk_from_env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.APIKey != "gsk_from_env" {
		t.Fatalf("api key = %q, want value from env", c.APIKey)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	in := &Global{
		APIKey:         "gsk_test",
		Model:          "other-model",
		BaseURL:        "http://127.0.0.1:9999/v1",
		HTTPTimeoutSec: 15,
		ListenAddr:     ":9090",
	}
	if err := Save(in, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *out != *in {
		t.Fatalf("round trip mismatch:\nin:  %+v\nout: %+v", in, out)
	}
}
