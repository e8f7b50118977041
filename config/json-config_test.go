package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/carbocation/metaprot/entrez"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseJSONConfigFromPath(t *testing.T) {
	path := writeConfig(t, `{
		"email": "someone@example.org",
		"api_key": "abc123",
		"retry_delay": "2s",
		"min_interval": 0.5,
		"max_attempts": 5,
		"batch_size": 200
	}`)

	cfg, err := ParseJSONConfigFromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Email != "someone@example.org" || cfg.APIKey != "abc123" || cfg.BatchSize != 200 {
		t.Errorf("Unexpected config %+v", cfg)
	}

	client := cfg.Client()
	if client.Email != "someone@example.org" || client.APIKey != "abc123" {
		t.Errorf("Credentials were not passed on: %+v", client)
	}
	if client.Retry.MaxAttempts != 5 || client.Retry.Delay != 2*time.Second {
		t.Errorf("Unexpected retry policy %+v", client.Retry)
	}
	if client.MinInterval != 500*time.Millisecond {
		t.Errorf("Unexpected min interval %v", client.MinInterval)
	}
	if client.BaseURL != entrez.DefaultBaseURL || client.Tool != entrez.DefaultTool {
		t.Errorf("Unset fields should keep client defaults: %s %s", client.BaseURL, client.Tool)
	}
}

func TestEmptyConfigKeepsDefaults(t *testing.T) {
	cfg, err := ParseJSONConfigFromPath(writeConfig(t, `{}`))
	if err != nil {
		t.Fatal(err)
	}

	client := cfg.Client()
	if client.Retry.MaxAttempts != entrez.DefaultMaxAttempts || client.Retry.Delay != entrez.DefaultRetryDelay {
		t.Errorf("Unexpected retry policy %+v", client.Retry)
	}
	if client.MinInterval != entrez.DefaultMinInterval {
		t.Errorf("Unexpected min interval %v", client.MinInterval)
	}
}

func TestZeroMinIntervalIsHonored(t *testing.T) {
	cfg, err := ParseJSONConfigFromPath(writeConfig(t, `{"min_interval": "0s"}`))
	if err != nil {
		t.Fatal(err)
	}
	if d := cfg.Client().MinInterval; d != 0 {
		t.Errorf("Expected an explicit zero interval, got %v", d)
	}
}

func TestBadConfig(t *testing.T) {
	for _, body := range []string{
		`{"email": }`,
		`{"retry_delay": "soon"}`,
		`{"retry_delay": true}`,
		`{"batch_size": -1}`,
	} {
		if _, err := ParseJSONConfigFromPath(writeConfig(t, body)); err == nil {
			t.Errorf("%s: expected an error", body)
		}
	}

	if _, err := ParseJSONConfigFromPath(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
