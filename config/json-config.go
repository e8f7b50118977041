package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/carbocation/metaprot"
	"github.com/carbocation/metaprot/entrez"
	"github.com/carbocation/pfx"
)

// JSONConfig holds settings that are awkward to pass on the command line,
// chiefly the E-utilities credentials.
type JSONConfig struct {
	ConfigPath string `json:"-"`

	Email   string `json:"email"`
	APIKey  string `json:"api_key"`
	Tool    string `json:"tool"`
	BaseURL string `json:"base_url"`

	MaxAttempts int      `json:"max_attempts"`
	RetryDelay  Duration `json:"retry_delay"`
	MinInterval Duration `json:"min_interval"`

	BatchSize int `json:"batch_size"`
}

// Duration accepts either a Go duration string ("10s") or a number of
// seconds.
type Duration struct {
	time.Duration
	Set bool
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value * float64(time.Second))
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	d.Set = true

	return nil
}

func ParseJSONConfigFromPath(path string) (JSONConfig, error) {
	out := JSONConfig{ConfigPath: metaprot.ExpandHome(path)}

	f, err := os.Open(out.ConfigPath)
	if err != nil {
		return out, pfx.Err(err)
	}
	defer f.Close()

	err = json.NewDecoder(f).Decode(&out)
	if err != nil {
		if e, ok := err.(*json.SyntaxError); ok {
			log.Printf("syntax error at byte offset %d", e.Offset)
		}

		return out, pfx.Err(err)
	}

	if out.MaxAttempts < 0 || out.BatchSize < 0 {
		return out, pfx.Err(fmt.Errorf("%s: max_attempts and batch_size may not be negative", out.ConfigPath))
	}

	return out, nil
}

// Client builds an E-utilities client. Settings left unset keep the client
// defaults.
func (c JSONConfig) Client() *entrez.Client {
	client := entrez.NewClient(c.Email, c.APIKey)

	if c.Tool != "" {
		client.Tool = c.Tool
	}
	if c.BaseURL != "" {
		client.BaseURL = c.BaseURL
	}
	if c.MaxAttempts > 0 {
		client.Retry.MaxAttempts = c.MaxAttempts
	}
	if c.RetryDelay.Set {
		client.Retry.Delay = c.RetryDelay.Duration
	}
	if c.MinInterval.Set {
		client.MinInterval = c.MinInterval.Duration
	}

	return client
}
