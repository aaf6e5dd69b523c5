package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/arcanadev/arcana/internal/flagx"
	"github.com/arcanadev/arcana/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "3s"
// or as integer nanoseconds.
type JsonConfig struct {
	ServerBaseURL       string         `json:"server_base_url"`
	DatabasePath        string         `json:"database_path"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
}

// parseJson overlays Config with values loaded from a JSON file selected via
// the -c or -config flags. When neither flag is given the function is a noop.
// Read or unmarshal errors panic; configuration happens before anything else
// runs and a broken config file should stop the process.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.ServerBaseURL = jc.ServerBaseURL
	cfg.DatabasePath = jc.DatabasePath
	cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
}
