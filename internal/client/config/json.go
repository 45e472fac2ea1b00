package config

import (
	"encoding/json"
	"os"

	"github.com/dkruglov/fileshare/internal/flagx"
)

// JsonConfig is the DTO for reading JSON configuration files.
type JsonConfig struct {
	ServerURL    string `json:"server_url"`
	DatabasePath string `json:"database_path"`
	DownloadDir  string `json:"download_dir"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; if neither is set, no JSON file is loaded. Unreadable or invalid
// files panic (configuration errors are fatal at startup).
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.ServerURL = c.ServerURL
	config.DatabasePath = c.DatabasePath
	config.DownloadDir = c.DownloadDir
}
