package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabasePath string `json:"databasePath" yaml:"databasePath"`
	CSVRoot      string `json:"csvRoot" yaml:"csvRoot"`
	XLSXRoot     string `json:"xlsxRoot" yaml:"xlsxRoot"`
	CSVEncoding  string `json:"csvEncoding" yaml:"csvEncoding"`
	ListenAddr   string `json:"listenAddr" yaml:"listenAddr"`
	DefaultPhase int    `json:"defaultPhase" yaml:"defaultPhase"`
}

var (
	cfg = Default()
	mu  sync.RWMutex
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "./sintetico_config.json"

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DatabasePath: "programa_sintetico_nem.db",
		CSVRoot:      "CSV_Output",
		XLSXRoot:     "extracted",
		CSVEncoding:  "utf-8",
		ListenAddr:   "127.0.0.1:8000",
		DefaultPhase: 3,
	}
}

func applyDefaults(c *Config) {
	d := Default()
	if c.DatabasePath == "" {
		c.DatabasePath = d.DatabasePath
	}
	if c.CSVRoot == "" {
		c.CSVRoot = d.CSVRoot
	}
	if c.XLSXRoot == "" {
		c.XLSXRoot = d.XLSXRoot
	}
	if c.CSVEncoding == "" {
		c.CSVEncoding = d.CSVEncoding
	}
	if c.ListenAddr == "" {
		c.ListenAddr = d.ListenAddr
	}
	if c.DefaultPhase == 0 {
		c.DefaultPhase = d.DefaultPhase
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadConfig reads path into the global config. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	mu.Lock()
	defer mu.Unlock()

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg = Default()
			return cfg, nil
		}
		return Config{}, err
	}

	var tempCfg Config
	if isYAML(path) {
		err = yaml.Unmarshal(file, &tempCfg)
	} else {
		err = json.Unmarshal(file, &tempCfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	applyDefaults(&tempCfg)
	cfg = tempCfg

	return cfg, nil
}

// SaveConfig writes newCfg to path, in YAML when the extension asks for it.
func SaveConfig(path string, newCfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	applyDefaults(&newCfg)

	var file []byte
	var err error
	if isYAML(path) {
		file, err = yaml.Marshal(newCfg)
	} else {
		file, err = json.MarshalIndent(newCfg, "", "  ")
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, file, 0644); err != nil {
		return err
	}
	cfg = newCfg
	return nil
}

func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// SetConfig replaces the global config, typically after flag overrides.
func SetConfig(c Config) {
	mu.Lock()
	defer mu.Unlock()
	applyDefaults(&c)
	cfg = c
}
