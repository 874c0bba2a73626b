package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config formats understood by Parse.
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
	FormatJSON = "json"
)

// Load reads the config at path, applies .env and DAMS_* overrides and
// validates the result.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(raw, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	// A .env next to the config wins over one in the working directory;
	// missing files are fine.
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))
	_ = godotenv.Load()
	applyEnvOverrides(c)

	c.Source.Path = resolve(path, c.Source.Path)
	return c, nil
}

// FromEnv returns Defaults with the working directory .env and DAMS_*
// overrides applied. Servers use it when no config file is given.
func FromEnv() *Config {
	c := Defaults()
	_ = godotenv.Load()
	applyEnvOverrides(&c)
	return &c
}

// Parse decodes raw on top of Defaults.
func Parse(raw []byte, format string) (*Config, error) {
	c := Defaults()
	switch format {
	case FormatTOML:
		if _, err := toml.Decode(string(raw), &c); err != nil {
			return nil, err
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&c); err != nil {
			return nil, err
		}
	case FormatYAML, "":
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown config format %q", format)
	}
	for i := range c.Storage {
		if c.Storage[i].InitialSOC == 0 {
			c.Storage[i].InitialSOC = c.Storage[i].MinSOC
		}
	}
	return &c, nil
}

// FormatFromPath picks the format from the file extension; anything that
// is not .toml or .json is read as YAML.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// resolve interprets p relative to the config file directory, but falls
// back to the provided path (relative to cwd) if that doesn't exist.
func resolve(configPath, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	cand := filepath.Join(filepath.Dir(configPath), p)
	if _, err := os.Stat(cand); err == nil {
		return cand
	}
	return p
}

// applyEnvOverrides reads DAMS_* environment variables and overwrites the
// corresponding fields when a variable is set, so deployments can inject
// data source credentials without touching the file.
func applyEnvOverrides(c *Config) {
	setStr(&c.ScenarioID, "DAMS_SCENARIO_ID")
	setInt(&c.Workers, "DAMS_WORKERS")

	setStr(&c.Source.Kind, "DAMS_SOURCE_KIND")
	setStr(&c.Source.Path, "DAMS_SOURCE_PATH")
	setStr(&c.Source.DSN, "DAMS_SOURCE_DSN")
	setInt(&c.Source.PoolMaxConns, "DAMS_SOURCE_POOL_MAX_CONNS")

	setStr(&c.Cache.Kind, "DAMS_CACHE_KIND")
	setDuration(&c.Cache.TTL, "DAMS_CACHE_TTL")
	setStr(&c.Cache.RedisAddr, "DAMS_REDIS_ADDR")
	setStr(&c.Cache.RedisPassword, "DAMS_REDIS_PASSWORD")
	setInt(&c.Cache.RedisDB, "DAMS_REDIS_DB")

	setInt(&c.Simulation.DaysPerYear, "DAMS_DAYS_PER_YEAR")
	setStr(&c.Output.Dir, "DAMS_OUTPUT_DIR")

	setStr(&c.Log.Level, "DAMS_LOG_LEVEL")
	setStr(&c.Log.Format, "DAMS_LOG_FORMAT")

	setInt(&c.Server.Port, "DAMS_SERVER_PORT")
	setStringSlice(&c.Server.CORSOrigins, "DAMS_SERVER_CORS_ORIGINS")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		*dst = cleaned
	}
}
