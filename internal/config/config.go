package config

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"dayahead-sim/internal/bid"
	"dayahead-sim/internal/model"
	"dayahead-sim/internal/scenario"
)

// Config is the on-disk configuration shape (YAML or TOML).
type Config struct {
	Name              string `yaml:"name" toml:"name" json:"name"`
	ScenarioID        string `yaml:"scenario_id" toml:"scenario_id" json:"scenario_id"`
	FirstYear         int    `yaml:"first_year" toml:"first_year" json:"first_year"`
	LastYear          int    `yaml:"last_year" toml:"last_year" json:"last_year"`
	CarbonMarketStart int    `yaml:"carbon_market_start" toml:"carbon_market_start" json:"carbon_market_start"`
	Workers           int    `yaml:"workers" toml:"workers" json:"workers"`

	Simulation     SimulationConfig `yaml:"simulation" toml:"simulation" json:"simulation"`
	Prices         PriceConfig      `yaml:"prices" toml:"prices" json:"prices"`
	Areas          []AreaConfig     `yaml:"areas" toml:"areas" json:"areas"`
	Links          []scenario.Link  `yaml:"links" toml:"links" json:"links"`
	RenewableTypes []string         `yaml:"renewable_types" toml:"renewable_types" json:"renewable_types"`
	Plants         []PlantConfig    `yaml:"plants" toml:"plants" json:"plants"`
	Storage        []StorageConfig  `yaml:"storage" toml:"storage" json:"storage"`

	Source SourceConfig `yaml:"source" toml:"source" json:"source"`
	Cache  CacheConfig  `yaml:"cache" toml:"cache" json:"cache"`
	Output OutputConfig `yaml:"output" toml:"output" json:"output"`
	Log    LogConfig    `yaml:"log" toml:"log" json:"log"`
	Server ServerConfig `yaml:"server" toml:"server" json:"server"`
}

// SimulationConfig narrows what the market engine simulates inside the
// scenario horizon.
type SimulationConfig struct {
	FirstYear   int  `yaml:"first_year" toml:"first_year" json:"first_year"`
	LastYear    int  `yaml:"last_year" toml:"last_year" json:"last_year"`
	DaysPerYear int  `yaml:"days_per_year" toml:"days_per_year" json:"days_per_year"`
	KeepUnits   bool `yaml:"keep_units" toml:"keep_units" json:"keep_units"`
	// BlockSelector is "greedy" or "none".
	BlockSelector string `yaml:"block_selector" toml:"block_selector" json:"block_selector"`
}

type PriceConfig struct {
	Min float64 `yaml:"min" toml:"min" json:"min"`
	Max float64 `yaml:"max" toml:"max" json:"max"`
}

type AreaConfig struct {
	Code          string   `yaml:"code" toml:"code" json:"code"`
	CouplingGroup string   `yaml:"coupling_group" toml:"coupling_group" json:"coupling_group"`
	Neighbours    []string `yaml:"neighbours" toml:"neighbours" json:"neighbours"`
	// NoDemand leaves the area without a demand agent.
	NoDemand bool `yaml:"no_demand" toml:"no_demand" json:"no_demand"`
}

type PlantConfig struct {
	Name                string `yaml:"name" toml:"name" json:"name"`
	Area                string `yaml:"area" toml:"area" json:"area"`
	model.ThermalParams `yaml:",inline"`
}

type StorageConfig struct {
	Name                string  `yaml:"name" toml:"name" json:"name"`
	Area                string  `yaml:"area" toml:"area" json:"area"`
	CycleHours          int     `yaml:"cycle_hours" toml:"cycle_hours" json:"cycle_hours"`
	InitialSOC          float64 `yaml:"initial_soc" toml:"initial_soc" json:"initial_soc"`
	model.StorageParams `yaml:",inline"`
}

// Source kinds.
const (
	SourceFile     = "file"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

type SourceConfig struct {
	Kind string `yaml:"kind" toml:"kind" json:"kind"`
	// Path is the scenario file for "file" and the database file for
	// "sqlite". Relative paths resolve against the config directory.
	Path string `yaml:"path" toml:"path" json:"path"`
	DSN  string `yaml:"dsn" toml:"dsn" json:"dsn"`

	PoolMaxConns int `yaml:"pool_max_conns" toml:"pool_max_conns" json:"pool_max_conns"`
}

// Cache kinds.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type CacheConfig struct {
	Kind          string   `yaml:"kind" toml:"kind" json:"kind"`
	TTL           Duration `yaml:"ttl" toml:"ttl" json:"ttl"`
	RedisAddr     string   `yaml:"redis_addr" toml:"redis_addr" json:"redis_addr"`
	RedisPassword string   `yaml:"redis_password" toml:"redis_password" json:"-"`
	RedisDB       int      `yaml:"redis_db" toml:"redis_db" json:"redis_db"`
}

type OutputConfig struct {
	Dir    string `yaml:"dir" toml:"dir" json:"dir"`
	Ledger string `yaml:"ledger" toml:"ledger" json:"ledger"`
	Units  string `yaml:"units" toml:"units" json:"units"`
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level" json:"level"`
	Format string `yaml:"format" toml:"format" json:"format"`
}

type ServerConfig struct {
	Port        int      `yaml:"port" toml:"port" json:"port"`
	CORSOrigins []string `yaml:"cors_origins" toml:"cors_origins" json:"cors_origins"`
}

// Duration decodes strings like "5m" or "30s" from YAML, TOML and JSON.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config with every optional field set.
func Defaults() Config {
	return Config{
		CarbonMarketStart: scenario.DefaultCarbonMarketStart,
		Simulation:        SimulationConfig{BlockSelector: "greedy"},
		Prices:            PriceConfig{Min: bid.DefaultLimits.Min, Max: bid.DefaultLimits.Max},
		Source:            SourceConfig{Kind: SourceFile, PoolMaxConns: 4},
		Cache:             CacheConfig{Kind: CacheNone, TTL: Duration{10 * time.Minute}},
		Output:            OutputConfig{Dir: "results", Ledger: "ledger.csv", Units: "units.csv"},
		Log:               LogConfig{Level: "info", Format: "text"},
		Server:            ServerConfig{Port: 8080},
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.ScenarioID == "" {
		return errors.New("scenario_id is required")
	}
	if c.FirstYear == 0 || c.LastYear < c.FirstYear {
		return fmt.Errorf("years [%d, %d] are invalid", c.FirstYear, c.LastYear)
	}
	if c.Prices.Min >= c.Prices.Max {
		return fmt.Errorf("prices: min %.2f must be below max %.2f", c.Prices.Min, c.Prices.Max)
	}
	if len(c.Areas) == 0 {
		return errors.New("at least one area is required")
	}
	areas := make(map[string]bool, len(c.Areas))
	for _, a := range c.Areas {
		if a.Code == "" {
			return errors.New("area code is required")
		}
		if areas[a.Code] {
			return fmt.Errorf("area %s listed twice", a.Code)
		}
		areas[a.Code] = true
	}
	for _, l := range c.Links {
		if !areas[l.From] || !areas[l.To] {
			return fmt.Errorf("link %s references an unknown area", l)
		}
	}

	s := c.Simulation
	if s.FirstYear != 0 && (s.FirstYear < c.FirstYear || s.FirstYear > c.LastYear) {
		return fmt.Errorf("simulation.first_year %d outside [%d, %d]", s.FirstYear, c.FirstYear, c.LastYear)
	}
	if s.LastYear != 0 && (s.LastYear < c.FirstYear || s.LastYear > c.LastYear) {
		return fmt.Errorf("simulation.last_year %d outside [%d, %d]", s.LastYear, c.FirstYear, c.LastYear)
	}
	if s.DaysPerYear < 0 || s.DaysPerYear > 365 {
		return fmt.Errorf("simulation.days_per_year %d not in [0, 365]", s.DaysPerYear)
	}
	switch s.BlockSelector {
	case "", "greedy", "none":
	default:
		return fmt.Errorf("simulation.block_selector %q unknown", s.BlockSelector)
	}

	names := make(map[string]bool)
	for _, p := range c.Plants {
		if !areas[p.Area] {
			return fmt.Errorf("plant %s: unknown area %q", p.Name, p.Area)
		}
		if err := unique(names, p.Name); err != nil {
			return err
		}
		if _, err := model.NewThermal(p.Name, p.ThermalParams); err != nil {
			return fmt.Errorf("plant config invalid: %w", err)
		}
	}
	for _, st := range c.Storage {
		if !areas[st.Area] {
			return fmt.Errorf("storage %s: unknown area %q", st.Name, st.Area)
		}
		if err := unique(names, st.Name); err != nil {
			return err
		}
		if _, err := model.NewStorage(st.Name, st.StorageParams, st.InitialSOC); err != nil {
			return fmt.Errorf("storage config invalid: %w", err)
		}
	}

	switch c.Source.Kind {
	case SourceFile, SourceSQLite:
		if c.Source.Path == "" {
			return fmt.Errorf("source.path is required for %s", c.Source.Kind)
		}
	case SourcePostgres:
		if c.Source.DSN == "" {
			return errors.New("source.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("source.kind %q unknown", c.Source.Kind)
	}
	switch c.Cache.Kind {
	case CacheNone, "":
	case CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New("cache.redis_addr is required for redis")
		}
	default:
		return fmt.Errorf("cache.kind %q unknown", c.Cache.Kind)
	}
	if c.Cache.Kind != CacheNone && c.Cache.Kind != "" && c.Cache.TTL.Duration <= 0 {
		return errors.New("cache.ttl must be > 0")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

func unique(seen map[string]bool, name string) error {
	if name == "" {
		return errors.New("unit name is required")
	}
	if seen[name] {
		return fmt.Errorf("unit %s listed twice", name)
	}
	seen[name] = true
	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(strings.ToLower(l.Level))); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", l.Level, err)
	}
	return lvl, nil
}

// Fuels lists the fuels burnt by plants in area, or by all plants when area
// is empty. The result is never nil.
func (c *Config) Fuels(area string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, p := range c.Plants {
		if area != "" && p.Area != area {
			continue
		}
		if !seen[p.Fuel] {
			seen[p.Fuel] = true
			out = append(out, p.Fuel)
		}
	}
	sort.Strings(out)
	return out
}

// Limits returns the configured price limits.
func (c *Config) Limits() bid.Limits {
	return bid.Limits{Min: c.Prices.Min, Max: c.Prices.Max}
}

// Groups maps each area to its coupling group.
func (c *Config) Groups() map[string]string {
	out := make(map[string]string, len(c.Areas))
	for _, a := range c.Areas {
		if a.CouplingGroup != "" {
			out[a.Code] = a.CouplingGroup
		}
	}
	return out
}

// ScenarioOptions translates the config into loader options.
func (c *Config) ScenarioOptions() scenario.Options {
	specs := make([]scenario.AreaSpec, 0, len(c.Areas))
	for _, a := range c.Areas {
		specs = append(specs, scenario.AreaSpec{Code: a.Code, Neighbours: a.Neighbours, Fuels: c.Fuels(a.Code)})
	}
	return scenario.Options{
		ScenarioID:        c.ScenarioID,
		FirstYear:         c.FirstYear,
		LastYear:          c.LastYear,
		Areas:             specs,
		Links:             c.Links,
		RenewableTypes:    c.RenewableTypes,
		CarbonMarketStart: c.CarbonMarketStart,
		Workers:           c.Workers,
	}
}
