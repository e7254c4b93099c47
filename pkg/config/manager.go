package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ducminhle1904/sentiment-dca-backtest/internal/sentiment"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "SDCA_"

// Manager loads, merges and validates configuration
type Manager struct {
	validator *Validator
	lookupEnv func(string) (string, bool)
}

// NewManager creates a configuration manager reading the process environment
func NewManager() *Manager {
	return &Manager{
		validator: NewValidator(),
		lookupEnv: os.LookupEnv,
	}
}

// NewManagerWithEnv creates a manager with a custom environment lookup
func NewManagerWithEnv(lookup func(string) (string, bool)) *Manager {
	return &Manager{
		validator: NewValidator(),
		lookupEnv: lookup,
	}
}

// LoadConfig merges defaults, the optional config file and environment
// overrides. Flags are applied by the caller before Validate.
func (m *Manager) LoadConfig(configFile string) (*AppConfig, error) {
	cfg := NewDefaultConfig()

	if configFile != "" {
		if err := m.loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := m.applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}
	return cfg, nil
}

// Validate validates a configuration
func (m *Manager) Validate(cfg *AppConfig) error {
	if err := m.validator.Validate(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// loadFromFile loads a JSON or YAML file on top of cfg
func (m *Manager) loadFromFile(configFile string, cfg *AppConfig) error {
	raw, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("could not read config file: %w", err)
	}

	// a file that lists multipliers replaces the defaults as a whole
	defaults := cfg.Multipliers
	cfg.Multipliers = nil

	switch strings.ToLower(filepath.Ext(configFile)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, cfg)
	case ".json", "":
		err = json.Unmarshal(raw, cfg)
	default:
		return fmt.Errorf("unsupported config format %q (use .json, .yaml or .yml)", filepath.Ext(configFile))
	}
	if err != nil {
		return fmt.Errorf("could not parse config file %s: %w", configFile, err)
	}

	if cfg.Multipliers == nil {
		cfg.Multipliers = defaults
	}
	return nil
}

// SaveConfig writes cfg as JSON or YAML depending on the extension
func SaveConfig(path string, cfg *AppConfig) error {
	var (
		raw []byte
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err = yaml.Marshal(cfg)
	default:
		raw, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, raw, 0644)
}

func (m *Manager) applyEnv(cfg *AppConfig) error {
	floatVars := map[string]*float64{
		"WEEKLY_BUDGET":   &cfg.WeeklyBudget,
		"INITIAL_CASH":    &cfg.InitialCash,
		"TRANSACTION_FEE": &cfg.TransactionFee,
		"EXPENSE_RATIO":   &cfg.ExpenseRatio,
	}
	for name, dst := range floatVars {
		if v, ok := m.lookupEnv(EnvPrefix + name); ok && v != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = f
		}
	}

	stringVars := map[string]*string{
		"PURCHASE_DAY":     &cfg.PurchaseDay,
		"START_DATE":       &cfg.StartDate,
		"END_DATE":         &cfg.EndDate,
		"SENTIMENT_SOURCE": &cfg.Data.SentimentSource,
		"SENTIMENT_FILE":   &cfg.Data.SentimentFile,
		"PRICE_SOURCE":     &cfg.Data.PriceSource,
		"PRICE_FILE":       &cfg.Data.PriceFile,
		"BYBIT_SYMBOL":     &cfg.Data.BybitSymbol,
		"SEARCH_DATABASE":  &cfg.Search.Database,
		"METRICS_ADDR":     &cfg.Search.MetricsAddr,
		"OUTPUT_DIR":       &cfg.Output.Dir,
	}
	for name, dst := range stringVars {
		if v, ok := m.lookupEnv(EnvPrefix + name); ok && v != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	intVars := map[string]*int{
		"SEARCH_EVALUATIONS": &cfg.Search.Evaluations,
		"SEARCH_WORKERS":     &cfg.Search.Workers,
		"SEARCH_TOP_N":       &cfg.Search.TopN,
	}
	for name, dst := range intVars {
		if v, ok := m.lookupEnv(EnvPrefix + name); ok && v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = n
		}
	}

	if v, ok := m.lookupEnv(EnvPrefix + "SEARCH_SEED"); ok && v != "" {
		seed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("%sSEARCH_SEED: %w", EnvPrefix, err)
		}
		cfg.Search.Seed = seed
	}

	if v, ok := m.lookupEnv(EnvPrefix + "TICKERS"); ok && v != "" {
		cfg.Data.Tickers = SplitList(v)
	}

	if v, ok := m.lookupEnv(EnvPrefix + "MULTIPLIERS"); ok && v != "" {
		mult, err := sentiment.ParseMultipliers(v)
		if err != nil {
			return fmt.Errorf("%sMULTIPLIERS: %w", EnvPrefix, err)
		}
		cfg.Multipliers = mult.ToMap()
	}
	return nil
}

// SplitList splits a comma separated list, dropping empty items
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}
