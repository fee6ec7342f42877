// Package config loads limiter settings from a YAML file and LIMITER_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/CryptoUnit-blockchain/limiter/internal/calendar"
	"github.com/CryptoUnit-blockchain/limiter/internal/model"
)

// EnvPrefix prefixes every environment override, e.g. LIMITER_DATABASE_PATH.
const EnvPrefix = "LIMITER"

type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Roles      RolesConfig      `mapstructure:"roles"`
	Policy     PolicyConfig     `mapstructure:"policy"`
	Currencies CurrenciesConfig `mapstructure:"currencies"`
	Log        LogConfig        `mapstructure:"log"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	ConfigPath string           `mapstructure:"-"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// RolesConfig names the three privileged identities.
type RolesConfig struct {
	Operator          string `mapstructure:"operator"`
	Administrator     string `mapstructure:"administrator"`
	TransferAuthority string `mapstructure:"transfer_authority"`
}

type PolicyConfig struct {
	ReservedCurrency  string `mapstructure:"reserved_currency"`
	Period            string `mapstructure:"period"`
	OperatorMayDecide bool   `mapstructure:"operator_may_decide"`
}

type CurrenciesConfig struct {
	Dir string `mapstructure:"dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// NotifyConfig enables decision fan-out when URL is set.
type NotifyConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

func NewDefault() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "limiter.db"},
		Roles: RolesConfig{
			Operator:          "limiter",
			Administrator:     "debtadmin",
			TransferAuthority: "eosio.token",
		},
		Policy: PolicyConfig{
			ReservedCurrency: "UNTB",
			Period:           string(calendar.PeriodMonth),
		},
		Currencies: CurrenciesConfig{Dir: "currencies"},
		Log:        LogConfig{Level: "info", Format: "json"},
		Notify:     NotifyConfig{Exchange: "limiter.decisions"},
	}
}

// Load reads path (optional) and environment overrides on top of the
// defaults. A missing file is an error only when path was given.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("limiter")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := NewDefault()
	bindDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindDefaults registers every key so AutomaticEnv can override keys that
// the file does not mention.
func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("roles.operator", cfg.Roles.Operator)
	v.SetDefault("roles.administrator", cfg.Roles.Administrator)
	v.SetDefault("roles.transfer_authority", cfg.Roles.TransferAuthority)
	v.SetDefault("policy.reserved_currency", cfg.Policy.ReservedCurrency)
	v.SetDefault("policy.period", cfg.Policy.Period)
	v.SetDefault("policy.operator_may_decide", cfg.Policy.OperatorMayDecide)
	v.SetDefault("currencies.dir", cfg.Currencies.Dir)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("notify.url", cfg.Notify.URL)
	v.SetDefault("notify.exchange", cfg.Notify.Exchange)
}

// Validate checks role names, the reserved code and the period.
func (c *Config) Validate() error {
	var errs []error
	for key, name := range map[string]string{
		"roles.operator":           c.Roles.Operator,
		"roles.administrator":      c.Roles.Administrator,
		"roles.transfer_authority": c.Roles.TransferAuthority,
	} {
		if err := model.Name(name).Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	if err := model.SymbolCode(c.Policy.ReservedCurrency).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("policy.reserved_currency: %w", err))
	}
	if _, err := calendar.ParsePeriod(c.Policy.Period); err != nil {
		errs = append(errs, fmt.Errorf("policy.period: %w", err))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path: must not be empty"))
	}
	return errors.Join(errs...)
}
