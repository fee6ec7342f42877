package cli

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/CryptoUnit-blockchain/limiter/internal/calendar"
	"github.com/CryptoUnit-blockchain/limiter/internal/config"
	"github.com/CryptoUnit-blockchain/limiter/internal/directory"
	"github.com/CryptoUnit-blockchain/limiter/internal/engine"
	"github.com/CryptoUnit-blockchain/limiter/internal/logger"
	"github.com/CryptoUnit-blockchain/limiter/internal/model"
	"github.com/CryptoUnit-blockchain/limiter/internal/notify"
	"github.com/CryptoUnit-blockchain/limiter/internal/store"
)

// app is everything a command needs to talk to one limiter database.
type app struct {
	cfg       *config.Config
	log       *logrus.Logger
	store     *store.Store
	dir       *directory.Registry
	engine    *engine.Engine
	publisher *notify.Publisher
}

// loadConfig reads the config file and applies the global flag overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Database.Path = opts.Database
	}
	if opts.Currencies != "" {
		cfg.Currencies.Dir = opts.Currencies
	}
	return cfg, nil
}

// newLogger writes to the command's stderr so stdout stays clean for JSON.
func newLogger(opts *RootOptions, cfg *config.Config, cmd *cobra.Command) (*logrus.Logger, error) {
	level := cfg.Log.Level
	if opts.Verbose {
		level = "debug"
	}
	log, err := logger.New(cmd.ErrOrStderr(), level, cfg.Log.Format)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to configure logging", err)
	}
	return log, nil
}

// roles converts the configured role names.
func roles(cfg *config.Config) engine.Roles {
	return engine.Roles{
		Operator:          model.Name(cfg.Roles.Operator),
		Administrator:     model.Name(cfg.Roles.Administrator),
		TransferAuthority: model.Name(cfg.Roles.TransferAuthority),
	}
}

// policy converts the configured policy. cfg has been validated, so the
// period parses.
func policy(cfg *config.Config) engine.Policy {
	period, _ := calendar.ParsePeriod(cfg.Policy.Period)
	return engine.Policy{
		ReservedCurrency:  model.SymbolCode(cfg.Policy.ReservedCurrency),
		Period:            period,
		OperatorMayDecide: cfg.Policy.OperatorMayDecide,
	}
}

// openApp wires config, logger, store, currency directory, publisher and
// engine. The caller must Close the result.
func openApp(opts *RootOptions, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(opts, cfg, cmd)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log}

	a.store, err = store.Open(cfg.Database.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	a.dir, err = directory.LoadDir(cfg.Currencies.Dir)
	if err != nil {
		a.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load currencies", err)
	}

	engineOpts := []engine.Option{
		engine.WithRoles(roles(cfg)),
		engine.WithPolicy(policy(cfg)),
		engine.WithLogger(log),
	}
	if cfg.Notify.URL != "" {
		a.publisher, err = notify.Dial(cfg.Notify.URL, cfg.Notify.Exchange, log)
		if err != nil {
			a.Close()
			return nil, WrapExitError(ExitCommandError, "failed to connect notifier", err)
		}
		engineOpts = append(engineOpts, engine.WithPublisher(a.publisher))
	}

	a.engine = engine.New(a.store, a.dir, engineOpts...)

	log.WithFields(logrus.Fields{
		"database":   cfg.Database.Path,
		"currencies": a.dir.Codes(),
		"config":     cfg.ConfigPath,
	}).Debug("limiter opened")
	return a, nil
}

// Close releases the publisher and the store.
func (a *app) Close() error {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}
