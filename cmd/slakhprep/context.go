package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"slakhprep/internal/config"
	"slakhprep/internal/logging"
	"slakhprep/internal/preflight"
	"slakhprep/internal/prep"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *logging.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
			if err := cfg.Validate(); err != nil {
				c.configErr = fmt.Errorf("--log-level: %w", err)
				return
			}
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		c.logger = logger
	})
	if c.loggerErr != nil {
		return nil, c.loggerErr
	}
	return c.logger.Logger, nil
}

// close releases the log file opened for the command, if any.
func (c *commandContext) close() error {
	if c.logger == nil {
		return nil
	}
	return c.logger.Close()
}

func (c *commandContext) newService(progress io.Writer) (*prep.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return prep.New(cfg, logger, prep.WithProgressWriter(progress))
}

// resolveSplits returns args, or the configured splits when none are given.
func (c *commandContext) resolveSplits(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if len(cfg.Dataset.Splits) == 0 {
		return nil, fmt.Errorf("no splits given and dataset.splits is empty")
	}
	return cfg.Dataset.Splits, nil
}

// runPreflight prints failed checks and returns preflight.ErrFailed when any
// check did not pass.
func (c *commandContext) runPreflight(cmd *cobra.Command, splits []string) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	results := preflight.RunAll(cfg, splits)
	if err := preflight.Err(results); err != nil {
		out := cmd.ErrOrStderr()
		colorize := shouldColorize(out)
		for _, r := range results {
			if !r.Passed {
				fmt.Fprintln(out, renderStatusLine(r.Name, statusError, r.Detail, colorize))
			}
		}
		return err
	}
	return nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
