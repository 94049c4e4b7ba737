package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"groove/internal/config"
	"groove/internal/library"
	"groove/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
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
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withLibrary opens the library for one command invocation and closes it
// after the callback returns.
func (c *commandContext) withLibrary(cmd *cobra.Command, fn func(*library.Library) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.newLogger(cfg)
	if err != nil {
		return err
	}
	lib, err := library.Open(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	runErr := fn(lib)
	if closeErr := lib.Close(cmd.Context()); closeErr != nil && runErr == nil {
		runErr = closeErr
	}
	return runErr
}

// newLogger builds a file-only logger so command output on stdout stays
// clean.
func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	logPath := logFilePath(cfg)
	return logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           "json",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
}

func logFilePath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "groove.log")
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
