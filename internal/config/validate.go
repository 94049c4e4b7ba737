package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		return errors.New("paths.cache_dir must be set")
	}
	return nil
}

func (c *Config) validateLibrary() error {
	if strings.ContainsRune(c.Library.File, '/') {
		return fmt.Errorf("library.file must be a bare filename, got %q", c.Library.File)
	}
	if _, err := language.Parse(c.Library.SortLocale); err != nil {
		return fmt.Errorf("library.sort_locale: unrecognized locale %q", c.Library.SortLocale)
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.ReadConcurrency < 1 {
		return errors.New("cache.read_concurrency must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

// SortTag returns the parsed collation locale for library ordering.
func (c *Config) SortTag() language.Tag {
	tag, err := language.Parse(c.Library.SortLocale)
	if err != nil {
		return language.English
	}
	return tag
}
