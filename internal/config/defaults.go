package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultLogDir          = "~/.local/share/groove/logs"
	defaultLibraryFile     = "library.ndjson"
	defaultSortLocale      = "en-US"
	defaultReadConcurrency = 8
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir(),
			CacheDir: defaultCacheDir(),
			LogDir:   defaultLogDir,
		},
		Library: Library{
			File:       defaultLibraryFile,
			SortLocale: defaultSortLocale,
		},
		Cache: Cache{
			ReadConcurrency: defaultReadConcurrency,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultDataDir() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "groove")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.local/share/groove"
	}
	return filepath.Join(home, ".local", "share", "groove")
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "groove")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/groove"
	}
	return filepath.Join(home, ".cache", "groove")
}
