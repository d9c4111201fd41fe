// Copyright 2023 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the gateway process configuration once at startup from
// command line flags, an optional dotenv file, and environment variables.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/thediveo/spagate"
)

// Environment variables overriding the corresponding command line flags.
const (
	EnvEnv        = "ENV"
	EnvAPIBaseURL = "API_BASE_URL"
	EnvAddr       = "SPAGATE_ADDR"
	EnvOpsAddr    = "SPAGATE_OPS_ADDR"
	EnvStaticDir  = "SPAGATE_STATIC_DIR"
	EnvIndex      = "SPAGATE_INDEX"
	EnvLogLevel   = "SPAGATE_LOG_LEVEL"
)

// Config is the process configuration of the gateway server.
type Config struct {
	Addr      string     // listen address, such as ":8000".
	OpsAddr   string     // listen address for health and metrics; empty disables.
	StaticDir string     // absolute path of the SPA build directory.
	Index     string     // index template name inside StaticDir.
	EnvFile   string     // dotenv file that was consulted, if any.
	LogLevel  slog.Level // parsed log level.
	Runtime   spagate.RuntimeConfig
}

// Load returns the configuration from the specified command line arguments
// (without the program name), the dotenv file, and the environment, in
// increasing order of precedence. Variables from the dotenv file never
// override variables already set in the environment; a missing dotenv file
// is silently skipped.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	var logLevel string

	flags := flag.NewFlagSet("spagate", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.StringVar(&cfg.Addr, "addr", ":8000", "HTTP listen address")
	flags.StringVar(&cfg.OpsAddr, "ops-addr", ":9090", "HTTP listen address for /healthz and /metrics (empty disables)")
	flags.StringVar(&cfg.StaticDir, "static-dir", "frontend/dist", "SPA build directory to serve")
	flags.StringVar(&cfg.Index, "index", spagate.DefaultIndex, "index template inside the SPA build directory")
	flags.StringVar(&cfg.EnvFile, "env-file", ".env", "dotenv file to load, if present")
	flags.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("invalid command line: %w", err)
	}

	if cfg.EnvFile != "" {
		if err := godotenv.Load(cfg.EnvFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("cannot load %s: %w", cfg.EnvFile, err)
			}
			cfg.EnvFile = ""
		}
	}

	// Runtime values set to empty on purpose stay empty; the SPA gets what
	// the operator configured.
	cfg.Runtime = spagate.RuntimeConfig{
		Env:        lookupenv(EnvEnv, spagate.DefaultEnv),
		APIBaseURL: lookupenv(EnvAPIBaseURL, spagate.DefaultAPIBaseURL),
	}
	cfg.Addr = getenv(EnvAddr, cfg.Addr)
	cfg.OpsAddr = lookupenv(EnvOpsAddr, cfg.OpsAddr)
	cfg.StaticDir = getenv(EnvStaticDir, cfg.StaticDir)
	cfg.Index = getenv(EnvIndex, cfg.Index)
	cfg.LogLevel = ParseLogLevel(getenv(EnvLogLevel, logLevel))

	staticDir, err := filepath.Abs(cfg.StaticDir)
	if err != nil {
		return nil, fmt.Errorf("invalid static directory %q: %w", cfg.StaticDir, err)
	}
	cfg.StaticDir = staticDir
	return cfg, nil
}

// getenv returns the value of the named environment variable, or def if it is
// unset or empty.
func getenv(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

// lookupenv returns the value of the named environment variable, even if
// empty, or def if it is unset.
func lookupenv(name, def string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return def
}

// ParseLogLevel parses a log level name, defaulting to info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
