// Package config loads the CoinScript toolchain's configuration: which CLVM
// engine backend to use, the network's address prefix, and logging
// verbosity. It is versioned so that cmd/coinscript and cmd/includelint can
// depend on a stable API contract.
//
// Version: v0.1.0
package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"coinscript/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for the CoinScript toolchain.
type Config struct {
	Network struct {
		// AddressPrefix is the bech32m HRP used when encoding/decoding
		// addresses (§3.4): "xch" for mainnet, "txch" for testnet.
		AddressPrefix string `yaml:"address_prefix"`
	} `yaml:"network"`

	CLVM struct {
		// Engine selects the core.Engine backend: "reference" (default, pure
		// Go, §4.3) or "wasm" (WasmHost, core/clvmengine/wasm.go).
		Engine         string `yaml:"engine"`
		WasmModulePath string `yaml:"wasm_module_path"`
	} `yaml:"clvm"`

	Compiler struct {
		// SearchPaths lists additional include directories. It is decoded
		// from the config file, but no command reads it: `include
		// "name.clib"` directives resolve against the closed catalog only
		// (§4.7).
		SearchPaths []string `yaml:"search_paths"`
	} `yaml:"compiler"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // "text" or "json"
	} `yaml:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

func defaults() Config {
	var c Config
	c.Network.AddressPrefix = "xch"
	c.CLVM.Engine = "reference"
	c.Logging.Level = "info"
	c.Logging.Format = "text"
	return c
}

// Load reads the YAML file at path (if it exists) over top of the built-in
// defaults, then applies environment variable overrides, storing and
// returning the result via AppConfig.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, utils.Wrap(err, "read config file")
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, utils.Wrap(err, "parse config file")
		}
	}
	applyEnvOverrides(&cfg)
	AppConfig = cfg
	return &AppConfig, nil
}

// LoadFromEnv loads .env (if present) via godotenv, then Load()s the file
// named by COINSCRIPT_CONFIG, defaulting to "coinscript.yaml" in the working
// directory.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load() // optional: missing .env is not an error
	path := utils.EnvOrDefault("COINSCRIPT_CONFIG", "coinscript.yaml")
	return Load(path)
}

func applyEnvOverrides(cfg *Config) {
	cfg.Network.AddressPrefix = utils.EnvOrDefault("COINSCRIPT_ADDRESS_PREFIX", cfg.Network.AddressPrefix)
	cfg.CLVM.Engine = utils.EnvOrDefault("COINSCRIPT_CLVM_ENGINE", cfg.CLVM.Engine)
	cfg.CLVM.WasmModulePath = utils.EnvOrDefault("COINSCRIPT_WASM_MODULE", cfg.CLVM.WasmModulePath)
	cfg.Logging.Level = utils.EnvOrDefault("COINSCRIPT_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = utils.EnvOrDefault("COINSCRIPT_LOG_FORMAT", cfg.Logging.Format)
}
