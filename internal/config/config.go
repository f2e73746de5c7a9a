package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/efreitasn/nftmarket/internal/domain"
)

// DefaultContractAddress is the custody account used when CONTRACT_ADDRESS
// is unset.
const DefaultContractAddress = "0x000000000000000000000000000000000000c0de"

// maxTokenDecimals keeps one whole unit well inside 256 bits.
const maxTokenDecimals = 36

// Config holds all runtime configuration for the marketplace.
type Config struct {
	Port            int
	LogLevel        string
	ContractAddress domain.AccountID
	GenesisOwner    *domain.AccountID // nil skips the genesis mint
	TokenDecimals   int32
	WebhookTimeout  time.Duration
	Redis           RedisConfig
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// RedisConfig configures the optional event publisher. An empty Addr
// disables it.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	ChannelPrefix string
}

// fileConfig mirrors the optional TOML file. Durations are strings in Go
// duration syntax and are validated like their environment counterparts.
type fileConfig struct {
	Port            *int   `toml:"port"`
	LogLevel        string `toml:"log_level"`
	ContractAddress string `toml:"contract_address"`
	GenesisOwner    string `toml:"genesis_owner"`
	TokenDecimals   *int   `toml:"token_decimals"`
	WebhookTimeout  string `toml:"webhook_timeout"`
	ReadTimeout     string `toml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	IdleTimeout     string `toml:"idle_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`

	Redis struct {
		Addr          string `toml:"addr"`
		Password      string `toml:"password"`
		DB            *int   `toml:"db"`
		ChannelPrefix string `toml:"channel_prefix"`
	} `toml:"redis"`
}

// source resolves a key from the environment first, then from the config
// file.
type source map[string]string

func (s source) get(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return s[key]
}

// Load reads configuration and validates it. A .env file in the working
// directory is loaded when present, then the TOML file named by
// CONFIG_FILE, and finally environment variables override both. A
// malformed .env is an error; a missing one is not.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	src := source{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		var err error
		if src, err = readFile(path); err != nil {
			return nil, err
		}
	}

	port, err := getInt(src, "PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT: %d, must be between 1 and 65535", port)
	}

	logLevel := getStr(src, "LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	contract, err := domain.ParseAccountID(getStr(src, "CONTRACT_ADDRESS", DefaultContractAddress))
	if err != nil {
		return nil, fmt.Errorf("invalid CONTRACT_ADDRESS: %w", err)
	}

	var genesisOwner *domain.AccountID
	if v := src.get("GENESIS_OWNER"); v != "" {
		owner, err := domain.ParseAccountID(v)
		if err != nil {
			return nil, fmt.Errorf("invalid GENESIS_OWNER: %w", err)
		}
		if owner == contract {
			return nil, fmt.Errorf("invalid GENESIS_OWNER: must differ from CONTRACT_ADDRESS")
		}
		genesisOwner = &owner
	}

	decimals, err := getInt(src, "TOKEN_DECIMALS", 12)
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_DECIMALS: %w", err)
	}
	if decimals < 0 || decimals > maxTokenDecimals {
		return nil, fmt.Errorf("invalid TOKEN_DECIMALS: %d, must be between 0 and %d", decimals, maxTokenDecimals)
	}

	webhookTimeout, err := getDuration(src, "WEBHOOK_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_TIMEOUT: %w", err)
	}

	redisDB, err := getInt(src, "REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	readTimeout, err := getDuration(src, "READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration(src, "WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration(src, "IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration(src, "SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:            port,
		LogLevel:        logLevel,
		ContractAddress: contract,
		GenesisOwner:    genesisOwner,
		TokenDecimals:   int32(decimals),
		WebhookTimeout:  webhookTimeout,
		Redis: RedisConfig{
			Addr:          src.get("REDIS_ADDR"),
			Password:      src.get("REDIS_PASSWORD"),
			DB:            redisDB,
			ChannelPrefix: getStr(src, "REDIS_CHANNEL_PREFIX", "nftmarket:"),
		},
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		ShutdownTimeout: shutdownTimeout,
	}, nil
}

// readFile decodes the TOML file at path into a source keyed like the
// environment.
func readFile(path string) (source, error) {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return nil, fmt.Errorf("read CONFIG_FILE %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("read CONFIG_FILE %s: unknown key %q", path, undecoded[0].String())
	}

	src := source{
		"LOG_LEVEL":            fc.LogLevel,
		"CONTRACT_ADDRESS":     fc.ContractAddress,
		"GENESIS_OWNER":        fc.GenesisOwner,
		"WEBHOOK_TIMEOUT":      fc.WebhookTimeout,
		"READ_TIMEOUT":         fc.ReadTimeout,
		"WRITE_TIMEOUT":        fc.WriteTimeout,
		"IDLE_TIMEOUT":         fc.IdleTimeout,
		"SHUTDOWN_TIMEOUT":     fc.ShutdownTimeout,
		"REDIS_ADDR":           fc.Redis.Addr,
		"REDIS_PASSWORD":       fc.Redis.Password,
		"REDIS_CHANNEL_PREFIX": fc.Redis.ChannelPrefix,
	}
	if fc.Port != nil {
		src["PORT"] = strconv.Itoa(*fc.Port)
	}
	if fc.TokenDecimals != nil {
		src["TOKEN_DECIMALS"] = strconv.Itoa(*fc.TokenDecimals)
	}
	if fc.Redis.DB != nil {
		src["REDIS_DB"] = strconv.Itoa(*fc.Redis.DB)
	}
	return src, nil
}

func getStr(src source, key, defaultVal string) string {
	v := src.get(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(src source, key string, defaultVal int) (int, error) {
	v := src.get(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getDuration(src source, key string, defaultVal time.Duration) (time.Duration, error) {
	v := src.get(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", v)
	}
	return d, nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
