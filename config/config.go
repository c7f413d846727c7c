package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Tax       TaxConfig       `mapstructure:"tax"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Solana    SolanaConfig    `mapstructure:"solana"`
	Privacy   PrivacyConfig   `mapstructure:"privacy"`
	Report    ReportConfig    `mapstructure:"report"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// TaxConfig holds the default two-tier rate pair. Rates are decimal strings.
type TaxConfig struct {
	ShortTermRate string `mapstructure:"short_term_rate"`
	LongTermRate  string `mapstructure:"long_term_rate"`
}

// Rates parses the configured rate strings.
func (t TaxConfig) Rates() (short, long decimal.Decimal, err error) {
	short, err = decimal.NewFromString(t.ShortTermRate)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("parsing tax.short_term_rate: %w", err)
	}
	long, err = decimal.NewFromString(t.LongTermRate)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("parsing tax.long_term_rate: %w", err)
	}
	return short, long, nil
}

// ProvidersConfig configures the historical price sources.
// Order lists provider names in priority order; unknown names are rejected at startup.
type ProvidersConfig struct {
	Order             []string            `mapstructure:"order"`
	RequestTimeout    time.Duration       `mapstructure:"request_timeout"`
	RequestsPerSecond float64             `mapstructure:"requests_per_second"`
	CoinGecko         CoinGeckoConfig     `mapstructure:"coingecko"`
	CoinMarketCap     CoinMarketCapConfig `mapstructure:"coinmarketcap"`
}

type CoinGeckoConfig struct {
	BaseURL string            `mapstructure:"base_url"`
	APIKey  string            `mapstructure:"api_key"`
	CoinIDs map[string]string `mapstructure:"coin_ids"` // symbol -> coingecko id overrides
}

type CoinMarketCapConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type SolanaConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	SignatureLimit int           `mapstructure:"signature_limit"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type PrivacyConfig struct {
	AESKey         string `mapstructure:"aes_key"`         // 32-byte hex-encoded key for AES-256
	FingerprintKey string `mapstructure:"fingerprint_key"` // keyed BLAKE2b secret for wallet lookups
}

type ReportConfig struct {
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	HistoryLimit int           `mapstructure:"history_limit"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: VTX_.
// Nested keys use underscore: VTX_TAX_SHORT_TERM_RATE, VTX_SOLANA_RPC_URL, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "vertax")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("tax.short_term_rate", "0.25")
	v.SetDefault("tax.long_term_rate", "0.15")
	v.SetDefault("providers.order", []string{"coingecko", "coinmarketcap"})
	v.SetDefault("providers.request_timeout", "10s")
	v.SetDefault("providers.requests_per_second", 0.25)
	v.SetDefault("providers.coingecko.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("providers.coingecko.api_key", "")
	v.SetDefault("providers.coinmarketcap.base_url", "https://pro-api.coinmarketcap.com")
	v.SetDefault("providers.coinmarketcap.api_key", "")
	v.SetDefault("solana.rpc_url", "https://api.mainnet-beta.solana.com")
	v.SetDefault("solana.signature_limit", 1000)
	v.SetDefault("solana.timeout", "30s")
	v.SetDefault("privacy.aes_key", "")
	v.SetDefault("privacy.fingerprint_key", "")
	v.SetDefault("report.cache_ttl", "1h")
	v.SetDefault("report.history_limit", 20)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// VTX_SOLANA_RPC_URL -> solana.rpc_url
	v.SetEnvPrefix("VTX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; env vars can suffice.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
