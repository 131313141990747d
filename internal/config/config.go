package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Identity IdentityConfig `mapstructure:"identity"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Cron     CronConfig     `mapstructure:"cron"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
	TxRetries       int           `mapstructure:"tx_retries"`
}

// RedisConfig configures the job lock backend. An empty Addr keeps locks in-process.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type IdentityConfig struct {
	// Mode is "jwt" (verify locally) or "remote" (ask the identity service).
	Mode          string        `mapstructure:"mode"`
	JWTSecret     string        `mapstructure:"jwt_secret"`
	JWTIssuer     string        `mapstructure:"jwt_issuer"`
	RemoteBaseURL string        `mapstructure:"remote_base_url"`
	RemoteTimeout time.Duration `mapstructure:"remote_timeout"`
	Disabled      bool          `mapstructure:"disabled"`
	// OperatorSubjects may call settlement, games, archive and switch routes.
	OperatorSubjects []string `mapstructure:"operator_subjects"`
}

type LedgerConfig struct {
	BusinessTimezone  string         `mapstructure:"business_timezone"`
	MaxBatchOps       int            `mapstructure:"max_batch_ops"`
	RevertConcurrency int            `mapstructure:"revert_concurrency"`
	Rates             map[string]int `mapstructure:"rates"`
}

// RateTable returns the payout rates keyed by upper-case gamecode; viper folds map keys to lower case.
func (c LedgerConfig) RateTable() map[string]int {
	out := make(map[string]int, len(c.Rates))
	for code, rate := range c.Rates {
		out[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	return out
}

type CronConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Shift        string `mapstructure:"shift"`
	Archive      string `mapstructure:"archive"`
	ClearResults string `mapstructure:"clear_results"`
}

type JobsConfig struct {
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.tx_retries", 5)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("identity.mode", "jwt")
	v.SetDefault("identity.jwt_secret", "")
	v.SetDefault("identity.jwt_issuer", "")
	v.SetDefault("identity.remote_base_url", "")
	v.SetDefault("identity.remote_timeout", "5s")
	v.SetDefault("identity.disabled", false)
	v.SetDefault("identity.operator_subjects", []string{})
	v.SetDefault("ledger.business_timezone", "Asia/Kolkata")
	v.SetDefault("ledger.max_batch_ops", 500)
	v.SetDefault("ledger.revert_concurrency", 4)
	v.SetDefault("ledger.rates", map[string]int{
		"SD": 95,
		"JD": 950,
		"SP": 1500,
		"DP": 3000,
		"TP": 7000,
		"HS": 10000,
		"FS": 100000,
	})
	// Schedules use seconds and run in the business timezone.
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.shift", "0 30 23 * * *")
	v.SetDefault("cron.archive", "0 15 0 * * *")
	v.SetDefault("cron.clear_results", "0 0 5 * * *")
	v.SetDefault("jobs.lock_ttl", "10m")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
