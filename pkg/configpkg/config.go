// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
//
// The values are read by viper fron a config file or environement variables.
type Config struct {
	DBDriver             string        `mapstructure:"DB_DRIVER"`
	DBSource             string        `mapstructure:"DB_SOURCE"`
	ServerAddress        string        `mapstructure:"SERVER_ADDRESS"`
	TokenType            string        `mapstructure:"TOKEN_TYPE"`
	TokenSymmetricKey    string        `mapstructure:"TOKEN_SYMMETRIC_KEY"`
	AccessTokenDuration  time.Duration `mapstructure:"ACCESS_TOKEN_DURATION"`
	RefreshTokenDuration time.Duration `mapstructure:"REFRESH_TOKEN_DURATION"`
	Environement         string        `mapstructure:"GO_ENV"`

	DailyWithdrawLimit string        `mapstructure:"DAILY_WITHDRAW_LIMIT"`
	LedgerTimezone     string        `mapstructure:"LEDGER_TIMEZONE"`
	LedgerMaxAttempts  uint64        `mapstructure:"LEDGER_MAX_ATTEMPTS"`
	LedgerLockTimeout  time.Duration `mapstructure:"LEDGER_LOCK_TIMEOUT"`

	NotifierWorkers   int           `mapstructure:"NOTIFIER_WORKERS"`
	NotifierQueueSize int           `mapstructure:"NOTIFIER_QUEUE_SIZE"`
	NotifierTimeout   time.Duration `mapstructure:"NOTIFIER_TIMEOUT"`
	SMTPHost          string        `mapstructure:"SMTP_HOST"`
	SMTPPort          int           `mapstructure:"SMTP_PORT"`
	SMTPUsername      string        `mapstructure:"SMTP_USERNAME"`
	SMTPPassword      string        `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom          string        `mapstructure:"SMTP_FROM"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("TOKEN_TYPE", "paseto")
	v.SetDefault("ACCESS_TOKEN_DURATION", 15*time.Minute)
	v.SetDefault("REFRESH_TOKEN_DURATION", 24*time.Hour)
	v.SetDefault("DAILY_WITHDRAW_LIMIT", "5000.00")
	v.SetDefault("LEDGER_TIMEZONE", "Local")
	v.SetDefault("LEDGER_MAX_ATTEMPTS", 3)
	v.SetDefault("LEDGER_LOCK_TIMEOUT", 2*time.Second)
	v.SetDefault("NOTIFIER_WORKERS", 2)
	v.SetDefault("NOTIFIER_QUEUE_SIZE", 256)
	v.SetDefault("NOTIFIER_TIMEOUT", 10*time.Second)
	v.SetDefault("SMTP_PORT", 587)
}

// Load read configuration from file or environment variables.
func Load(path string) (Config, error) {
	var c Config

	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		return c, err
	}

	err = v.Unmarshal(&c)
	if err != nil {
		return c, err
	}

	return c, nil
}

// Location returns the time zone that bounds calendar days and months.
func (c Config) Location() (*time.Location, error) {
	if c.LedgerTimezone == "" {
		return time.Local, nil
	}

	return time.LoadLocation(c.LedgerTimezone)
}
