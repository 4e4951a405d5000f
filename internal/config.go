/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package internal

import (
	"path/filepath"
	"strings"

	"jesstore/internal/chatcrypt"
	"jesstore/internal/data"
	"jesstore/internal/payment"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables overriding the file, JES_DB_DSN overrides db-dsn
const EnvPrefix = "JES"

type Config struct {
	FolderPath             string `mapstructure:"folder-path"`
	EnableLogging          bool   `mapstructure:"enable-logging"`
	LogLevel               string `mapstructure:"log-level"`
	DBDriver               string `mapstructure:"db-driver"`
	DBDSN                  string `mapstructure:"db-dsn"`
	HTTPServerPort         uint16 `mapstructure:"http-server-port"`
	ReadTimeout            int64  `mapstructure:"read-timeout"`
	WriteTimeout           int64  `mapstructure:"write-timeout"`
	SecretKey              string `mapstructure:"secret-key"`
	ChatSalt               string `mapstructure:"chat-salt"`
	MercadoPagoAccessToken string `mapstructure:"mercadopago-access-token"`
	MercadoPagoBaseURL     string `mapstructure:"mercadopago-base-url"`
	PublicBaseURL          string `mapstructure:"public-base-url"`
	NATSURL                string `mapstructure:"nats-url"`
	SignupCoins            string `mapstructure:"signup-coins"`
}

func setDefaults(v *viper.Viper, folderPath string) {
	v.SetDefault("folder-path", folderPath)
	v.SetDefault("enable-logging", true)
	v.SetDefault("log-level", "info")
	v.SetDefault("db-driver", data.DriverSQLite)
	v.SetDefault("db-dsn", filepath.Join(folderPath, "jesstore.db"))
	v.SetDefault("http-server-port", 8080)
	v.SetDefault("read-timeout", 10)
	v.SetDefault("write-timeout", 10)
	v.SetDefault("secret-key", "")
	v.SetDefault("chat-salt", chatcrypt.DefaultSalt)
	v.SetDefault("mercadopago-access-token", "")
	v.SetDefault("mercadopago-base-url", payment.DefaultBaseURL)
	v.SetDefault("public-base-url", "http://localhost:8080")
	v.SetDefault("nats-url", "")
	v.SetDefault("signup-coins", "0")
}

// LoadConfig reads folderPath/.cfg (JSON), environment variables taking precedence over the file
func LoadConfig(folderPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, folderPath)

	v.SetConfigFile(filepath.Join(folderPath, ".cfg"))
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "reading config in %s", folderPath)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	return config, nil
}

// Validate rejects the configurations the server cannot start with
func (c *Config) Validate() error {
	switch strings.ToLower(c.DBDriver) {
	case data.DriverSQLite, data.DriverPostgres:
	default:
		return errors.Errorf("unsupported db-driver %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return errors.New("db-dsn is required")
	}
	if c.SecretKey == "" {
		return errors.New("secret-key is required")
	}
	if c.HTTPServerPort == 0 {
		return errors.New("http-server-port must be set")
	}
	if _, err := c.SignupCoinsAmount(); err != nil {
		return err
	}
	return nil
}

// SignupCoinsAmount parses signup-coins, the JES Coins every new account starts with
func (c *Config) SignupCoinsAmount() (decimal.Decimal, error) {
	if strings.TrimSpace(c.SignupCoins) == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(c.SignupCoins))
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "signup-coins")
	}
	if amount.IsNegative() {
		return decimal.Zero, errors.New("signup-coins cannot be negative")
	}
	return amount, nil
}
