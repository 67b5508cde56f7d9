package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode   string `mapstructure:"mode"`
	Server struct {
		HTTPPort     string        `mapstructure:"HTTPPort"`
		Timeout      time.Duration `mapstructure:"HTTPTimeout"`
		MetricsPort  string        `mapstructure:"metricsPort"`
		CORSOrigins  []string      `mapstructure:"corsOrigins"`
		DebugHeaders bool          `mapstructure:"debugHeaders"`
	} `mapstructure:"server"`
	Repositories struct {
		Postgres struct {
			Host     string `mapstructure:"host"`
			Password string `mapstructure:"password"`
			Port     string `mapstructure:"port"`
			Username string `mapstructure:"username"`
			DB       string `mapstructure:"db"`
			SSLMode  string `mapstructure:"sslmode"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Auth JWTConfig `mapstructure:"auth"`
	AI   struct {
		Model           string        `mapstructure:"model"`
		TitleModel      string        `mapstructure:"titleModel"`
		MaxToolSteps    int           `mapstructure:"maxToolSteps"`
		RequestDeadline time.Duration `mapstructure:"requestDeadline"`
	} `mapstructure:"ai"`
	Weather struct {
		BaseURL   string  `mapstructure:"baseURL"`
		Latitude  float64 `mapstructure:"latitude"`
		Longitude float64 `mapstructure:"longitude"`
	} `mapstructure:"weather"`
}

type JWTConfig struct {
	SecretKey        string        `mapstructure:"secretKey"`
	RefreshSecretKey string        `mapstructure:"refreshSecretKey"`
	AccessTokenTTL   time.Duration `mapstructure:"accessTokenTTL"`
	RefreshTokenTTL  time.Duration `mapstructure:"refreshTokenTTL"`
	SessionCookie    string        `mapstructure:"sessionCookie"`
	Issuer           string        `mapstructure:"issuer"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Secrets come from the environment; the file carries the rest.
	v.SetEnvPrefix("TERRAMAR")
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	if secret := v.GetString("AUTH_SECRET"); secret != "" {
		config.Auth.SecretKey = secret
	}
	if secret := v.GetString("AUTH_REFRESH_SECRET"); secret != "" {
		config.Auth.RefreshSecretKey = secret
	}
	return config, nil
}
