package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type EmailConfig struct {
	APIKey       string `yaml:"api_key"`
	FromEmail    string `yaml:"from_email"`
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
}

// GoogleConfig — пустые clientId/clientSecret допустимы: провайдер просто
// неактивен, загрузка конфига из-за этого не падает.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Email  EmailConfig  `yaml:"email"`
	Google GoogleConfig `yaml:"google"`
	Auth   AuthConfig   `yaml:"auth"`
}

// LoadConfig читает config/config.yaml (если есть) и накладывает поверх
// переменные окружения. Отсутствие файла — не ошибка.
func LoadConfig() *Config {
	return loadConfig("config/config.yaml")
}

func loadConfig(path string) *Config {
	var cfg Config

	if f, err := os.Open(path); err == nil {
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			f.Close()
			panic("Failed to parse " + path + ": " + err.Error())
		}
		f.Close()
	} else {
		log.Printf("[config] %s not found, using env/defaults", path)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("RESEND_API_KEY"); v != "" {
		cfg.Email.APIKey = v
	}
	if v := os.Getenv("RESEND_FROM_EMAIL"); v != "" {
		cfg.Email.FromEmail = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Google.ClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Google.ClientSecret = v
	}
	if v := os.Getenv("GOOGLE_REDIRECT_URL"); v != "" {
		cfg.Google.RedirectURL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Email.FromEmail == "" {
		cfg.Email.FromEmail = "onboarding@resend.dev"
	}
	if cfg.Auth.JWTSecret == "" {
		// dev-режим; в проде секрет обязан приходить из окружения
		cfg.Auth.JWTSecret = "dev-secret-change-me"
		log.Printf("[config] JWT_SECRET is not set, using insecure dev default")
	}
}
