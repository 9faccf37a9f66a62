package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	DatabaseURL         string
	RedisURL            string
	OwnerAddress        string // ledger owner/administrator wallet address
	AIAPIKey            string
	AIBaseURL           string // OpenAI-compatible completion endpoint base
	AIModel             string
	PinataAPIKey        string
	PinataAPISecret     string
	PinataGateway       string
	UploadsDir          string // local fallback when Pinata is not configured
	FrontendURLEndsWith string
	DevPassword         string
	HealthAdminKey      string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	return &Config{
		Env:                 env,
		Port:                port,
		DatabaseURL:         viper.GetString("DATABASE_URL"),
		RedisURL:            viper.GetString("REDIS_URL"),
		OwnerAddress:        viper.GetString("OWNER_ADDRESS"),
		AIAPIKey:            viper.GetString("AI_API_KEY"),
		AIBaseURL:           aiBaseURL(viper.GetString("AI_BASE_URL")),
		AIModel:             aiModel(viper.GetString("AI_MODEL")),
		PinataAPIKey:        viper.GetString("PINATA_API_KEY"),
		PinataAPISecret:     viper.GetString("PINATA_API_SECRET"),
		PinataGateway:       viper.GetString("PINATA_GATEWAY"),
		UploadsDir:          uploadsDir(viper.GetString("UPLOADS_DIR")),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
	}, nil
}

func aiBaseURL(s string) string {
	s = strings.TrimRight(strings.TrimSpace(s), "/")
	if s == "" {
		return "https://api.venice.ai/api/v1"
	}
	return s
}

func aiModel(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "default"
	}
	return s
}

func uploadsDir(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "uploads"
	}
	return s
}
