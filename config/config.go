// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rapidaai/speaking-coach/pkg/utils"
	"github.com/spf13/viper"
)

// RecorderConfig holds the capture session time limit and the voice-activity tuning.
type RecorderConfig struct {
	MaxDurationSeconds int     `mapstructure:"max_duration_seconds" validate:"required,min=1,max=3600"`
	MinDurationSeconds int     `mapstructure:"min_duration_seconds" validate:"min=0,ltefield=MaxDurationSeconds"`
	VADIntervalMillis  int     `mapstructure:"vad_interval_millis" validate:"required,min=10,max=5000"`
	SilenceThreshold   float64 `mapstructure:"silence_threshold" validate:"gt=0,lt=1"`
	TimesliceMillis    int     `mapstructure:"timeslice_millis" validate:"required,min=50,max=10000"`
	GatingEnabled      bool    `mapstructure:"gating_enabled"`
}

func (c RecorderConfig) MaxDuration() time.Duration {
	return time.Duration(c.MaxDurationSeconds) * time.Second
}

func (c RecorderConfig) VADInterval() time.Duration {
	return time.Duration(c.VADIntervalMillis) * time.Millisecond
}

func (c RecorderConfig) Timeslice() time.Duration {
	return time.Duration(c.TimesliceMillis) * time.Millisecond
}

// RelayConfig selects the optional live transcription backend.
type RelayConfig struct {
	Provider              string `mapstructure:"provider" validate:"oneof=none gemini websocket google"`
	Language              string `mapstructure:"language" validate:"oneof=en tr"`
	WebsocketURL          string `mapstructure:"websocket_url" validate:"required_if=Provider websocket"`
	GeminiModel           string `mapstructure:"gemini_model" validate:"required_if=Provider gemini"`
	GoogleProjectID       string `mapstructure:"google_project_id" validate:"required_if=Provider google"`
	GoogleModel           string `mapstructure:"google_model"`
	GoogleRegion          string `mapstructure:"google_region"`
	GoogleCredentialsJSON string `mapstructure:"google_credentials_json"`
	GoogleAPIKey          string `mapstructure:"google_api_key"`
}

// GeminiConfig configures the evaluation collaborator.
type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model" validate:"required"`
	Timeout int    `mapstructure:"timeout_seconds" validate:"min=1,max=600"`
}

func (c GeminiConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Application config structure
type AppConfig struct {
	Name        string   `mapstructure:"service_name" validate:"required"`
	Version     string   `mapstructure:"version" validate:"required"`
	Host        string   `mapstructure:"host" validate:"required"`
	Port        int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	LogLevel    string   `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogPath     string   `mapstructure:"log_path" validate:"required"`
	Env         string   `mapstructure:"env"`
	CorsOrigins []string `mapstructure:"cors_origins"`
	MaxUploadMB int      `mapstructure:"max_upload_mb" validate:"min=1,max=100"`

	Recorder RecorderConfig `mapstructure:"recorder" validate:"required"`
	Relay    RelayConfig    `mapstructure:"relay" validate:"required"`
	Gemini   GeminiConfig   `mapstructure:"gemini" validate:"required"`
}

func (c *AppConfig) IsDevelopment() bool {
	return utils.FromEnvironmentStr(c.Env) != utils.PRODUCTION
}

// reading config and intializing configs for application
func InitConfig() (*viper.Viper, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	if path := os.Getenv("ENV_PATH"); path != "" {
		log.Printf("env path %v", path)
		vConfig.SetConfigFile(path)
	}
	vConfig.SetConfigType("env")
	vConfig.AutomaticEnv()

	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: reading env file: %w", err)
		}
		log.Printf("Reading from env variables.")
	}
	return vConfig, nil
}

func setDefault(v *viper.Viper) {
	// keeping watch on https://github.com/spf13/viper/issues/188
	v.SetDefault("SERVICE_NAME", "speaking-coach")
	v.SetDefault("VERSION", "0.0.1")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 9090)
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("LOG_PATH", os.TempDir()+"/speaking-coach")
	v.SetDefault("ENV", "development")
	v.SetDefault("CORS_ORIGINS", []string{"http://localhost:3000"})
	v.SetDefault("MAX_UPLOAD_MB", 20)

	v.SetDefault("RECORDER__MAX_DURATION_SECONDS", 180)
	v.SetDefault("RECORDER__MIN_DURATION_SECONDS", 2)
	v.SetDefault("RECORDER__VAD_INTERVAL_MILLIS", 250)
	v.SetDefault("RECORDER__SILENCE_THRESHOLD", 0.01)
	v.SetDefault("RECORDER__TIMESLICE_MILLIS", 1000)
	v.SetDefault("RECORDER__GATING_ENABLED", true)

	v.SetDefault("RELAY__PROVIDER", "none")
	v.SetDefault("RELAY__LANGUAGE", "en")
	v.SetDefault("RELAY__WEBSOCKET_URL", "")
	v.SetDefault("RELAY__GEMINI_MODEL", "gemini-2.5-flash-native-audio-preview-09-2025")
	v.SetDefault("RELAY__GOOGLE_PROJECT_ID", "")
	v.SetDefault("RELAY__GOOGLE_MODEL", "long")
	v.SetDefault("RELAY__GOOGLE_REGION", "global")
	v.SetDefault("RELAY__GOOGLE_CREDENTIALS_JSON", "")
	v.SetDefault("RELAY__GOOGLE_API_KEY", "")

	v.SetDefault("GEMINI__API_KEY", "")
	v.SetDefault("GEMINI__MODEL", "gemini-2.5-flash")
	v.SetDefault("GEMINI__TIMEOUT_SECONDS", 60)
}

// Getting application config from viper
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}

	// valdating the app config
	validate := validator.New()
	if err := validate.Struct(&config); err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}
	return &config, nil
}
