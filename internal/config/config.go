package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port               int      `mapstructure:"port"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
		CorsAllowedMethods []string `mapstructure:"cors_allowed_methods"`
		CorsAllowedHeaders []string `mapstructure:"cors_allowed_headers"`
	} `mapstructure:"server"`

	Storage struct {
		DataDir string `mapstructure:"data_dir"`
	} `mapstructure:"storage"`

	Backend struct {
		BaseURL             string `mapstructure:"base_url"`
		ProbePath           string `mapstructure:"probe_path"`
		DeviceID            string `mapstructure:"device_id"`
		DeviceSecret        string `mapstructure:"device_secret"`
		OperatorTokenSecret string `mapstructure:"operator_token_secret"`
	} `mapstructure:"backend"`

	OCR struct {
		Endpoint string `mapstructure:"endpoint"`
		APIKey   string `mapstructure:"api_key"`
	} `mapstructure:"ocr"`

	Camera struct {
		SnapshotURL string `mapstructure:"snapshot_url"`
	} `mapstructure:"camera"`

	Location struct {
		FixURL string `mapstructure:"fix_url"`
	} `mapstructure:"location"`

	Delivery struct {
		GeofenceRadiusM float64 `mapstructure:"geofence_radius_m"`
		MaxOTPAttempts  int     `mapstructure:"max_otp_attempts"`
	} `mapstructure:"delivery"`

	Sync struct {
		IntervalSeconds int `mapstructure:"interval_seconds"`
	} `mapstructure:"sync"`

	Evidence struct {
		Endpoint  string `mapstructure:"endpoint"`
		Region    string `mapstructure:"region"`
		Bucket    string `mapstructure:"bucket"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
	} `mapstructure:"evidence"`
}

func Load() *Config {
	// Load .env file if exists (ignore error in production)
	godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile("configs/config.yaml")

	// Auto bind environment variables
	v.AutomaticEnv()

	// Set sensible defaults (binary works without config file)
	v.SetDefault("server.port", 8321)
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("backend.probe_path", "/health")
	v.SetDefault("delivery.geofence_radius_m", 500)
	v.SetDefault("delivery.max_otp_attempts", 3)
	v.SetDefault("sync.interval_seconds", 60)
	v.SetDefault("evidence.region", "auto")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		log.Printf("[Config] No config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("config unmarshal error: %v", err)
	}

	// Secrets come from the environment, never the config file
	if secret := os.Getenv("DEVICE_SECRET"); secret != "" {
		cfg.Backend.DeviceSecret = secret
	}
	if secret := os.Getenv("OPERATOR_TOKEN_SECRET"); secret != "" {
		cfg.Backend.OperatorTokenSecret = secret
	}
	if id := os.Getenv("DEVICE_ID"); id != "" {
		cfg.Backend.DeviceID = id
	}
	if url := os.Getenv("BACKEND_BASE_URL"); url != "" {
		cfg.Backend.BaseURL = url
	}
	if key := os.Getenv("OCR_API_KEY"); key != "" {
		cfg.OCR.APIKey = key
	}
	if key := os.Getenv("EVIDENCE_ACCESS_KEY"); key != "" {
		cfg.Evidence.AccessKey = key
	}
	if key := os.Getenv("EVIDENCE_SECRET_KEY"); key != "" {
		cfg.Evidence.SecretKey = key
	}

	return &cfg
}
