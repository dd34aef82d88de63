package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Settings struct {
	GeminiAPIKey  string
	GeminiBaseURL string

	ServerPort int

	RedisAddr     string
	RedisPassword string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool

	StorageBucket       string
	StorageKeyPrefix    string
	StorageServiceHost  string
	StoragePublicDomain string
	StoragePathStyle    bool
	UploadMaxRetries    int

	PollInterval time.Duration
	PollMaxWait  time.Duration

	FFmpegPath    string
	FFmpegTimeout time.Duration
}

func Load() (*Settings, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found; proceeding with OS environment variables")
	}

	viper.AutomaticEnv()

	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	viper.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("UPLOAD_MAX_RETRIES", 3)
	viper.SetDefault("POLL_INTERVAL_SECONDS", 5)
	viper.SetDefault("POLL_MAX_WAIT_SECONDS", 600)
	viper.SetDefault("FFMPEG_PATH", "ffmpeg")
	viper.SetDefault("FFMPEG_TIMEOUT_SECONDS", 120)

	if !viper.IsSet("GEMINI_API_KEY") {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if !viper.IsSet("MINIO_ENDPOINT") {
		return nil, fmt.Errorf("MINIO_ENDPOINT is required")
	}
	if !viper.IsSet("MINIO_ACCESS_KEY") {
		return nil, fmt.Errorf("MINIO_ACCESS_KEY is required")
	}
	if !viper.IsSet("MINIO_SECRET_KEY") {
		return nil, fmt.Errorf("MINIO_SECRET_KEY is required")
	}
	if !viper.IsSet("STORAGE_BUCKET") {
		return nil, fmt.Errorf("STORAGE_BUCKET is required")
	}

	return &Settings{
		GeminiAPIKey:  viper.GetString("GEMINI_API_KEY"),
		GeminiBaseURL: viper.GetString("GEMINI_BASE_URL"),

		ServerPort: viper.GetInt("SERVER_PORT"),

		RedisAddr:     viper.GetString("REDIS_ADDR"),
		RedisPassword: viper.GetString("REDIS_PASSWORD"),

		MinioEndpoint:  viper.GetString("MINIO_ENDPOINT"),
		MinioAccessKey: viper.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey: viper.GetString("MINIO_SECRET_KEY"),
		MinioUseSSL:    viper.GetBool("MINIO_USE_SSL"),

		StorageBucket:       viper.GetString("STORAGE_BUCKET"),
		StorageKeyPrefix:    viper.GetString("STORAGE_KEY_PREFIX"),
		StorageServiceHost:  viper.GetString("STORAGE_SERVICE_HOST"),
		StoragePublicDomain: viper.GetString("STORAGE_PUBLIC_DOMAIN"),
		StoragePathStyle:    viper.GetBool("STORAGE_PATH_STYLE"),
		UploadMaxRetries:    viper.GetInt("UPLOAD_MAX_RETRIES"),

		PollInterval: time.Duration(viper.GetInt("POLL_INTERVAL_SECONDS")) * time.Second,
		PollMaxWait:  time.Duration(viper.GetInt("POLL_MAX_WAIT_SECONDS")) * time.Second,

		FFmpegPath:    viper.GetString("FFMPEG_PATH"),
		FFmpegTimeout: time.Duration(viper.GetInt("FFMPEG_TIMEOUT_SECONDS")) * time.Second,
	}, nil
}
