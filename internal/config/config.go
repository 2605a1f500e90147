package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port int

	CameraSources     []string // "0" = local device 0, anything else is a URL or file
	ReadRetryInterval time.Duration
	PollInterval      time.Duration

	ModelPath         string
	ModelConfigPath   string
	EmbedderModelPath string
	EmbeddingSize     int
	PersonClasses     []string
	WeaponClasses     []string
	ConfidenceFloor   float64
	IoUFloor          float64

	TargetThreshold    float64 // cosine similarity above which a person is the target
	ProximityThreshold float64 // pixels, not depth aware
	AlertCapacity      int

	EvidenceDirectory string
	DatabasePath      string
	ArchiveWorkers    int
	ArchiveQueueSize  int

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	LogDirectory string
	MaxUploadMB  int64
}

func Load() *Config {
	// .env is optional, the process environment always wins
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Could not load .env file: %v", err)
	}

	return &Config{
		Port:              getEnvAsInt("PORT", 8000),
		CameraSources:     getEnvAsList("CAMERA_SOURCES", []string{"0"}),
		ReadRetryInterval: getEnvAsDuration("READ_RETRY_INTERVAL", 100*time.Millisecond),
		PollInterval:      getEnvAsDuration("POLL_INTERVAL", 10*time.Millisecond),

		ModelPath:         getEnv("MODEL_PATH", filepath.Join(".", "models", "frozen_inference_graph.pb")),
		ModelConfigPath:   getEnv("MODEL_CONFIG_PATH", filepath.Join(".", "models", "ssd_mobilenet_v1_coco.pbtxt")),
		EmbedderModelPath: getEnv("EMBEDDER_MODEL_PATH", filepath.Join(".", "models", "reid_resnet50.onnx")),
		EmbeddingSize:     getEnvAsInt("EMBEDDING_SIZE", 2048),
		PersonClasses:     getEnvAsList("PERSON_CLASSES", []string{"person"}),
		WeaponClasses:     getEnvAsList("WEAPON_CLASSES", []string{"knife"}),
		ConfidenceFloor:   getEnvAsFloat("CONFIDENCE_FLOOR", 0.15), // low on purpose, small weapons score poorly
		IoUFloor:          getEnvAsFloat("IOU_FLOOR", 0.5),

		TargetThreshold:    getEnvAsFloat("TARGET_THRESHOLD", 0.6),
		ProximityThreshold: getEnvAsFloat("PROXIMITY_THRESHOLD", 50),
		AlertCapacity:      getEnvAsInt("ALERT_CAPACITY", 100),

		EvidenceDirectory: getEnv("EVIDENCE_DIR", filepath.Join(".", "evidence")),
		DatabasePath:      getEnv("DATABASE_PATH", filepath.Join(".", "data", "evidence.db")),
		ArchiveWorkers:    getEnvAsInt("ARCHIVE_WORKERS", 2),
		ArchiveQueueSize:  getEnvAsInt("ARCHIVE_QUEUE_SIZE", 64),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOBucket:    getEnv("MINIO_BUCKET", "evidence"),
		MinIOUseSSL:    getEnvAsBool("MINIO_USE_SSL", false),

		LogDirectory: getEnv("LOG_DIR", filepath.Join(".", "logs")),
		MaxUploadMB:  getEnvAsInt64("MAX_UPLOAD_MB", 10),
	}
}

// Validate reports the first setting the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case len(c.CameraSources) == 0:
		return fmt.Errorf("CAMERA_SOURCES is empty")
	case c.ReadRetryInterval <= 0:
		return fmt.Errorf("READ_RETRY_INTERVAL must be positive, got %s", c.ReadRetryInterval)
	case c.PollInterval <= 0:
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	case c.AlertCapacity < 1:
		return fmt.Errorf("ALERT_CAPACITY must be positive, got %d", c.AlertCapacity)
	case c.TargetThreshold <= -1 || c.TargetThreshold > 1:
		return fmt.Errorf("TARGET_THRESHOLD must be in (-1, 1], got %v", c.TargetThreshold)
	case c.ProximityThreshold <= 0:
		return fmt.Errorf("PROXIMITY_THRESHOLD must be positive, got %v", c.ProximityThreshold)
	case c.EmbeddingSize < 1:
		return fmt.Errorf("EMBEDDING_SIZE must be positive, got %d", c.EmbeddingSize)
	case c.ArchiveWorkers < 1:
		return fmt.Errorf("ARCHIVE_WORKERS must be positive, got %d", c.ArchiveWorkers)
	case c.ArchiveQueueSize < 1:
		return fmt.Errorf("ARCHIVE_QUEUE_SIZE must be positive, got %d", c.ArchiveQueueSize)
	case c.MaxUploadMB < 1:
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	return nil
}

// MinIOEnabled reports whether evidence should be mirrored to object storage.
func (c *Config) MinIOEnabled() bool {
	return c.MinIOEndpoint != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
