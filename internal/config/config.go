package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Port              int
	DatabasePath      string
	JWTSecret         string
	ModelPath         string
	ModelConfigPath   string
	ConfidenceMin     float64 // Minimum detection confidence to keep a box
	DetectorPool      int     // Number of DNN instances serving analysis requests
	CameraDevice      int     // Device ID of the shared live camera
	PreviewFPS        int     // Pacing of the raw MJPEG preview stream
	UploadDirectory   string
	MaxUploadDirSize  int64 // Upload directory cap in GB
	HeatmapBlurKernel int   // Gaussian kernel side for density diffusion, must be odd
	TrackerMaxAge     int   // Frames a track survives without a match
	TrackerMinHits    int   // Matches required before a track is confirmed
	LogDirectory      string
	StaticDirectory   string
}

func Load() *Config {
	return &Config{
		Port:              getEnvAsInt("PORT", 8080),
		DatabasePath:      getEnv("DB_PATH", filepath.Join("data", "crowdwatch.db")),
		JWTSecret:         getEnv("JWT_SECRET", "change_me_in_production"),
		ModelPath:         getEnv("MODEL_PATH", filepath.Join("models", "frozen_inference_graph.pb")),
		ModelConfigPath:   getEnv("MODEL_CONFIG_PATH", filepath.Join("models", "ssd_mobilenet_v1_coco_2017_11_17.pbtxt")),
		ConfidenceMin:     getEnvAsFloat("CONFIDENCE_MIN", 0.5),
		DetectorPool:      getEnvAsInt("DETECTOR_POOL", 3),
		CameraDevice:      getEnvAsInt("CAMERA_DEVICE", 0),
		PreviewFPS:        getEnvAsInt("PREVIEW_FPS", 30),
		UploadDirectory:   getEnv("UPLOAD_DIR", filepath.Join(".", "uploads")),
		MaxUploadDirSize:  getEnvAsInt64("MAX_UPLOAD_DIR_SIZE", 4),
		HeatmapBlurKernel: getEnvAsInt("HEATMAP_BLUR_KERNEL", 41),
		TrackerMaxAge:     getEnvAsInt("TRACKER_MAX_AGE", 30),
		TrackerMinHits:    getEnvAsInt("TRACKER_MIN_HITS", 3),
		LogDirectory:      getEnv("LOG_DIR", filepath.Join(".", "logs")),
		StaticDirectory:   getEnv("STATIC_DIR", "static"),
	}
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
