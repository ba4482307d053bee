// Package config loads tiler settings from defaults, a .env file and the
// process environment, in that order of precedence.
package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/PhantomInTheWire/tiff-tiler/pkg/monitoring"
	"github.com/PhantomInTheWire/tiff-tiler/pkg/storage"
)

// Kube holds the settings used to run the tiler as a Kubernetes Job.
type Kube struct {
	Kubeconfig string
	Namespace  string
	Image      string
	PVC        string
}

// Config holds the entire application configuration.
type Config struct {
	Storage storage.MinioConfig
	Kube    Kube
}

// Default returns the built-in configuration, suitable for a local MinIO.
func Default() Config {
	return Config{
		Storage: storage.MinioConfig{
			Endpoint:  "http://localhost:9000",
			Region:    "us-east-1",
			AccessKey: "minioadmin",
			SecretKey: "minioadmin",
			Bucket:    "tiles-bucket",
		},
		Kube: Kube{
			Kubeconfig: clientcmd.RecommendedHomeFile,
			Namespace:  "default",
			Image:      "ghcr.io/phantominthewire/tiff-tiler:latest",
			PVC:        "tiler-data",
		},
	}
}

// Load returns the defaults overridden by envFile (if it exists) and then by
// the environment. Variables already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	} else {
		monitoring.Logf("loaded configuration from %s", envFile)
	}

	cfg := Default()
	s := &cfg.Storage
	s.Endpoint = getEnv("TILER_S3_ENDPOINT", s.Endpoint)
	s.Region = getEnv("TILER_S3_REGION", s.Region)
	s.AccessKey = getEnv("TILER_S3_ACCESS_KEY", s.AccessKey)
	s.SecretKey = getEnv("TILER_S3_SECRET_KEY", s.SecretKey)
	s.Bucket = getEnv("TILER_S3_BUCKET", s.Bucket)
	s.Prefix = getEnv("TILER_S3_PREFIX", s.Prefix)

	k := &cfg.Kube
	k.Kubeconfig = getEnv("KUBECONFIG", k.Kubeconfig)
	k.Namespace = getEnv("TILER_NAMESPACE", k.Namespace)
	k.Image = getEnv("TILER_IMAGE", k.Image)
	k.PVC = getEnv("TILER_PVC", k.PVC)
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
