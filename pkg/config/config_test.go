package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PhantomInTheWire/tiff-tiler/pkg/monitoring"
)

var keys = []string{
	"TILER_S3_ENDPOINT", "TILER_S3_REGION", "TILER_S3_ACCESS_KEY", "TILER_S3_SECRET_KEY",
	"TILER_S3_BUCKET", "TILER_S3_PREFIX", "KUBECONFIG", "TILER_NAMESPACE", "TILER_IMAGE", "TILER_PVC",
}

// clearEnv blanks every key; getEnv treats an empty value as unset.
func clearEnv(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	monitoring.SetLogger(nil)
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TILER_S3_ENDPOINT", "http://minio.default.svc:9000")
	t.Setenv("TILER_S3_PREFIX", "job1")
	t.Setenv("TILER_NAMESPACE", "imagery")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "http://minio.default.svc:9000", cfg.Storage.Endpoint)
	assert.Equal(t, "job1", cfg.Storage.Prefix)
	assert.Equal(t, "imagery", cfg.Kube.Namespace)
	assert.Equal(t, "tiles-bucket", cfg.Storage.Bucket)
}

func TestLoadEnvFile(t *testing.T) {
	monitoring.SetLogger(nil)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TILER_S3_BUCKET=from-file\nTILER_PVC=from-file\n"), 0o644))
	clearEnv(t)
	t.Setenv("TILER_PVC", "from-env")
	os.Unsetenv("TILER_S3_BUCKET")
	t.Cleanup(func() { os.Unsetenv("TILER_S3_BUCKET") })

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Storage.Bucket)
	assert.Equal(t, "from-env", cfg.Kube.PVC)
}
