package split

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PhantomInTheWire/tiff-tiler/pkg/monitoring"
)

func muteLogs(t *testing.T) {
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })
}

func seedFolder(t *testing.T) string {
	t.Helper()
	in := t.TempDir()
	writeTIFF(t, filepath.Join(in, "alpha.tif"), newTestImage(64, 32, splitAt(32)))
	writeTIFF(t, filepath.Join(in, "beta.tiff"), newTestImage(32, 32, splitAt(16)))
	writeTIFF(t, filepath.Join(in, "small.tif"), newTestImage(8, 8, splitAt(4)))
	require.NoError(t, os.WriteFile(filepath.Join(in, "broken.tif"), []byte("garbage"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.png"), []byte("ignored"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(in, "nested"), 0o755))
	writeTIFF(t, filepath.Join(in, "nested", "deep.tif"), newTestImage(32, 32, splitAt(16)))
	return in
}

func TestDiscover(t *testing.T) {
	in := seedFolder(t)

	files, err := Discover(in)
	require.NoError(t, err)

	want := []string{
		filepath.Join(in, "alpha.tif"),
		filepath.Join(in, "broken.tif"),
		filepath.Join(in, "small.tif"),
		filepath.Join(in, "beta.tiff"),
	}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("Discover (-want +got):\n%s", diff)
	}
}

func TestFolderContinuesPastBadFiles(t *testing.T) {
	muteLogs(t)
	in := seedFolder(t)
	out := filepath.Join(t.TempDir(), "tiles")

	var progress []int
	report, err := Folder(context.Background(), in, out, 16, Options{
		OnFile: func(path string, done, total int) {
			assert.Equal(t, 4, total)
			progress = append(progress, done)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, progress)
	require.Len(t, report.Results, 4)

	failed := report.Failed()
	require.Len(t, failed, 2)
	assert.Equal(t, filepath.Join(in, "broken.tif"), failed[0].Input)
	assert.ErrorIs(t, failed[0].Err, ErrDecode)
	assert.Equal(t, filepath.Join(in, "small.tif"), failed[1].Input)
	assert.ErrorIs(t, failed[1].Err, ErrInvalidSize)

	// alpha: 4x2 tiles, beta: 2x2 tiles.
	assert.Len(t, report.Tiles(), 12)
	for _, p := range report.Tiles() {
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}
	assert.FileExists(t, filepath.Join(out, "slice_alpha_3_1.jpg"))
	assert.FileExists(t, filepath.Join(out, "slice_beta_1_1.jpg"))
	assert.NoFileExists(t, filepath.Join(out, "slice_deep_0_0.jpg"))
	assert.Equal(t, "4 files, 2 tiled, 2 failed, 12 tiles written", report.Summary())
}

func TestFolderEmpty(t *testing.T) {
	report, err := Folder(context.Background(), t.TempDir(), filepath.Join(t.TempDir(), "out"), 16, Options{})
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Equal(t, "0 files, 0 tiled, 0 failed, 0 tiles written", report.Summary())
}

func TestFolderRejectsSize(t *testing.T) {
	in := seedFolder(t)
	out := filepath.Join(t.TempDir(), "out")

	_, err := Folder(context.Background(), in, out, 0, Options{})
	assert.ErrorIs(t, err, ErrInvalidSize)
	assert.NoDirExists(t, out)
}

func TestFolderAbortsOnUnwritableOutput(t *testing.T) {
	in := seedFolder(t)
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	report, err := Folder(context.Background(), in, blocker, 16, Options{})
	assert.ErrorIs(t, err, ErrWrite)
	assert.Empty(t, report.Results)
}

func TestFolderCancelled(t *testing.T) {
	in := seedFolder(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Folder(ctx, in, t.TempDir(), 16, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Results)
}
