package imagemodule

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string, string) {
	t.Helper()
	dir := t.TempDir()
	imageDir := filepath.Join(dir, "images")
	bundledDir := filepath.Join(dir, "bundled")
	require.NoError(t, os.MkdirAll(bundledDir, 0o755))

	store, err := NewStore(imageDir, bundledDir, NewCache(0, 0), nil, hclog.NewNullLogger())
	require.NoError(t, err)
	return store, imageDir, bundledDir
}

func TestIsGeneratedRef(t *testing.T) {
	assert.True(t, IsGeneratedRef("5a1f0c9e-1111-2222-3333-444455556666.webp"))
	assert.False(t, IsGeneratedRef("metropolis.jpg"))
	assert.False(t, IsGeneratedRef(""))
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	store, imageDir, _ := newTestStore(t)
	ctx := context.Background()

	ref, err := store.Save(ctx, encodePNG(t, makeImage(320, 200)))
	require.NoError(t, err)
	assert.True(t, IsGeneratedRef(ref))

	_, statErr := os.Stat(filepath.Join(imageDir, ref))
	require.NoError(t, statErr)

	img := store.Load(ctx, ref)
	assert.False(t, IsPlaceholder(img))
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestStoreSaveRejectsInvalidData(t *testing.T) {
	store, _, _ := newTestStore(t)

	_, err := store.Save(context.Background(), []byte("not an image"))
	assert.ErrorIs(t, err, ErrInvalidImageData)
}

func TestStoreSaveWriteFailureLeavesCacheEmpty(t *testing.T) {
	store, imageDir, _ := newTestStore(t)
	ctx := context.Background()

	// Replace the managed directory with a plain file so no durable
	// write can succeed
	require.NoError(t, os.RemoveAll(imageDir))
	require.NoError(t, os.WriteFile(imageDir, []byte("x"), 0o644))

	_, err := store.Save(ctx, encodePNG(t, makeImage(320, 200)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWriteFailed)
	assert.Equal(t, 0, store.Cache().Len(), "cache must only hold durably persisted assets")
}

func TestStoreLoadUnknownRefYieldsPlaceholder(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	assert.True(t, IsPlaceholder(store.Load(ctx, "ffffffff-0000-0000-0000-000000000000.webp")))
	assert.True(t, IsPlaceholder(store.Load(ctx, "")))
	assert.True(t, IsPlaceholder(store.Load(ctx, "../escape.webp")))
}

func TestStoreLoadBundledAsset(t *testing.T) {
	store, _, bundledDir := newTestStore(t)
	ctx := context.Background()

	data := encodePNG(t, makeImage(64, 40))
	require.NoError(t, os.WriteFile(filepath.Join(bundledDir, "poster.png"), data, 0o644))

	img := store.Load(ctx, "poster.png")
	assert.False(t, IsPlaceholder(img))
	assert.Equal(t, 64, img.Bounds().Dx())

	raw := store.LoadBytes(ctx, "poster.png")
	assert.Equal(t, data, raw, "bundled bytes come back unrecompressed")
}

func TestStoreLoadUsesCache(t *testing.T) {
	store, imageDir, _ := newTestStore(t)
	ctx := context.Background()

	ref, err := store.Save(ctx, encodePNG(t, makeImage(160, 100)))
	require.NoError(t, err)

	// With the backing file gone the cached image still resolves
	require.NoError(t, os.Remove(filepath.Join(imageDir, ref)))
	img := store.Load(ctx, ref)
	assert.False(t, IsPlaceholder(img))

	// After a cache drop the same reference degrades to the placeholder
	store.Cache().Remove(ref)
	assert.True(t, IsPlaceholder(store.Load(ctx, ref)))
}

func TestStoreDeleteGeneratedAsset(t *testing.T) {
	store, imageDir, _ := newTestStore(t)
	ctx := context.Background()

	ref, err := store.Save(ctx, encodePNG(t, makeImage(160, 100)))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, ref))

	_, statErr := os.Stat(filepath.Join(imageDir, ref))
	assert.True(t, os.IsNotExist(statErr))
	assert.True(t, IsPlaceholder(store.Load(ctx, ref)))

	// Deleting an already absent asset succeeds
	assert.NoError(t, store.Delete(ctx, ref))
}

func TestStoreDeleteIgnoresBundledRefs(t *testing.T) {
	store, _, bundledDir := newTestStore(t)
	ctx := context.Background()

	path := filepath.Join(bundledDir, "classic.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, makeImage(64, 40)), 0o644))

	require.NoError(t, store.Delete(ctx, "classic.png"))

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "bundled assets are never deleted")
	assert.False(t, IsPlaceholder(store.Load(ctx, "classic.png")))
}

func TestStoreMigrateBundled(t *testing.T) {
	store, _, bundledDir := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(bundledDir, "one.png"), encodePNG(t, makeImage(160, 100)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(bundledDir, "two.png"), encodePNG(t, makeImage(160, 100)), 0o644))

	migrated := store.MigrateBundled(ctx, []string{"one.png", "two.png", "absent.png", "one.png", ""})

	require.Len(t, migrated, 2)
	for name, ref := range migrated {
		assert.True(t, IsGeneratedRef(ref), "migrated %s got non-generated ref %s", name, ref)
		assert.False(t, IsPlaceholder(store.Load(ctx, ref)))
	}
	_, ok := migrated["absent.png"]
	assert.False(t, ok)
}

func TestWatcherEvictsOnFileRemoval(t *testing.T) {
	store, imageDir, _ := newTestStore(t)
	ctx := context.Background()

	ref, err := store.Save(ctx, encodePNG(t, makeImage(160, 100)))
	require.NoError(t, err)
	_, cached := store.Cache().Get(ref)
	require.True(t, cached)

	watcher, err := NewWatcher(imageDir, store.Cache(), hclog.NewNullLogger())
	require.NoError(t, err)
	watcher.Start()
	defer watcher.Close()

	require.NoError(t, os.Remove(filepath.Join(imageDir, ref)))

	assert.Eventually(t, func() bool {
		_, ok := store.Cache().Get(ref)
		return !ok
	}, 2*time.Second, 10*time.Millisecond, "out-of-band file removal must evict the cache entry")
}
