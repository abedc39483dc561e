// Package imagemodule turns uploaded image bytes into normalized,
// compressed, durably stored assets and resolves reference strings back
// into displayable images, with a bounded in-memory cache in front of
// the disk layer.
package imagemodule

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/kinotek/kinotek/internal/events"
)

// ErrWriteFailed indicates the durable write of an asset failed
var ErrWriteFailed = errors.New("image write failed")

// generatedExt is the extension of every generated asset file
const generatedExt = ".webp"

// IsGeneratedRef reports whether a reference names a generated asset.
// Generated references embed a UUID and therefore always contain a
// hyphen; bundled asset names never do. This structural convention is
// what keeps the two namespaces apart without a side table.
func IsGeneratedRef(ref string) bool {
	return strings.Contains(ref, "-")
}

var (
	placeholderOnce  sync.Once
	placeholderImg   image.Image
	placeholderBytes []byte
)

func initPlaceholder() {
	img := image.NewRGBA(image.Rect(0, 0, 320, 200))
	gray := color.RGBA{R: 0x2a, G: 0x2a, B: 0x2e, A: 0xff}
	for y := 0; y < 200; y++ {
		for x := 0; x < 320; x++ {
			img.SetRGBA(x, y, gray)
		}
	}
	placeholderImg = img
	encoded, err := NewProcessor().Encode(img)
	if err != nil {
		encoded = []byte{}
	}
	placeholderBytes = encoded
}

// Placeholder returns the deterministic fallback image handed out when
// a reference cannot be resolved. The same instance is returned every
// time, so callers may compare against it directly.
func Placeholder() image.Image {
	placeholderOnce.Do(initPlaceholder)
	return placeholderImg
}

// PlaceholderBytes returns the encoded form of the placeholder image
func PlaceholderBytes() []byte {
	placeholderOnce.Do(initPlaceholder)
	return placeholderBytes
}

// IsPlaceholder reports whether the image is the placeholder marker
func IsPlaceholder(img image.Image) bool {
	return img == Placeholder()
}

// Store persists normalized image assets under a managed directory and
// resolves references against both the managed and the bundled
// namespace. All filesystem writes go through atomic temp-file renames.
type Store struct {
	processor  *Processor
	cache      *Cache
	imageDir   string
	bundledDir string
	bus        events.EventBus
	logger     hclog.Logger
	mu         sync.RWMutex
}

// NewStore creates a store rooted at imageDir for generated assets and
// bundledDir for read-only bundled assets. The event bus may be nil.
func NewStore(imageDir, bundledDir string, cache *Cache, bus events.EventBus, logger hclog.Logger) (*Store, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if cache == nil {
		cache = NewCache(0, 0)
	}
	if err := os.MkdirAll(imageDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &Store{
		processor:  NewProcessor(),
		cache:      cache,
		imageDir:   imageDir,
		bundledDir: bundledDir,
		bus:        bus,
		logger:     logger,
	}, nil
}

// Cache exposes the cache fronting the store's disk layer
func (s *Store) Cache() *Cache {
	return s.cache
}

// ImageDir returns the managed asset directory
func (s *Store) ImageDir() string {
	return s.imageDir
}

// Save normalizes the uploaded bytes (decode, center-crop to 16:10,
// lossy WebP re-encode) and persists them under a fresh generated
// reference. The cache is populated with the cropped image only after
// the durable write succeeds.
func (s *Store) Save(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	img, encoded, err := s.processor.Process(data)
	if err != nil {
		return "", err
	}

	ref := uuid.NewString() + generatedExt
	if err := s.writeFile(ref, encoded); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	s.cache.Put(ref, img)

	if s.bus != nil {
		event := events.NewEvent(events.EventAssetSaved, "imagestore", "image asset saved")
		event.Data["reference"] = ref
		event.Data["size"] = len(encoded)
		s.bus.PublishAsync(event)
	}

	return ref, nil
}

// Load resolves a reference into a decoded image. Generated references
// read through the cache, then durable storage; anything else is tried
// against the bundled namespace by exact name. Resolution never fails:
// an unknown or unreadable reference yields the placeholder.
func (s *Store) Load(ctx context.Context, ref string) image.Image {
	if ctx.Err() != nil || ref == "" || !validRefName(ref) {
		return Placeholder()
	}

	if img, ok := s.cache.Get(ref); ok {
		return img
	}

	var path string
	if IsGeneratedRef(ref) {
		path = filepath.Join(s.imageDir, ref)
	} else {
		path = filepath.Join(s.bundledDir, ref)
	}

	data, err := s.readFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read image asset", "reference", ref, "error", err)
		}
		return Placeholder()
	}

	img, err := s.processor.Decode(data)
	if err != nil {
		s.logger.Warn("failed to decode stored image asset", "reference", ref, "error", err)
		return Placeholder()
	}

	s.cache.Put(ref, img)
	return img
}

// LoadBytes resolves a reference into raw encoded bytes at stored
// quality. Bundled assets come back at full bundle quality since the
// bundle may hold hi-res originals. Unresolvable references yield the
// placeholder bytes.
func (s *Store) LoadBytes(ctx context.Context, ref string) []byte {
	if ctx.Err() != nil || ref == "" || !validRefName(ref) {
		return PlaceholderBytes()
	}

	var path string
	if IsGeneratedRef(ref) {
		path = filepath.Join(s.imageDir, ref)
	} else {
		path = filepath.Join(s.bundledDir, ref)
	}

	data, err := s.readFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read image asset bytes", "reference", ref, "error", err)
		}
		return PlaceholderBytes()
	}
	return data
}

// Delete removes a generated asset from cache and durable storage.
// References outside the generated namespace are left untouched, and an
// already absent file counts as success.
func (s *Store) Delete(ctx context.Context, ref string) error {
	if !IsGeneratedRef(ref) || !validRefName(ref) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.cache.Remove(ref)

	s.mu.Lock()
	err := os.Remove(filepath.Join(s.imageDir, ref))
	s.mu.Unlock()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove image asset %s: %w", ref, err)
	}

	if s.bus != nil {
		event := events.NewEvent(events.EventAssetRemoved, "imagestore", "image asset removed")
		event.Data["reference"] = ref
		s.bus.PublishAsync(event)
	}
	return nil
}

// MigrateBundled converts bundled assets into managed generated assets
// so that caching and deletion semantics are uniform afterwards. The
// returned map holds one entry per successfully migrated name; entries
// that fail to load or save are logged and skipped.
func (s *Store) MigrateBundled(ctx context.Context, names []string) map[string]string {
	migrated := make(map[string]string, len(names))
	for _, name := range names {
		if _, done := migrated[name]; done || name == "" {
			continue
		}
		data, err := s.readFile(filepath.Join(s.bundledDir, name))
		if err != nil {
			s.logger.Warn("skipping bundled asset migration", "name", name, "error", err)
			continue
		}
		ref, err := s.Save(ctx, data)
		if err != nil {
			s.logger.Warn("failed to migrate bundled asset", "name", name, "error", err)
			continue
		}
		migrated[name] = ref
	}
	return migrated
}

// writeFile persists data under the generated reference atomically
func (s *Store) writeFile(ref string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fullPath := filepath.Join(s.imageDir, ref)
	tempPath := fullPath + ".tmp"

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		os.Remove(tempPath)
		return err
	}
	if err := os.Rename(tempPath, fullPath); err != nil {
		os.Remove(tempPath)
		return err
	}
	return nil
}

func (s *Store) readFile(path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return os.ReadFile(path)
}

// validRefName rejects references that would escape the storage
// directories
func validRefName(ref string) bool {
	return ref == filepath.Base(ref) && ref != "." && ref != ".."
}
