// Package icon implements the Icon Resolver boundary (spec 1, "Icon
// Resolver"): the collaborator that turns an icon name, a replacement
// path, or a raw image-data payload into a surface the Renderer can
// hand to GTK. Theme walking and pixel-level decoding are explicitly
// out of the core's scope (spec 1, Non-goals: "no icon theme spec");
// this package only resolves a usable reference — a theme icon name
// GTK's own `gtk.Image.SetFromIconName` looks up, or an absolute file
// path `SetFromFile` loads — and materializes raw image-data hints to
// a temp file so they can be handed to the same file-based path.
package icon

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jmylchreest/dunstd/internal/model"
)

// Surface is the value stored on model.Record.IconSurface once an icon
// has been resolved. Kind distinguishes a bare theme name (the
// Renderer looks it up via the display server's own icon theme) from a
// resolved file path (the Renderer loads it directly); the core never
// interprets either (spec 3: "derived icon surface once resolved").
type Surface struct {
	Kind SurfaceKind
	Ref  string // theme icon name, or an absolute file path
}

type SurfaceKind int

const (
	SurfaceThemeName SurfaceKind = iota
	SurfaceFilePath
)

// Resolver resolves icon names/paths to Surfaces and decodes raw
// image-data hints, caching the result by source key so repeated
// notifications from the same app don't redo the work.
type Resolver struct {
	mu       sync.RWMutex
	cache    map[string]*Surface
	logger   *slog.Logger
	cacheDir string // where DecodeRaw materializes raw payloads as PNGs
}

// New creates a Resolver. cacheDir holds materialized raw-icon PNGs;
// an empty value falls back to os.TempDir().
func New(cacheDir string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "dunstd-icons")
	}
	return &Resolver{cache: make(map[string]*Surface), logger: logger, cacheDir: cacheDir}
}

// Resolve implements rules.IconResolver: ref is either an absolute
// file path (or a "file://" URI), or a bare theme icon name. A
// failure is never fatal to the caller (spec 7: "Icon load failure ->
// leave icon surface absent"); Resolve just returns the error.
func (r *Resolver) Resolve(ref string) (any, error) {
	if ref == "" {
		return nil, fmt.Errorf("icon: empty reference")
	}

	r.mu.RLock()
	if s, ok := r.cache[ref]; ok {
		r.mu.RUnlock()
		return s, nil
	}
	r.mu.RUnlock()

	path := strings.TrimPrefix(ref, "file://")
	var s *Surface
	if filepath.IsAbs(path) || strings.Contains(path, "/") {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("icon: stat %s: %w", path, err)
		}
		s = &Surface{Kind: SurfaceFilePath, Ref: path}
	} else {
		s = &Surface{Kind: SurfaceThemeName, Ref: ref}
	}

	r.mu.Lock()
	r.cache[ref] = s
	r.mu.Unlock()
	return s, nil
}

// DecodeRaw materializes a Notify interface image-data hint (spec
// 6.1) as a standalone RGBA PNG file under the resolver's cache
// directory, keyed by content hash so identical payloads from rapid
// producers (e.g. a volume OSD) reuse the same file. The caller has
// already validated the payload length against model.MaxImageDataLen.
func (r *Resolver) DecodeRaw(raw *model.RawIcon) (any, error) {
	if raw == nil {
		return nil, fmt.Errorf("icon: nil raw icon")
	}

	sum := sha1.Sum(raw.Data)
	key := hex.EncodeToString(sum[:])
	cachePath := filepath.Join(r.cacheDir, key+".png")

	r.mu.RLock()
	if s, ok := r.cache[key]; ok {
		r.mu.RUnlock()
		return s, nil
	}
	r.mu.RUnlock()

	if _, err := os.Stat(cachePath); err != nil {
		img, err := decodeRawImage(raw)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(r.cacheDir, 0o700); err != nil {
			return nil, fmt.Errorf("icon: create cache dir: %w", err)
		}
		f, err := os.Create(cachePath)
		if err != nil {
			return nil, fmt.Errorf("icon: create cache file: %w", err)
		}
		defer func() { _ = f.Close() }()
		if err := png.Encode(f, img); err != nil {
			return nil, fmt.Errorf("icon: encode raw image-data: %w", err)
		}
	}

	s := &Surface{Kind: SurfaceFilePath, Ref: cachePath}
	r.mu.Lock()
	r.cache[key] = s
	r.mu.Unlock()
	return s, nil
}

// decodeRawImage converts the freedesktop (iiibiiay) pixel layout
// (width, height, rowstride, has-alpha, bits-per-sample, channels,
// payload) into a standard library image.Image.
func decodeRawImage(raw *model.RawIcon) (image.Image, error) {
	if raw.BitsPerSample != 8 {
		return nil, fmt.Errorf("icon: unsupported bits-per-sample %d", raw.BitsPerSample)
	}
	channels := raw.Channels
	if channels != 3 && channels != 4 {
		return nil, fmt.Errorf("icon: unsupported channel count %d", channels)
	}

	img := image.NewNRGBA(image.Rect(0, 0, raw.Width, raw.Height))
	for y := 0; y < raw.Height; y++ {
		rowStart := y * raw.RowStride
		for x := 0; x < raw.Width; x++ {
			px := rowStart + x*channels
			if px+channels > len(raw.Data) {
				return nil, fmt.Errorf("icon: payload too short for %dx%d image", raw.Width, raw.Height)
			}
			c := color.NRGBA{R: raw.Data[px], G: raw.Data[px+1], B: raw.Data[px+2], A: 255}
			if raw.HasAlpha && channels == 4 {
				c.A = raw.Data[px+3]
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img, nil
}

// Invalidate drops a single cached entry, used by the theme hot-reload
// watcher when an underlying file changes.
func (r *Resolver) Invalidate(ref string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, ref)
}

// Clear drops every cached entry.
func (r *Resolver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]*Surface)
}
