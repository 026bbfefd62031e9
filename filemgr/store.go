package filemgr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"net/url"
	"path"
	"strings"
	"sync"

	_ "image/gif"
	_ "image/png"

	"micmap/fetch"
	"micmap/utils"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Asset describes one stored image pair.
type Asset struct {
	FileName string // base filename both versions derive from
	Original string // stored name of the original version
	Thumb    string // stored name of the thumb version
	Width    int    // pixel width of the original, for fidelity comparison
}

// Store owns the image lifecycle for every owner kind. All operations against
// one owner directory are serialized through a per-slug lock so concurrent
// re-processing of the same owner cannot interleave delete/write sequences.
type Store struct {
	backend Backend

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *Store) ownerLock(kind EntityType, slug string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := string(kind) + "/" + slug
	if l, ok := s.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[key] = l
	return l
}

// SaveFromURL downloads an image and persists both derived versions under the
// owner's directory. position > 0 distinguishes multi-image sets.
func (s *Store) SaveFromURL(ctx context.Context, kind EntityType, slug, imageURL string, position int) (Asset, error) {
	body, err := fetch.Image(ctx, imageURL)
	if err != nil {
		return Asset{}, &AssetError{Op: "download", Path: imageURL, Err: err}
	}
	return s.Save(kind, slug, filenameFromURL(imageURL), body, position)
}

// Save validates, re-encodes, and stores the original plus a square
// center-cropped thumb.
func (s *Store) Save(kind EntityType, slug, filename string, body []byte, position int) (Asset, error) {
	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return Asset{}, &AssetError{Op: "store", Path: filename, Err: fmt.Errorf("decode image: %w", err)}
	}

	filename = SafeFilename(jpegName(filename))

	// re-encode so stored originals are always valid jpeg with EXIF dropped
	var origBuf bytes.Buffer
	if err := jpeg.Encode(&origBuf, img, &jpeg.Options{Quality: 90}); err != nil {
		return Asset{}, &AssetError{Op: "store", Path: filename, Err: err}
	}

	thumbImg := imaging.Fill(img, ThumbSize, ThumbSize, imaging.Center, imaging.Lanczos)
	var thumbBuf bytes.Buffer
	if err := jpeg.Encode(&thumbBuf, thumbImg, &jpeg.Options{Quality: 85}); err != nil {
		return Asset{}, &AssetError{Op: "store", Path: filename, Err: err}
	}

	lock := s.ownerLock(kind, slug)
	lock.Lock()
	defer lock.Unlock()

	dir := OwnerDir(kind, slug)
	current := namingStrategies[0]
	origName := current.FileName(VersionOriginal, filename, position)
	thumbName := current.FileName(VersionThumb, filename, position)

	if err := s.backend.Put(path.Join(dir, origName), origBuf.Bytes()); err != nil {
		return Asset{}, &AssetError{Op: "store", Path: path.Join(dir, origName), Err: err}
	}
	if err := s.backend.Put(path.Join(dir, thumbName), thumbBuf.Bytes()); err != nil {
		return Asset{}, &AssetError{Op: "store", Path: path.Join(dir, thumbName), Err: err}
	}

	return Asset{
		FileName: filename,
		Original: origName,
		Thumb:    thumbName,
		Width:    img.Bounds().Dx(),
	}, nil
}

// Relocate moves every file from the old slug directory to the new one. The
// caller must not proceed with the owner update if this fails; a dangling
// image reference is worse than a stale slug.
func (s *Store) Relocate(kind EntityType, oldSlug, newSlug string) error {
	if oldSlug == newSlug {
		return nil
	}

	// take both owner locks in slug order so two crossing renames cannot
	// each hold one and wait on the other
	first, second := s.ownerLock(kind, oldSlug), s.ownerLock(kind, newSlug)
	if newSlug < oldSlug {
		first, second = second, first
	}
	first.Lock()
	defer first.Unlock()
	second.Lock()
	defer second.Unlock()

	oldDir := OwnerDir(kind, oldSlug)
	newDir := OwnerDir(kind, newSlug)

	objects, err := s.backend.List(oldDir)
	if err != nil {
		return &AssetError{Op: "relocate", Path: oldDir, Err: err}
	}

	for _, obj := range objects {
		data, err := s.backend.Get(obj.Path)
		if err != nil {
			return &AssetError{Op: "relocate", Path: obj.Path, Err: err}
		}
		dst := path.Join(newDir, path.Base(obj.Path))
		if err := s.backend.Put(dst, data); err != nil {
			return &AssetError{Op: "relocate", Path: dst, Err: err}
		}
	}
	// only delete once every copy landed
	for _, obj := range objects {
		if err := s.backend.Delete(obj.Path); err != nil && !errors.Is(err, ErrNotFound) {
			return &AssetError{Op: "relocate", Path: obj.Path, Err: err}
		}
	}
	return nil
}

// Delete removes both versions of one asset, attempting every naming strategy
// so legacy-named files do not linger as orphans.
func (s *Store) Delete(kind EntityType, slug, filename string, position int) error {
	lock := s.ownerLock(kind, slug)
	lock.Lock()
	defer lock.Unlock()

	dir := OwnerDir(kind, slug)
	var firstErr error
	for _, version := range []Version{VersionOriginal, VersionThumb} {
		for _, ns := range namingStrategies {
			p := path.Join(dir, ns.FileName(version, filename, position))
			err := s.backend.Delete(p)
			if err == nil || errors.Is(err, ErrNotFound) {
				continue
			}
			if firstErr == nil {
				firstErr = &AssetError{Op: "delete", Path: p, Err: err}
			}
		}
	}
	return firstErr
}

// URL resolves the serving path for an asset, trying the current naming
// pattern first, then the legacy one, then the owner-level placeholder.
func (s *Store) URL(kind EntityType, slug string, version Version, filename string, position int) string {
	dir := OwnerDir(kind, slug)
	for _, ns := range namingStrategies {
		p := path.Join(dir, ns.FileName(version, filename, position))
		if _, err := s.backend.Get(p); err == nil {
			return "/static/" + p
		}
	}
	return PlaceholderImage
}

func filenameFromURL(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err == nil {
		base := path.Base(u.Path)
		if base != "." && base != "/" && base != "" {
			return base
		}
	}
	// no usable name in the URL; a fixed fallback would collide within a dir
	return "image_" + strings.ToLower(utils.GenerateRandomString(8)) + ".jpg"
}

// stored originals are always jpeg after re-encode
func jpegName(name string) string {
	base, _ := splitExt(name)
	if base == "" {
		base = "image"
	}
	return base + ".jpg"
}
