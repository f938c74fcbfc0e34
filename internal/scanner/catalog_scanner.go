package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strings"
)

// imageExts are the catalog-eligible file extensions, lowercased.
var imageExts = map[string]bool{
	".svg":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// attentionDir is the top-level folder whose assets double as attention
// checks. attention/red-square.svg expects the word "red" in descriptions.
const attentionDir = "attention"

// progressEvery is the log cadence for large catalogs.
const progressEvery = 500

// Registrar persists discovered catalog entries.
type Registrar interface {
	EnsureImage(ctx context.Context, imageID, imageURL string) (int64, error)
	EnsureAttentionCheck(ctx context.Context, imageID, expectedKeyword string) error
}

// Summary is the result of one catalog scan.
type Summary struct {
	Registered int
	Attention  int
	Skipped    int
	Failed     int
}

// CatalogScanner registers every image asset under the images directory so
// random draws have a full catalog before the first submission arrives.
// Submissions for unseen ids still register lazily; the startup scan
// front-loads the common case and is the only place attention checks enter
// the system.
type CatalogScanner struct {
	root  string
	store Registrar
}

func NewCatalogScanner(root string, store Registrar) *CatalogScanner {
	return &CatalogScanner{root: root, store: store}
}

// Scan walks the images directory once. Registration is idempotent, so
// rescanning on every startup is safe. Unreadable entries and failed
// registrations are counted and skipped; only an unreadable root or a
// cancelled context aborts the walk.
func (s *CatalogScanner) Scan(ctx context.Context) (Summary, error) {
	var sum Summary
	log.Printf("[Catalog] Scanning %s", s.root)

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if walkErr != nil {
			if path == s.root {
				return walkErr
			}
			log.Printf("[Catalog] Skipping unreadable entry %s: %v", path, walkErr)
			sum.Skipped++
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !imageExts[strings.ToLower(filepath.Ext(path))] {
			sum.Skipped++
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			sum.Skipped++
			return nil
		}
		imageID := filepath.ToSlash(rel)

		if _, err := s.store.EnsureImage(ctx, imageID, "/api/images/"+imageID); err != nil {
			log.Printf("[Catalog] Failed to register %s: %v", imageID, err)
			sum.Failed++
			return nil
		}
		sum.Registered++

		if keyword, ok := attentionKeyword(imageID); ok {
			if err := s.store.EnsureAttentionCheck(ctx, imageID, keyword); err != nil {
				log.Printf("[Catalog] Failed to register attention check %s: %v", imageID, err)
				sum.Failed++
			} else {
				sum.Attention++
			}
		}

		if sum.Registered%progressEvery == 0 {
			log.Printf("[Catalog] Progress: %d images registered", sum.Registered)
		}
		return nil
	})
	if err != nil {
		return sum, fmt.Errorf("failed to scan image catalog: %v", err)
	}

	log.Printf("[Catalog] ✅ Scan complete: %d images registered (%d attention checks), %d skipped, %d failed",
		sum.Registered, sum.Attention, sum.Skipped, sum.Failed)
	return sum, nil
}

// attentionKeyword reports whether an image id is an attention-check asset
// and derives the expected keyword from its file name: the stem up to the
// first dash, lowercased.
func attentionKeyword(imageID string) (string, bool) {
	if !strings.HasPrefix(imageID, attentionDir+"/") {
		return "", false
	}
	base := imageID[strings.LastIndexByte(imageID, '/')+1:]
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if i := strings.IndexByte(stem, '-'); i > 0 {
		stem = stem[:i]
	}
	stem = strings.ToLower(strings.TrimSpace(stem))
	if stem == "" {
		return "", false
	}
	return stem, true
}
