package media

import (
	"context"
	"fmt"
	"image"
	"os"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"

	"deepcheck/internal/domain"
)

// Prober reads image dimensions and embedded capture metadata from disk.
// A file without EXIF is not an error: absence is exactly the signal the
// heuristic scorer wants to see.
type Prober struct{}

// NewProber creates a metadata prober.
func NewProber() *Prober {
	return &Prober{}
}

// Probe returns the file's dimensions, EXIF presence, and the timestamp and
// software fields when available.
func (p *Prober) Probe(ctx context.Context, path string) (domain.FileMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.FileMetadata{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return domain.FileMetadata{}, fmt.Errorf("decode image config: %w", err)
	}

	meta := domain.FileMetadata{
		Width:  cfg.Width,
		Height: cfg.Height,
	}

	if _, err := f.Seek(0, 0); err != nil {
		return domain.FileMetadata{}, fmt.Errorf("rewind %s: %w", path, err)
	}

	x, err := exif.Decode(f)
	if err != nil {
		// No EXIF block at all. Fall back to filesystem mtime so the
		// timestamp rule still has something to compare against.
		if info, statErr := os.Stat(path); statErr == nil {
			mtime := info.ModTime()
			meta.ModifyTime = &mtime
		}
		return meta, nil
	}

	meta.HasExif = true

	if tag, tagErr := x.Get(exif.Software); tagErr == nil {
		if software, valErr := tag.StringVal(); valErr == nil {
			meta.Software = software
		}
	}

	if captured, ok := exifTime(x, exif.DateTimeOriginal); ok {
		meta.CaptureTime = &captured
	}
	if modified, ok := exifTime(x, exif.DateTime); ok {
		meta.ModifyTime = &modified
	}

	return meta, nil
}

// exifTime parses an EXIF timestamp field in the 2006:01:02 layout.
func exifTime(x *exif.Exif, field exif.FieldName) (time.Time, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return time.Time{}, false
	}
	raw, err := tag.StringVal()
	if err != nil {
		return time.Time{}, false
	}
	parsed, err := time.Parse("2006:01:02 15:04:05", raw)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
