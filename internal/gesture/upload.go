package gesture

import (
	"crypto/sha256"
	"encoding/hex"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrUnsupportedFormat = errors.New("only JPEG and PNG images are accepted")
	ErrTooLarge          = errors.New("image exceeds the upload size limit")
	ErrDecode            = errors.New("image could not be decoded")
	ErrRejected          = errors.New("no joined hands detected")
)

// DefaultMaxPixels bounds the decoded canvas (width x height)
const DefaultMaxPixels = 40_000_000

var (
	allowedExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}
	allowedTypes      = map[string]bool{"image/jpeg": true, "image/jpg": true, "image/png": true}
)

// Upload is one submitted image file
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Accept checks that a file is a JPEG or PNG photo by name and declared type.
// An empty or generic declared type defers to the extension.
func Accept(filename, contentType string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return ErrUnsupportedFormat
	}

	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" || ct == "application/octet-stream" {
		return nil
	}
	if !allowedTypes[ct] {
		return ErrUnsupportedFormat
	}
	return nil
}

// Handle is a temporary on-disk copy of an upload. It is owned by exactly one
// verification and must be released on every exit path.
type Handle struct {
	path   string
	digest string
	once   sync.Once
}

// Spool copies the upload into a temp file under dir (os.TempDir when empty).
// maxBytes <= 0 disables the size limit.
func Spool(dir string, up Upload, maxBytes int64) (*Handle, error) {
	if err := Accept(up.Filename, up.ContentType); err != nil {
		return nil, err
	}

	f, err := os.CreateTemp(dir, "gesture-*"+strings.ToLower(filepath.Ext(up.Filename)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create spool file")
	}
	h := &Handle{path: f.Name()}

	src := up.Body
	if maxBytes > 0 {
		src = io.LimitReader(up.Body, maxBytes+1)
	}

	sum := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, sum), src)
	closeErr := f.Close()
	switch {
	case err != nil:
		h.Release()
		return nil, errors.Wrap(err, "failed to spool upload")
	case closeErr != nil:
		h.Release()
		return nil, errors.Wrap(closeErr, "failed to close spool file")
	case maxBytes > 0 && n > maxBytes:
		h.Release()
		return nil, ErrTooLarge
	}

	h.digest = hex.EncodeToString(sum.Sum(nil))
	return h, nil
}

// Digest is the hex SHA-256 of the spooled bytes
func (h *Handle) Digest() string {
	return h.digest
}

// Decode loads the spooled bytes as a JPEG or PNG image. Images whose
// declared width x height exceeds maxPixels fail with ErrDecode before any
// pixel data is allocated; maxPixels <= 0 disables the check.
func (h *Handle) Decode(maxPixels int) (image.Image, error) {
	f, err := os.Open(h.path)
	if err != nil {
		return nil, errors.Wrap(ErrDecode, err.Error())
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, errors.Wrap(ErrDecode, err.Error())
	}
	if format != "jpeg" && format != "png" {
		return nil, errors.Wrapf(ErrDecode, "unsupported format %s", format)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, errors.Wrapf(ErrDecode, "image is %dx%d, over the %d pixel limit", cfg.Width, cfg.Height, maxPixels)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(ErrDecode, err.Error())
	}
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrap(ErrDecode, err.Error())
	}
	return img, nil
}

// Release removes the spool file. It is safe to call more than once.
func (h *Handle) Release() {
	h.once.Do(func() {
		_ = os.Remove(h.path)
	})
}
