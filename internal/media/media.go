// Package media stores review photos in object storage and turns stored
// paths into URLs clients can fetch.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"reviewapi/internal/storage"
)

const (
	// Prefix is the storage folder review photos are written under.
	Prefix = "reviews"

	URLModePublic    = "public"
	URLModePresigned = "presigned"

	DefaultMaxBytes int64 = 5 << 20
)

var (
	ErrUnsupportedType = errors.New("image must be a jpeg or png file")
	ErrTooLarge        = errors.New("image exceeds the maximum size")
	ErrEmptyFile       = errors.New("image is empty")
	ErrInvalidPath     = errors.New("invalid media path")
)

var allowed = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
}

// FileUpload is an uploaded image as received from the client. Open may be
// called more than once; each call returns a fresh reader from the start.
type FileUpload struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// Options configure Attachments.
type Options struct {
	PublicBaseURL string
	URLMode       string
	PresignExpiry time.Duration
	MaxBytes      int64
}

// Attachments validates, stores and resolves review photos.
type Attachments struct {
	store    storage.Storage
	base     string
	mode     string
	expiry   time.Duration
	maxBytes int64
}

func NewAttachments(store storage.Storage, opts Options) *Attachments {
	a := &Attachments{
		store:    store,
		base:     strings.TrimRight(opts.PublicBaseURL, "/"),
		mode:     opts.URLMode,
		expiry:   opts.PresignExpiry,
		maxBytes: opts.MaxBytes,
	}
	if a.mode != URLModePresigned {
		a.mode = URLModePublic
	}
	if a.expiry <= 0 {
		a.expiry = time.Hour
	}
	if a.maxBytes <= 0 {
		a.maxBytes = DefaultMaxBytes
	}
	return a
}

// Validate checks size, extension and sniffed content type.
func (a *Attachments) Validate(f FileUpload) error {
	if f.Size == 0 {
		return ErrEmptyFile
	}
	if f.Size > a.maxBytes {
		return ErrTooLarge
	}
	_, err := a.detect(f)
	return err
}

func (a *Attachments) detect(f FileUpload) (*mimetype.MIME, error) {
	if f.Open == nil {
		return nil, ErrEmptyFile
	}
	r, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer r.Close()

	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return nil, fmt.Errorf("detect content type: %w", err)
	}
	exts, ok := allowed[mt.String()]
	if !ok {
		return nil, ErrUnsupportedType
	}
	ext := strings.ToLower(path.Ext(f.Filename))
	for _, e := range exts {
		if e == ext {
			return mt, nil
		}
	}
	return nil, ErrUnsupportedType
}

// Store uploads f under reviews/<uuid><ext> and returns the storage-relative path.
func (a *Attachments) Store(ctx context.Context, f FileUpload) (string, error) {
	mt, err := a.detect(f)
	if err != nil {
		return "", err
	}
	r, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer r.Close()

	key := path.Join(Prefix, uuid.New().String()+strings.ToLower(path.Ext(f.Filename)))
	info, err := a.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        f.Size,
		ContentType: mt.String(),
		Metadata: map[string]string{
			"original-filename": f.Filename,
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload to storage: %w", err)
	}
	return info.Key, nil
}

// AbsoluteURL returns p unchanged when it is already a fully-qualified URL;
// otherwise it resolves the stored path against the public base or presigns it.
func (a *Attachments) AbsoluteURL(ctx context.Context, p string) (string, error) {
	if IsAbsoluteURL(p) {
		return p, nil
	}
	key := strings.TrimLeft(p, "/")
	if key == "" {
		return "", ErrInvalidPath
	}
	if a.mode == URLModePresigned {
		return a.store.PresignGet(ctx, key, a.expiry)
	}
	return a.base + "/" + key, nil
}

// Delete removes the stored object behind p. Missing objects are not errors.
// Absolute URLs outside the public base are left alone.
func (a *Attachments) Delete(ctx context.Context, p string) error {
	key, ok := a.keyFor(p)
	if !ok {
		return nil
	}
	return a.store.Delete(ctx, key)
}

// Open streams a stored photo.
func (a *Attachments) Open(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" || strings.Contains(key, "..") || !strings.HasPrefix(key, Prefix+"/") {
		return nil, storage.ObjectInfo{}, ErrInvalidPath
	}
	return a.store.Get(ctx, key)
}

func (a *Attachments) keyFor(p string) (string, bool) {
	if !IsAbsoluteURL(p) {
		key := strings.TrimLeft(p, "/")
		return key, key != ""
	}
	if a.base == "" || !strings.HasPrefix(p, a.base+"/") {
		return "", false
	}
	key := strings.TrimPrefix(p, a.base+"/")
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	return key, key != ""
}

// IsAbsoluteURL reports whether s carries both a scheme and a host.
func IsAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}
