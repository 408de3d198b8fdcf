package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"strings"

	// Register decoders accepted for uploads.
	_ "image/gif"
	_ "image/png"

	"feeds/internal/middleware"
	"feeds/internal/models"
	"feeds/internal/storage"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	MasterMaxSize = 2048
	JPEGQuality   = 82
	WebPQuality   = 70

	masterJPEG = "master.jpg"
	masterWebP = "master.webp"
)

// ObjectStore persists encoded media. storage.LocalStore satisfies it.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// MediaUpload is the stored form of one image.
type MediaUpload struct {
	URL     string `json:"url"`
	WebPURL string `json:"webp_url"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// MediaService validates and normalizes uploaded images.
type MediaService struct {
	store    ObjectStore
	newKey   func() string
	maxBytes int64
}

// NewMediaService returns a MediaService writing to store. newKey names each
// upload's directory.
func NewMediaService(store ObjectStore, newKey func() string, maxUploadMB int) *MediaService {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &MediaService{store: store, newKey: newKey, maxBytes: int64(maxUploadMB) << 20}
}

// MaxBytes is the largest accepted upload.
func (s *MediaService) MaxBytes() int64 { return s.maxBytes }

// SaveImage decodes content, scales it to fit MasterMaxSize and stores a
// JPEG master plus a WebP rendition.
func (s *MediaService) SaveImage(ctx context.Context, content []byte) (*MediaUpload, error) {
	if len(content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(content)) > s.maxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxBytes>>20))
	}
	if !isAllowedImageMIME(http.DetectContentType(content)) {
		return nil, models.NewValidationError("Invalid image type")
	}

	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	master := resizeToFit(decoded, MasterMaxSize, MasterMaxSize)

	jpg, err := encodeJPEG(master, JPEGQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	wp, err := encodeWebP(master, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	jpgKey, webpKey := renditionKeys(s.newKey())
	jpgURL, err := s.store.Put(ctx, jpgKey, jpg)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	webpURL, err := s.store.Put(ctx, webpKey, wp)
	if err != nil {
		if delErr := s.store.Delete(ctx, jpgKey); delErr != nil {
			middleware.Logger.WarnContext(ctx, "media cleanup failed", "key", jpgKey, "error", delErr.Error())
		}
		return nil, models.NewInternalError(err)
	}

	b := master.Bounds()
	return &MediaUpload{URL: jpgURL, WebPURL: webpURL, Width: b.Dx(), Height: b.Dy()}, nil
}

func renditionKeys(prefix string) (jpgKey, webpKey string) {
	return prefix + "/" + masterJPEG, prefix + "/" + masterWebP
}

// DeleteImage removes both renditions of an image stored by SaveImage.
// URLs that SaveImage did not produce are left alone.
func (s *MediaService) DeleteImage(ctx context.Context, url string) error {
	key, ok := storage.KeyFromURL(url)
	if !ok {
		return nil
	}
	prefix, ok := strings.CutSuffix(key, "/"+masterJPEG)
	if !ok || prefix == "" {
		return nil
	}
	jpgKey, webpKey := renditionKeys(prefix)
	for _, k := range []string{jpgKey, webpKey} {
		if err := s.store.Delete(ctx, k); err != nil {
			return models.NewInternalError(err)
		}
	}
	return nil
}

func isAllowedImageMIME(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
