package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"feeds/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failOn  string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (m *memStore) Put(_ context.Context, key string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if key == m.failOn {
		return "", errors.New("disk full")
	}
	m.objects[key] = data
	return "/uploads/" + key, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, G: 40, B: 90, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func fixedKey() string { return "abc" }

func TestMediaService_SaveImage(t *testing.T) {
	store := newMemStore()
	svc := NewMediaService(store, fixedKey, 5)

	up, err := svc.SaveImage(context.Background(), pngBytes(t, 64, 32))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/abc/master.jpg", up.URL)
	assert.Equal(t, "/uploads/abc/master.webp", up.WebPURL)
	assert.Equal(t, 64, up.Width)
	assert.Equal(t, 32, up.Height)

	require.Contains(t, store.objects, "abc/master.jpg")
	_, format, err := image.DecodeConfig(bytes.NewReader(store.objects["abc/master.jpg"]))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Contains(t, store.objects, "abc/master.webp")
}

func TestMediaService_Rejects(t *testing.T) {
	svc := NewMediaService(newMemStore(), fixedKey, 1)
	ctx := context.Background()

	tests := []struct {
		name    string
		content []byte
		wantMsg string
	}{
		{name: "Empty", content: nil, wantMsg: "No file uploaded"},
		{name: "Too large", content: make([]byte, 1<<20+1), wantMsg: "File too large (max 1MB)"},
		{name: "Not an image", content: []byte("just some text"), wantMsg: "Invalid image type"},
		{name: "Truncated png", content: pngBytes(t, 8, 8)[:40], wantMsg: "Invalid image file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SaveImage(ctx, tt.content)
			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, models.CodeValidation, appErr.Code)
			assert.Equal(t, tt.wantMsg, appErr.Message)
		})
	}
}

func TestMediaService_CleansUpOnPartialWrite(t *testing.T) {
	store := newMemStore()
	store.failOn = "abc/master.webp"
	svc := NewMediaService(store, fixedKey, 5)

	_, err := svc.SaveImage(context.Background(), pngBytes(t, 16, 16))
	assert.Equal(t, models.CodeInternal, models.ErrorCode(err))
	assert.Empty(t, store.objects)
}

func TestResizeToFit(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{name: "Small image untouched", w: 100, h: 50, wantW: 100, wantH: 50},
		{name: "Wide image", w: 4096, h: 100, wantW: 2048, wantH: 50},
		{name: "Tall image", w: 30, h: 4096, wantW: 15, wantH: 2048},
		{name: "Extreme ratio keeps one pixel", w: 8192, h: 1, wantW: 2048, wantH: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resizeToFit(image.NewRGBA(image.Rect(0, 0, tt.w, tt.h)), MasterMaxSize, MasterMaxSize)
			assert.Equal(t, tt.wantW, got.Bounds().Dx())
			assert.Equal(t, tt.wantH, got.Bounds().Dy())
		})
	}
}

func TestMediaService_DeleteImage(t *testing.T) {
	store := newMemStore()
	n := 0
	svc := NewMediaService(store, func() string { n++; return fmt.Sprintf("k%d", n) }, 5)
	ctx := context.Background()

	first, err := svc.SaveImage(ctx, pngBytes(t, 8, 8))
	require.NoError(t, err)
	_, err = svc.SaveImage(ctx, pngBytes(t, 8, 8))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteImage(ctx, first.URL))
	assert.NotContains(t, store.objects, "k1/master.jpg")
	assert.NotContains(t, store.objects, "k1/master.webp")
	assert.Contains(t, store.objects, "k2/master.jpg")

	// Addresses SaveImage never produced are ignored.
	for _, url := range []string{"https://cdn.example.com/me.png", "/uploads/k2/other.png", ""} {
		require.NoError(t, svc.DeleteImage(ctx, url))
	}
	assert.Contains(t, store.objects, "k2/master.jpg")
	assert.Contains(t, store.objects, "k2/master.webp")
}
