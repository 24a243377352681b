package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"heritage-archive-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"batik tulis (1).jpg", "batik_tulis__1_.jpg"},
		{"wau-bulan_v2.png", "wau-bulan_v2.png"},
		{"", "file"},
		{"../../etc/passwd", "passwd"},
		{"songket é.pdf", "songket__.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeName(tt.in))
		})
	}
}

func TestBuildStoragePath(t *testing.T) {
	p := BuildStoragePath("photo 1.jpg")
	assert.Regexp(t, regexp.MustCompile(`^archives/[0-9a-f]{32}/photo_1\.jpg$`), p)
	assert.NotEqual(t, p, BuildStoragePath("photo 1.jpg"))
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	key := BuildStoragePath("note.txt")
	got, err := store.Put(ctx, key, strings.NewReader("kain songket"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, key, got)

	ok, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, key))
	ok, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Put(ctx, "../outside.txt", strings.NewReader("x"), "")
	assert.Error(t, err)
}

func TestS3StorePut(t *testing.T) {
	var gotPath, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store, err := NewS3Store(context.Background(), S3Config{
		Bucket:    "archive-materials",
		Prefix:    "prod",
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
	}, logger.NewNopLogger())
	require.NoError(t, err)

	key, err := store.Put(context.Background(), "archives/abc/photo.jpg", bytes.NewReader([]byte("jpeg")), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "archives/abc/photo.jpg", key)
	assert.Equal(t, "/archive-materials/prod/archives/abc/photo.jpg", gotPath)
	assert.Equal(t, "image/jpeg", gotType)
	assert.Contains(t, string(gotBody), "jpeg")
}
