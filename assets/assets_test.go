package assets

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngOf(t *testing.T, w, h int) *bytes.Reader {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return bytes.NewReader(buf.Bytes())
}

func TestProcessImageDownscales(t *testing.T) {
	img, data, err := ProcessImage(pngOf(t, 1600, 400), "Holiday Photo.PNG")
	require.NoError(t, err)
	assert.Equal(t, MaxImageWidth, img.Width)
	assert.Equal(t, 200, img.Height)
	assert.Equal(t, "holiday-photo.jpg", img.Filename)
	assert.Equal(t, len(data), img.Size)

	decoded, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 800, decoded.Bounds().Dx())
}

func TestProcessImageKeepsSmallImages(t *testing.T) {
	img, _, err := ProcessImage(pngOf(t, 120, 80), "a.png")
	require.NoError(t, err)
	assert.Equal(t, 120, img.Width)
	assert.Equal(t, 80, img.Height)
}

func TestProcessImageRejectsGarbage(t *testing.T) {
	_, _, err := ProcessImage(strings.NewReader("not an image"), "x.png")
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	cases := map[string]string{
		"My Photo.png":     "my-photo.jpg",
		"../../etc/passwd": "passwd.jpg",
		"---.gif":          "image.jpg",
		"ÄÖ résumé.jpeg":   "r-sum.jpg",
	}
	for in, want := range cases {
		assert.Equal(t, want, Filename(in), in)
	}
}

func TestLocalStoragePutIsUnique(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir)
	ctx := context.Background()

	first, err := s.Put(ctx, "cat.jpg", []byte("1"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "/public/uploads/cat.jpg", first)

	second, err := s.Put(ctx, "cat.jpg", []byte("2"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "/public/uploads/cat-2.jpg", second)

	data, err := os.ReadFile(filepath.Join(dir, UploadsDir, "cat.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))

	require.NoError(t, s.Delete(ctx, "cat.jpg"))
	require.NoError(t, s.Delete(ctx, "cat.jpg"), "deleting twice is fine")
	_, err = os.Stat(filepath.Join(dir, UploadsDir, "cat.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewS3StorageRequiresCredentials(t *testing.T) {
	_, err := NewS3Storage(S3Config{Bucket: "b"})
	assert.Error(t, err)

	s, err := NewS3Storage(S3Config{Bucket: "b", Region: "eu-west-1", AccessKeyID: "k", SecretAccessKey: "s"})
	require.NoError(t, err)
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com", s.publicURL)
}

const searchBody = `{
  "total": 2,
  "results": [
    {"alt_description": "a red bike", "urls": {"regular": "https://img.example.com/1.jpg", "thumb": "https://img.example.com/1t.jpg"}, "user": {"name": "Ana"}},
    {"urls": {"regular": "https://img.example.com/2.jpg"}},
    {"urls": {}}
  ]
}`

func TestSearcherParsesResults(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	s := NewSearcher(srv.URL, "key")
	results, err := s.Search(context.Background(), " bikes ", 2)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/search/photos", got.URL.Path)
	assert.Equal(t, "bikes", got.URL.Query().Get("query"))
	assert.Equal(t, "2", got.URL.Query().Get("page"))
	assert.Equal(t, "Client-ID key", got.Header.Get("Authorization"))

	require.Len(t, results, 2)
	assert.Equal(t, Result{URL: "https://img.example.com/1.jpg", ThumbnailURL: "https://img.example.com/1t.jpg", Alt: "a red bike", Author: "Ana"}, results[0])
	assert.Equal(t, "https://img.example.com/2.jpg", results[1].ThumbnailURL, "thumbnail falls back to the full image")
}

func TestSearcherErrors(t *testing.T) {
	_, err := NewSearcher("", "").Search(context.Background(), "x", 1)
	assert.ErrorIs(t, err, ErrSearchDisabled)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":["OAuth error: The access token is invalid"]}`))
	}))
	defer srv.Close()
	_, err = NewSearcher(srv.URL, "bad").Search(context.Background(), "x", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access token is invalid")

	results, err := NewSearcher(srv.URL, "bad").Search(context.Background(), "   ", 1)
	require.NoError(t, err)
	assert.Empty(t, results)
}
