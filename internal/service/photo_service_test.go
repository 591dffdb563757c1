package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/babbageLabs/insta-lite/internal/config"
	"github.com/babbageLabs/insta-lite/internal/models"
	"github.com/babbageLabs/insta-lite/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedAdderStub struct {
	photos []*models.Photo
	err    error
}

func (f *feedAdderStub) AddPhotoToFeed(_ context.Context, photo *models.Photo) (int, error) {
	f.photos = append(f.photos, photo)
	return 1, f.err
}

func TestPhotoServiceUploadStoresVariants(t *testing.T) {
	store := testutil.NewMemoryBlobStore()
	feed := &feedAdderStub{}
	svc := NewPhotoService(noopPhotoRepo(), store, feed, &config.Config{})

	photo, err := svc.Upload(context.Background(), UploadPhotoInput{
		UserID:      4,
		Filename:    "beach.png",
		ContentType: "image/png",
		Content:     testutil.TinyPNG(t, 64, 32),
		Description: "Sunset at the #Beach #beach #travel",
	})
	require.NoError(t, err)

	assert.Len(t, store.Keys(), 3)
	assert.True(t, strings.HasSuffix(photo.Filename, ".png"))
	assert.Equal(t, "/media/"+photo.Filename, photo.URL)
	assert.True(t, strings.HasSuffix(photo.ThumbnailURL, "_thumb.jpg"))
	assert.True(t, strings.HasSuffix(photo.PreviewURL, "_preview.webp"))
	assert.Equal(t, "image/png", photo.MimeType)
	assert.Equal(t, []string{"beach", "travel"}, photo.Hashtags)
	require.Len(t, feed.photos, 1)
	assert.Equal(t, uint(4), feed.photos[0].UserID)
}

func TestPhotoServiceUploadSurvivesFanoutFailure(t *testing.T) {
	svc := NewPhotoService(noopPhotoRepo(), testutil.NewMemoryBlobStore(), &feedAdderStub{err: errors.New("db down")}, nil)

	photo, err := svc.Upload(context.Background(), UploadPhotoInput{UserID: 1, Filename: "a.png", Content: testutil.TinyPNG(t, 8, 8)})
	require.NoError(t, err)
	assert.NotNil(t, photo)
}

func TestPhotoServiceUploadRejects(t *testing.T) {
	svc := NewPhotoService(noopPhotoRepo(), testutil.NewMemoryBlobStore(), nil, &config.Config{PhotoMaxUploadSizeMB: 1})
	valid := testutil.TinyPNG(t, 8, 8)

	cases := []struct {
		name string
		in   UploadPhotoInput
	}{
		{"empty", UploadPhotoInput{UserID: 1}},
		{"text", UploadPhotoInput{UserID: 1, Content: []byte("hello, not an image")}},
		{"gif", UploadPhotoInput{UserID: 1, Content: []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")}},
		{"too large", UploadPhotoInput{UserID: 1, Content: bytes.Repeat([]byte{0}, 1024*1024+1)}},
		{"mismatch", UploadPhotoInput{UserID: 1, Content: valid, ContentType: "image/jpeg"}},
		{"long description", UploadPhotoInput{UserID: 1, Content: valid, Description: strings.Repeat("a", MaxDescriptionLength+1)}},
		{"corrupt png", UploadPhotoInput{UserID: 1, Content: valid[:40]}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), tc.in)
			assert.True(t, models.HasCode(err, models.CodeValidation), "got %v", err)
		})
	}
}

func TestPhotoServiceUploadCleansUpOnCreateFailure(t *testing.T) {
	repo := noopPhotoRepo()
	repo.createFn = func(context.Context, *models.Photo) error { return errors.New("insert failed") }
	store := testutil.NewMemoryBlobStore()

	_, err := NewPhotoService(repo, store, nil, nil).Upload(context.Background(), UploadPhotoInput{UserID: 1, Content: testutil.TinyPNG(t, 8, 8)})
	require.Error(t, err)
	assert.Empty(t, store.Keys())
	assert.Len(t, store.Deleted(), 3)
}

func TestPhotoServiceDeleteRemovesBlobs(t *testing.T) {
	repo := noopPhotoRepo()
	repo.deleteOwnedFn = func(_ context.Context, id, userID uint) (*models.Photo, error) {
		return &models.Photo{ID: id, UserID: userID, Filename: "photos/1-x.png"}, nil
	}
	store := testutil.NewMemoryBlobStore()

	require.NoError(t, NewPhotoService(repo, store, nil, nil).Delete(context.Background(), 1, 2))
	assert.Equal(t, []string{"photos/1-x.png", "photos/1-x_thumb.jpg", "photos/1-x_preview.webp"}, store.Deleted())
}

func TestPhotoServiceDeleteNotOwned(t *testing.T) {
	repo := noopPhotoRepo()
	repo.deleteOwnedFn = func(_ context.Context, id, _ uint) (*models.Photo, error) {
		return nil, models.NewNotFoundError("Photo", id)
	}
	store := testutil.NewMemoryBlobStore()

	err := NewPhotoService(repo, store, nil, nil).Delete(context.Background(), 1, 2)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.Empty(t, store.Deleted())
}

func TestExtractHashtags(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"", []string{}},
		{"no tags here", []string{}},
		{"#Go #go #GO", []string{"go"}},
		{"mixed #café and #snake_case, #2024!", []string{"café", "snake_case", "2024"}},
		{"email@host #ok", []string{"ok"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractHashtags(tt.text), tt.text)
	}
}

func TestResizeToFitKeepsAspect(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2000, 1000))
	out := resizeToFit(src, PreviewMaxSize, PreviewMaxSize)
	assert.Equal(t, PreviewMaxSize, out.Bounds().Dx())
	assert.Equal(t, PreviewMaxSize/2, out.Bounds().Dy())

	small := image.NewRGBA(image.Rect(0, 0, 10, 10))
	assert.Same(t, small, resizeToFit(small, PreviewMaxSize, PreviewMaxSize))
}
