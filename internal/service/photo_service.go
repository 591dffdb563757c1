package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/babbageLabs/insta-lite/internal/cache"
	"github.com/babbageLabs/insta-lite/internal/config"
	"github.com/babbageLabs/insta-lite/internal/middleware"
	"github.com/babbageLabs/insta-lite/internal/models"
	"github.com/babbageLabs/insta-lite/internal/observability"
	"github.com/babbageLabs/insta-lite/internal/repository"
	"github.com/babbageLabs/insta-lite/internal/storage"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

const (
	DefaultPhotoMaxUploadSizeMB = 5
	ThumbnailSize               = 640
	PreviewMaxSize              = 1080
	JPEGQuality                 = 82
	WebPQuality                 = 70
	MaxDescriptionLength        = 2200
	maxHashtagsPerPhoto         = 30
	maxHashtagLength            = 100
)

var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// UploadPhotoInput carries one multipart upload.
type UploadPhotoInput struct {
	UserID      uint
	Filename    string
	ContentType string
	Content     []byte
	Description string
}

// FeedAdder fans a freshly stored photo out to feeds.
type FeedAdder interface {
	AddPhotoToFeed(ctx context.Context, photo *models.Photo) (int, error)
}

type PhotoService struct {
	photoRepo          repository.PhotoRepository
	store              storage.BlobStore
	feed               FeedAdder
	maxUploadSizeBytes int64
	now                func() time.Time
}

func NewPhotoService(photoRepo repository.PhotoRepository, store storage.BlobStore, feed FeedAdder, cfg *config.Config) *PhotoService {
	maxUploadSizeMB := DefaultPhotoMaxUploadSizeMB
	if cfg != nil && cfg.PhotoMaxUploadSizeMB > 0 {
		maxUploadSizeMB = cfg.PhotoMaxUploadSizeMB
	}
	return &PhotoService{
		photoRepo:          photoRepo,
		store:              store,
		feed:               feed,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
		now:                func() time.Time { return time.Now().UTC() },
	}
}

// MaxUploadSizeBytes is the accepted upload size.
func (s *PhotoService) MaxUploadSizeBytes() int64 {
	return s.maxUploadSizeBytes
}

// Upload validates the image, stores it with a thumbnail and a webp preview,
// records the photo and fans it out to feeds.
func (s *PhotoService) Upload(ctx context.Context, in UploadPhotoInput) (*models.Photo, error) {
	span, ctx := observability.NewSpan(ctx, "PhotoService.Upload", observability.UserAttr("user_id", in.UserID))
	defer span.End()

	if in.UserID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}
	in.Description = strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(in.Description) > MaxDescriptionLength {
		return nil, models.NewValidationError(fmt.Sprintf("Description too long (max %d characters)", MaxDescriptionLength))
	}

	detected := normalizeContentType(http.DetectContentType(in.Content))
	if !isAllowedPhotoMIME(detected) {
		return nil, models.NewValidationError("Only JPEG and PNG images are allowed")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, detected) {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	decoded, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	thumb, err := encodeThumbnail(decoded)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	preview, err := encodeWebP(resizeToFit(decoded, PreviewMaxSize, PreviewMaxSize), WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	now := s.now()
	key := storage.ObjectKey(now, photoExtension(in.Filename, detected))
	objects := []struct {
		key, contentType string
		body             []byte
	}{
		{key, detected, in.Content},
		{storage.VariantKey(key, "thumb", ".jpg"), "image/jpeg", thumb},
		{storage.VariantKey(key, "preview", ".webp"), "image/webp", preview},
	}
	urls := make([]string, 0, len(objects))
	for _, obj := range objects {
		url, err := s.store.Put(ctx, obj.key, obj.body, obj.contentType)
		if err != nil {
			s.removeBlobs(ctx, objects[0].key)
			return nil, models.NewInternalError(span.Fail(err))
		}
		urls = append(urls, url)
	}

	photo := &models.Photo{
		UserID:       in.UserID,
		Filename:     key,
		OriginalName: filepath.Base(in.Filename),
		MimeType:     detected,
		Size:         int64(len(in.Content)),
		URL:          urls[0],
		ThumbnailURL: urls[1],
		PreviewURL:   urls[2],
		Description:  in.Description,
		UploadedAt:   now,
		Hashtags:     ExtractHashtags(in.Description),
	}
	if err := s.photoRepo.Create(ctx, photo); err != nil {
		s.removeBlobs(ctx, key)
		return nil, err
	}

	if s.feed != nil {
		if _, err := s.feed.AddPhotoToFeed(ctx, photo); err != nil {
			// The photo stays; the author can still see it under their photos.
			middleware.Logger.ErrorContext(ctx, "feed fan-out failed after upload",
				slog.Uint64("photo_id", uint64(photo.ID)), slog.String("error", err.Error()))
		}
	}
	return photo, nil
}

// List returns userID's photos, newest first.
func (s *PhotoService) List(ctx context.Context, userID uint) ([]models.Photo, error) {
	return s.photoRepo.ListByUser(ctx, userID)
}

func (s *PhotoService) Get(ctx context.Context, id uint) (*models.Photo, error) {
	return s.photoRepo.GetByID(ctx, id)
}

// Delete removes a photo owned by userID with its interactions, feed rows
// and blobs. Someone else's photo reads as NOT_FOUND.
func (s *PhotoService) Delete(ctx context.Context, id, userID uint) error {
	photo, err := s.photoRepo.DeleteOwned(ctx, id, userID)
	if err != nil {
		return err
	}
	cache.InvalidatePhotoInteractions(ctx, id)
	s.removeBlobs(ctx, photo.Filename)
	return nil
}

func (s *PhotoService) removeBlobs(ctx context.Context, key string) {
	for _, k := range []string{key, storage.VariantKey(key, "thumb", ".jpg"), storage.VariantKey(key, "preview", ".webp")} {
		if err := s.store.Delete(ctx, k); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to delete blob", slog.String("key", k), slog.String("error", err.Error()))
		}
	}
}

// ExtractHashtags returns the distinct lowercase tags of text in order of appearance.
func ExtractHashtags(text string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(text, -1)
	tags := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if utf8.RuneCountInString(tag) > maxHashtagLength {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		if len(tags) == maxHashtagsPerPhoto {
			break
		}
	}
	return tags
}

func encodeThumbnail(img image.Image) ([]byte, error) {
	thumb := imaging.Fit(img, ThumbnailSize, ThumbnailSize, imaging.Lanczos)
	buf := bytes.NewBuffer(nil)
	if err := imaging.Encode(buf, thumb, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedPhotoMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/png":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

// photoExtension keeps the client's extension when it matches the content.
func photoExtension(filename, detected string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch detected {
	case "image/png":
		return ".png"
	default:
		if ext == ".jpeg" || ext == ".jpg" {
			return ext
		}
		return ".jpg"
	}
}
