package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/babbageLabs/insta-lite/internal/cache"
	"github.com/babbageLabs/insta-lite/internal/models"
	"github.com/babbageLabs/insta-lite/internal/repository"
)

const (
	MaxCommentLength       = 1000
	MaxInteractionBatchIDs = 100
)

// InteractionService tracks likes and comments on photos.
type InteractionService struct {
	interactionRepo repository.InteractionRepository
	photoRepo       repository.PhotoRepository
}

func NewInteractionService(interactionRepo repository.InteractionRepository, photoRepo repository.PhotoRepository) *InteractionService {
	return &InteractionService{interactionRepo: interactionRepo, photoRepo: photoRepo}
}

// LikePhoto is idempotent: liking twice leaves one like.
func (s *InteractionService) LikePhoto(ctx context.Context, photoID, userID uint) error {
	if err := s.requirePhoto(ctx, photoID); err != nil {
		return err
	}
	created, err := s.interactionRepo.Like(ctx, photoID, userID)
	if err != nil {
		return err
	}
	if created {
		cache.InvalidatePhotoInteractions(ctx, photoID)
	}
	return nil
}

// UnlikePhoto is a no-op when the like does not exist.
func (s *InteractionService) UnlikePhoto(ctx context.Context, photoID, userID uint) error {
	if err := s.interactionRepo.Unlike(ctx, photoID, userID); err != nil {
		return err
	}
	cache.InvalidatePhotoInteractions(ctx, photoID)
	return nil
}

func (s *InteractionService) AddComment(ctx context.Context, photoID, userID uint, content string) (*models.PhotoComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Comment cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return nil, models.NewValidationError(fmt.Sprintf("Comment too long (max %d characters)", MaxCommentLength))
	}
	if err := s.requirePhoto(ctx, photoID); err != nil {
		return nil, err
	}

	comment := &models.PhotoComment{PhotoID: photoID, UserID: userID, Content: content}
	if err := s.interactionRepo.AddComment(ctx, comment); err != nil {
		return nil, err
	}
	cache.InvalidatePhotoInteractions(ctx, photoID)
	return comment, nil
}

// GetPhotoInteractions returns counts, the caller's like state and comments oldest first.
func (s *InteractionService) GetPhotoInteractions(ctx context.Context, photoID uint, userID *uint) (*models.PhotoInteractions, error) {
	if err := s.requirePhoto(ctx, photoID); err != nil {
		return nil, err
	}

	summaries, err := s.summaries(ctx, []uint{photoID}, userID)
	if err != nil {
		return nil, err
	}
	comments, err := s.interactionRepo.ListComments(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.PhotoComment{}
	}

	return &models.PhotoInteractions{
		InteractionSummary: summaries[photoID],
		Comments:           comments,
	}, nil
}

// GetInteractionsForPhotos batches counts for up to MaxInteractionBatchIDs
// photos. Unknown ids map to zero values.
func (s *InteractionService) GetInteractionsForPhotos(ctx context.Context, photoIDs []uint, userID *uint) (map[uint]models.InteractionSummary, error) {
	if len(photoIDs) > MaxInteractionBatchIDs {
		return nil, models.NewValidationError(fmt.Sprintf("At most %d photo ids per request", MaxInteractionBatchIDs))
	}
	if len(photoIDs) == 0 {
		return map[uint]models.InteractionSummary{}, nil
	}
	return s.summaries(ctx, photoIDs, userID)
}

func (s *InteractionService) summaries(ctx context.Context, photoIDs []uint, userID *uint) (map[uint]models.InteractionSummary, error) {
	counts, err := s.counts(ctx, photoIDs)
	if err != nil {
		return nil, err
	}
	var liked map[uint]bool
	if userID != nil {
		liked, err = s.interactionRepo.LikedBy(ctx, photoIDs, *userID)
		if err != nil {
			return nil, err
		}
	}

	out := make(map[uint]models.InteractionSummary, len(photoIDs))
	for _, id := range photoIDs {
		summary := counts[id]
		summary.IsLikedByUser = liked[id]
		out[id] = summary
	}
	return out, nil
}

func (s *InteractionService) requirePhoto(ctx context.Context, photoID uint) error {
	ok, err := s.photoRepo.Exists(ctx, photoID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("Photo", photoID)
	}
	return nil
}

// counts reads per-photo counts through the cache and loads the misses in
// one grouped query. The caller's like state is never cached.
func (s *InteractionService) counts(ctx context.Context, photoIDs []uint) (map[uint]models.InteractionSummary, error) {
	out := make(map[uint]models.InteractionSummary, len(photoIDs))
	missing := make([]uint, 0, len(photoIDs))
	for _, id := range photoIDs {
		var cached models.InteractionSummary
		if found, err := cache.GetJSON(ctx, cache.PhotoInteractionsKey(id), &cached); err == nil && found {
			out[id] = cached
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := s.interactionRepo.Counts(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, id := range missing {
		summary := fetched[id]
		summary.IsLikedByUser = false
		out[id] = summary
		_ = cache.SetJSON(ctx, cache.PhotoInteractionsKey(id), summary, cache.PhotoInteractionsTTL)
	}
	return out, nil
}
