package service

import (
	"context"
	"strings"

	"github.com/babbageLabs/insta-lite/internal/models"
	"github.com/babbageLabs/insta-lite/internal/repository"
)

const DefaultPopularHashtags = 10

// SearchPhotosInput filters photos by text and required hashtags.
type SearchPhotosInput struct {
	Query    string
	Hashtags []string
	Page     int
	Limit    int
}

type SearchService struct {
	photoRepo repository.PhotoRepository
}

func NewSearchService(photoRepo repository.PhotoRepository) *SearchService {
	return &SearchService{photoRepo: photoRepo}
}

// SearchPhotos matches the query case-insensitively against description and
// original name. Every listed hashtag must be present.
func (s *SearchService) SearchPhotos(ctx context.Context, in SearchPhotosInput) (*models.PhotoSearchPage, error) {
	page, limit := normalizePage(in.Page, in.Limit)

	items, total, err := s.photoRepo.Search(ctx, repository.PhotoSearchQuery{
		Text:     strings.TrimSpace(in.Query),
		Hashtags: NormalizeHashtags(in.Hashtags),
		Offset:   pageOffset(page, limit),
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.PhotoSearchItem{}
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &models.PhotoSearchPage{Items: items, Total: total, Page: page, TotalPages: totalPages}, nil
}

// PopularHashtags returns the most used tags, most used first.
func (s *SearchService) PopularHashtags(ctx context.Context, limit int) ([]models.HashtagCount, error) {
	if limit <= 0 {
		limit = DefaultPopularHashtags
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return s.photoRepo.PopularHashtags(ctx, limit)
}

// ParseHashtags splits a query parameter like "#sunset, beach travel".
func ParseHashtags(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	return NormalizeHashtags(fields)
}

// NormalizeHashtags lowercases, strips '#', drops empties and duplicates.
func NormalizeHashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimLeft(strings.TrimSpace(t), "#"))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
