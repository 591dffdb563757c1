package service

import (
	"context"
	"strings"

	"github.com/babbageLabs/insta-lite/internal/cache"
	"github.com/babbageLabs/insta-lite/internal/models"
	"github.com/babbageLabs/insta-lite/internal/repository"
	"github.com/babbageLabs/insta-lite/internal/validation"
)

// CreateProfileInput is the body of POST /api/profile.
type CreateProfileInput struct {
	Username  string `json:"username" validate:"required,username"`
	FullName  string `json:"full_name" validate:"max=100"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url,max=2048"`
	Bio       string `json:"bio" validate:"max=500"`
	Location  string `json:"location" validate:"max=100"`
}

// UpdateProfileInput is a partial profile patch. Nil fields are left alone.
type UpdateProfileInput struct {
	Username  *string `json:"username" validate:"omitempty,username"`
	FullName  *string `json:"full_name" validate:"omitempty,max=100"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,max=2048"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
	Location  *string `json:"location" validate:"omitempty,max=100"`
}

type ProfileService struct {
	profileRepo repository.ProfileRepository
}

func NewProfileService(profileRepo repository.ProfileRepository) *ProfileService {
	return &ProfileService{profileRepo: profileRepo}
}

// Create adds a profile for a user that does not have one yet.
func (s *ProfileService) Create(ctx context.Context, userID uint, in CreateProfileInput) (*models.Profile, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if _, err := s.profileRepo.GetByUserID(ctx, userID); err == nil {
		return nil, models.NewConflictError("Profile already exists")
	} else if !models.HasCode(err, models.CodeNotFound) {
		return nil, err
	}

	profile := &models.Profile{
		UserID:    userID,
		Username:  in.Username,
		FullName:  in.FullName,
		AvatarURL: in.AvatarURL,
		Bio:       in.Bio,
		Location:  in.Location,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, err
	}
	cache.InvalidateProfiles(ctx, userID)
	return profile, nil
}

// Get reads through the profile cache.
func (s *ProfileService) Get(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := cache.Aside(ctx, cache.ProfileKey(userID), &profile, cache.ProfileTTL, func() error {
		p, err := s.profileRepo.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		profile = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetMe returns the caller's own profile.
func (s *ProfileService) GetMe(ctx context.Context, userID uint) (*models.Profile, error) {
	return s.Get(ctx, userID)
}

// Update applies a partial patch to the caller's profile.
func (s *ProfileService) Update(ctx context.Context, userID uint, in UpdateProfileInput) (*models.Profile, error) {
	if in.Username != nil {
		trimmed := strings.TrimSpace(*in.Username)
		in.Username = &trimmed
	}
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		profile.Username = *in.Username
	}
	if in.FullName != nil {
		profile.FullName = *in.FullName
	}
	if in.AvatarURL != nil {
		profile.AvatarURL = *in.AvatarURL
	}
	if in.Bio != nil {
		profile.Bio = *in.Bio
	}
	if in.Location != nil {
		profile.Location = *in.Location
	}

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	cache.InvalidateProfiles(ctx, userID)
	return profile, nil
}
