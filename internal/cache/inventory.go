package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	ProfileKeyPrefix           = "profile:%d"
	PhotoInteractionsKeyPrefix = "photo:%d:interactions"
	BlacklistKeyPrefix         = "blacklist:%s"
)

const (
	ProfileTTL           = 5 * time.Minute
	PhotoInteractionsTTL = 30 * time.Second
)

func ProfileKey(userID uint) string {
	return fmt.Sprintf(ProfileKeyPrefix, userID)
}

// PhotoInteractionsKey caches like/comment counts only; per-user state is never cached.
func PhotoInteractionsKey(photoID uint) string {
	return fmt.Sprintf(PhotoInteractionsKeyPrefix, photoID)
}

func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistKeyPrefix, jti)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateProfiles(ctx context.Context, userIDs ...uint) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, ProfileKey(id))
	}
	Invalidate(ctx, keys...)
}

func InvalidatePhotoInteractions(ctx context.Context, photoID uint) {
	Invalidate(ctx, PhotoInteractionsKey(photoID))
}
