package service

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/babbageLabs/insta-lite/internal/models"
	"github.com/babbageLabs/insta-lite/internal/repository"
)

// EncodeFeedCursor renders the position after item as an opaque token.
func EncodeFeedCursor(createdAt time.Time, id uint) string {
	raw := createdAt.UTC().Format(time.RFC3339Nano) + "|" + strconv.FormatUint(uint64(id), 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeFeedCursor accepts an encoded cursor, its plain "timestamp|id" form,
// or a bare ISO-8601 timestamp. An empty string means no cursor.
func DecodeFeedCursor(s string) (*repository.FeedCursor, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	if decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "=")); err == nil {
		if c, ok := parseCompositeCursor(string(decoded)); ok {
			return c, nil
		}
	}
	if c, ok := parseCompositeCursor(s); ok {
		return c, nil
	}
	if createdAt, err := parseCursorTime(s); err == nil {
		return &repository.FeedCursor{CreatedAt: createdAt}, nil
	}
	return nil, models.NewValidationError("Invalid cursor")
}

func parseCompositeCursor(raw string) (*repository.FeedCursor, bool) {
	ts, idPart, ok := strings.Cut(raw, "|")
	if !ok {
		return nil, false
	}
	createdAt, err := parseCursorTime(ts)
	if err != nil {
		return nil, false
	}
	id, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil || id == 0 {
		return nil, false
	}
	return &repository.FeedCursor{CreatedAt: createdAt, ID: uint(id), HasID: true}, true
}

func parseCursorTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
