// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/babbageLabs/insta-lite/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the password of every generated account.
const DefaultPassword = "password123"

var photoTopics = []string{
	"travel", "food", "sunset", "coffee", "city", "nature", "beach", "mountains",
	"pets", "art", "street", "architecture", "fitness", "music", "books", "friends",
}

// Factory builds domain entities with plausible fake content. It does not
// persist anything; the Seeder does.
type Factory struct {
	opts Options
	rng  *rand.Rand
	// password hash shared by all generated users
	hash string
}

// NewFactory creates a Factory. A zero opts.RandSeed seeds from the clock.
func NewFactory(opts Options) (*Factory, error) {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)

	password := opts.Password
	if password == "" {
		password = DefaultPassword
	}
	hash := password
	if !opts.SkipBcrypt {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash seed password: %w", err)
		}
		hash = string(hashed)
	}

	//nolint:gosec // weak random is fine for seeding
	return &Factory{opts: opts, rng: rand.New(rand.NewSource(seed)), hash: hash}, nil
}

// PasswordHash is the stored password value for generated users.
func (f *Factory) PasswordHash() string {
	return f.hash
}

// BuildUser returns an unsaved user and its profile. n keeps usernames unique
// within one run.
func (f *Factory) BuildUser(n int, overrides ...func(*models.User, *models.Profile)) (*models.User, *models.Profile) {
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	username := generateUsername(f.rng, first, last, n)

	user := &models.User{
		Email:    username + "@example.com",
		Password: f.hash,
	}
	profile := &models.Profile{
		Username:  username,
		FullName:  first + " " + last,
		AvatarURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
		Bio:       truncate(gofakeit.Sentence(10), 500),
		Location:  gofakeit.City(),
	}
	for _, override := range overrides {
		override(user, profile)
	}
	return user, profile
}

// BuildPhoto returns an unsaved photo owned by userID. The description carries
// one to three hashtags, mirrored in Hashtags.
func (f *Factory) BuildPhoto(userID uint, overrides ...func(*models.Photo)) *models.Photo {
	key := gofakeit.UUID()
	tags := f.pickTopics(1 + f.rng.Intn(3))
	var desc strings.Builder
	desc.WriteString(gofakeit.Sentence(6))
	for _, tag := range tags {
		desc.WriteString(" #")
		desc.WriteString(tag)
	}

	photo := &models.Photo{
		UserID:       userID,
		Filename:     "photos/" + key + ".jpg",
		OriginalName: gofakeit.Word() + ".jpg",
		MimeType:     "image/jpeg",
		Size:         int64(50_000 + f.rng.Intn(2_000_000)),
		URL:          fmt.Sprintf("https://picsum.photos/seed/%s/1080/1080", key),
		ThumbnailURL: fmt.Sprintf("https://picsum.photos/seed/%s/150/150", key),
		PreviewURL:   fmt.Sprintf("https://picsum.photos/seed/%s/600/600", key),
		Description:  desc.String(),
		UploadedAt:   f.pastTime(),
		Hashtags:     tags,
	}
	for _, override := range overrides {
		override(photo)
	}
	return photo
}

// BuildComment returns an unsaved comment.
func (f *Factory) BuildComment(photoID, userID uint) *models.PhotoComment {
	return &models.PhotoComment{
		PhotoID: photoID,
		UserID:  userID,
		Content: gofakeit.Sentence(8),
	}
}

// BuildNotification returns an unsaved notification for userID.
func (f *Factory) BuildNotification(userID uint) *models.Notification {
	types := []models.NotificationType{
		models.NotificationInfo, models.NotificationSuccess,
		models.NotificationWarning, models.NotificationError,
	}
	uid := userID
	return &models.Notification{
		Title:   gofakeit.HipsterSentence(3),
		Message: gofakeit.Sentence(12),
		Type:    types[f.rng.Intn(len(types))],
		UserID:  &uid,
		Read:    f.rng.Float32() < 0.3,
	}
}

// pastTime spreads timestamps over the last MaxDays days.
func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().UTC().Add(-back)
}

func (f *Factory) pickTopics(n int) []string {
	perm := f.rng.Perm(len(photoTopics))
	tags := make([]string, 0, n)
	for _, i := range perm[:n] {
		tags = append(tags, photoTopics[i])
	}
	return tags
}

func generateUsername(r *rand.Rand, first, last string, n int) string {
	formats := []string{"%s%s", "%s.%s", "%s_%s"}
	base := fmt.Sprintf(formats[r.Intn(len(formats))], first, last)
	base = strings.ToLower(strings.ReplaceAll(base, " ", ""))
	suffix := fmt.Sprintf("%d", n)
	if limit := 50 - len(suffix); len(base) > limit {
		base = base[:limit]
	}
	return base + suffix
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
