package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/babbageLabs/insta-lite/internal/cache"
	"github.com/babbageLabs/insta-lite/internal/models"

	"gopkg.in/yaml.v3"
)

// Scenario is a hand-written dataset: named users and the follow edges
// between them. Usernames are the keys everything else refers to.
//
//	users:
//	  - username: alice
//	    photos: 2
//	  - username: bob
//	follows:
//	  - {from: bob, to: alice}
type Scenario struct {
	Password string         `yaml:"password"`
	Users    []ScenarioUser `yaml:"users"`
	Follows  []ScenarioEdge `yaml:"follows"`
}

type ScenarioUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	FullName string `yaml:"full_name"`
	Bio      string `yaml:"bio"`
	Location string `yaml:"location"`
	// Photos is how many generated photos the user uploads after all
	// follow edges exist.
	Photos int `yaml:"photos"`
}

type ScenarioEdge struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// LoadScenario reads and validates a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(raw)
}

// ParseScenario decodes and validates a YAML scenario. Unknown keys are
// rejected.
func ParseScenario(raw []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks that usernames are unique and that every edge joins two
// distinct declared users.
func (sc *Scenario) Validate() error {
	if len(sc.Users) == 0 {
		return errors.New("scenario: no users")
	}
	known := make(map[string]bool, len(sc.Users))
	for i, u := range sc.Users {
		name := strings.TrimSpace(u.Username)
		if name == "" {
			return fmt.Errorf("scenario: user %d has no username", i)
		}
		if known[name] {
			return fmt.Errorf("scenario: duplicate username %q", name)
		}
		if u.Photos < 0 {
			return fmt.Errorf("scenario: user %q has negative photos", name)
		}
		known[name] = true
	}
	for _, e := range sc.Follows {
		if !known[e.From] || !known[e.To] {
			return fmt.Errorf("scenario: follow %s -> %s references an unknown user", e.From, e.To)
		}
		if e.From == e.To {
			return fmt.Errorf("scenario: %s cannot follow themselves", e.From)
		}
	}
	return nil
}

// ApplyScenario creates the scenario's users, edges and photos. Users that
// already exist are reused, so applying a scenario twice is harmless apart
// from extra photos. It returns the user id of every username.
func (s *Seeder) ApplyScenario(ctx context.Context, sc *Scenario) (map[string]uint, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	hash := s.factory.PasswordHash()
	if sc.Password != "" {
		f, err := NewFactory(Options{Password: sc.Password, SkipBcrypt: s.opts.SkipBcrypt, RandSeed: s.opts.RandSeed})
		if err != nil {
			return nil, err
		}
		hash = f.PasswordHash()
	}

	ids := make(map[string]uint, len(sc.Users))
	for i, u := range sc.Users {
		user, profile := s.factory.BuildUser(i, func(user *models.User, p *models.Profile) {
			user.Password = hash
			p.Username = u.Username
			user.Email = u.Username + "@example.com"
			if u.Email != "" {
				user.Email = u.Email
			}
			if u.FullName != "" {
				p.FullName = u.FullName
			}
			if u.Bio != "" {
				p.Bio = u.Bio
			}
			if u.Location != "" {
				p.Location = u.Location
			}
		})
		err := s.repos.Users.CreateWithProfile(ctx, user, profile)
		switch {
		case err == nil:
			ids[u.Username] = user.ID
		case models.HasCode(err, models.CodeConflict):
			existing, lookupErr := s.lookupUser(ctx, u.Username)
			if lookupErr != nil {
				return nil, fmt.Errorf("user %q: %w", u.Username, err)
			}
			ids[u.Username] = existing
		default:
			return nil, fmt.Errorf("user %q: %w", u.Username, err)
		}
	}

	for _, e := range sc.Follows {
		if _, err := s.repos.Follows.Create(ctx, ids[e.From], ids[e.To]); err != nil {
			return nil, fmt.Errorf("follow %s -> %s: %w", e.From, e.To, err)
		}
		cache.InvalidateProfiles(ctx, ids[e.From], ids[e.To])
	}

	for _, u := range sc.Users {
		if u.Photos == 0 {
			continue
		}
		if _, _, err := s.SeedPhotos(ctx, []uint{ids[u.Username]}, u.Photos); err != nil {
			return nil, fmt.Errorf("photos for %q: %w", u.Username, err)
		}
	}

	s.logger.Info("scenario applied",
		slog.Int("users", len(sc.Users)),
		slog.Int("follows", len(sc.Follows)))
	return ids, nil
}
