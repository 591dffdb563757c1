// Package featureflags evaluates runtime toggles from FEATURE_FLAGS.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

const (
	// FlagInlineFanoutRelay runs the outbox relay inside the API process.
	FlagInlineFanoutRelay = "inline_fanout_relay"
	// FlagFollowNotifications creates a notification for the followed user.
	FlagFollowNotifications = "follow_notifications"
)

// Definition describes a flag the application reads.
type Definition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Default     string `json:"default"`
}

// Known lists every flag the application reads, with the value used when
// FEATURE_FLAGS does not mention it.
var Known = []Definition{
	{Name: FlagInlineFanoutRelay, Description: "Drain the fan-out outbox from the API process", Default: "off"},
	{Name: FlagFollowNotifications, Description: "Notify users when someone follows them", Default: "on"},
}

// rule is a parsed flag value: a percentage of users from 0 to 100.
// "on" is 100 and "off" is 0.
type rule struct {
	raw string
	pct int
}

// Manager evaluates flags from a key=value list such as
// "follow_notifications=on,inline_fanout_relay=25%".
type Manager struct {
	rules map[string]rule
	// invalid holds entries that could not be parsed, for startup logging.
	invalid []string
}

// NewManager parses raw over the Known defaults. Malformed entries are
// skipped and reported by Invalid.
func NewManager(raw string) *Manager {
	m := &Manager{rules: make(map[string]rule, len(Known))}
	for _, def := range Known {
		if r, err := parseRule(def.Default); err == nil {
			m.rules[def.Name] = r
		}
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		key = normalize(key)
		if !ok || key == "" {
			m.invalid = append(m.invalid, pair)
			continue
		}
		r, err := parseRule(value)
		if err != nil {
			m.invalid = append(m.invalid, pair)
			continue
		}
		m.rules[key] = r
	}
	return m
}

func parseRule(value string) (rule, error) {
	value = normalize(value)
	switch value {
	case "on", "true", "1":
		return rule{raw: value, pct: 100}, nil
	case "off", "false", "0":
		return rule{raw: value, pct: 0}, nil
	}
	pctRaw, ok := strings.CutSuffix(value, "%")
	if !ok {
		return rule{}, fmt.Errorf("unrecognized flag value %q", value)
	}
	pct, err := strconv.Atoi(pctRaw)
	if err != nil {
		return rule{}, fmt.Errorf("bad rollout percentage %q", value)
	}
	return rule{raw: value, pct: min(max(pct, 0), 100)}, nil
}

// Enabled reports whether name is on for userID. Partial rollouts bucket
// users deterministically and are never on for userID 0.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	r, ok := m.rules[normalize(name)]
	switch {
	case !ok || r.pct <= 0:
		return false
	case r.pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < r.pct
}

// Raw returns the configured value of every flag, defaults included.
func (m *Manager) Raw() map[string]string {
	if m == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(m.rules))
	for k, r := range m.rules {
		out[k] = r.raw
	}
	return out
}

// Snapshot evaluates every flag for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	if m == nil {
		return map[string]bool{}
	}
	out := make(map[string]bool, len(m.rules))
	for name := range m.rules {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

// Invalid returns the FEATURE_FLAGS entries that were ignored, sorted.
func (m *Manager) Invalid() []string {
	if m == nil {
		return nil
	}
	out := append([]string(nil), m.invalid...)
	sort.Strings(out)
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
