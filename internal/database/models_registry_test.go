package database

import (
	"testing"

	modelspkg "github.com/babbageLabs/insta-lite/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesFeedOutbox(t *testing.T) {
	found := false
	for _, model := range PersistentModels() {
		if _, ok := model.(*modelspkg.FeedOutbox); ok {
			found = true
			break
		}
	}
	require.True(t, found, "PersistentModels should include FeedOutbox")
}
