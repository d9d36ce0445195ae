package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasktrack/tasktracker/internal/database"
	"github.com/tasktrack/tasktracker/internal/logging"
	"github.com/tasktrack/tasktracker/internal/models"
	"github.com/tasktrack/tasktracker/internal/repository"
)

// failingDirectory is a UserRepository whose subordinate lookup always fails.
type failingDirectory struct {
	repository.UserRepository
	calls int
}

func (f *failingDirectory) ListBySupervisor(string) ([]models.User, error) {
	f.calls++
	return nil, errors.New("directory unreachable")
}

// duplicatingDirectory returns the same report twice and the manager itself.
type duplicatingDirectory struct {
	repository.UserRepository
}

func (duplicatingDirectory) ListBySupervisor(managerID string) ([]models.User, error) {
	return []models.User{{ID: "s1"}, {ID: "s1"}, {ID: managerID}}, nil
}

func TestAccessResolver_DirectReportsOnly(t *testing.T) {
	logging.Discard()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	users := repository.NewUserRepository(db)

	boss, mid := "boss", "mid"
	for _, u := range []models.User{
		{ID: "boss", Name: "Boss", Role: models.RoleManager},
		{ID: "mid", Name: "Mid", Role: models.RoleManager, ManagerID: &boss},
		{ID: "s1", Name: "S1", Role: models.RoleStaff, ManagerID: &boss},
		{ID: "grand", Name: "Grand", Role: models.RoleStaff, ManagerID: &mid},
	} {
		user := u
		require.NoError(t, users.Save(&user))
	}

	resolver := NewAccessResolver(users)

	assert.ElementsMatch(t, []string{"boss", "mid", "s1"}, resolver.Resolve("boss", models.RoleManager))
	assert.ElementsMatch(t, []string{"mid", "grand"}, resolver.Resolve("mid", models.RoleManager))
	assert.Equal(t, []string{"s1"}, resolver.Resolve("s1", models.RoleStaff))
	assert.Equal(t, []string{"grand"}, resolver.Resolve("grand", models.ParseRole("9")))
	assert.Equal(t, []string{"lonely"}, resolver.Resolve("lonely", models.RoleManager))
	assert.Empty(t, resolver.Resolve("", models.RoleManager))
}

func TestAccessResolver_FallsBackToSelfOnFailure(t *testing.T) {
	logging.Discard()
	dir := &failingDirectory{}
	resolver := NewAccessResolver(dir)

	// Enough failures to trip the breaker; every call still yields the viewer.
	for i := 0; i < 10; i++ {
		assert.Equal(t, []string{"boss"}, resolver.Resolve("boss", models.RoleManager))
	}
	assert.Less(t, dir.calls, 10, "open breaker should short-circuit lookups")
}

func TestAccessResolver_Deduplicates(t *testing.T) {
	resolver := NewAccessResolver(duplicatingDirectory{})

	assert.Equal(t, []string{"boss", "s1"}, resolver.Resolve("boss", models.RoleManager))
}

func TestViewer_CanSee(t *testing.T) {
	v := Viewer{User: models.User{ID: "m", Role: models.RoleManager}, AccessibleUserIDs: []string{"m", "s"}}

	assert.True(t, v.IsManager())
	assert.True(t, v.CanSee("s"))
	assert.False(t, v.CanSee("x"))
}
