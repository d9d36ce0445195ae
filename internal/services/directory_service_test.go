package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasktrack/tasktracker/internal/models"
	"github.com/tasktrack/tasktracker/internal/repository"
)

func newFileDirectory(t *testing.T) (*DirectoryService, repository.Set) {
	t.Helper()
	store, err := repository.NewFileStore(t.TempDir())
	require.NoError(t, err)
	repos := store.Set()
	return NewDirectoryService(repos.Users, repos.Projects), repos
}

func TestDirectoryService_SeedDemo(t *testing.T) {
	dir, repos := newFileDirectory(t)

	result, err := dir.Seed(DemoDirectory())
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Users: 6, Projects: 2}, result)

	// Seeding twice updates users in place and skips known projects.
	result, err = dir.Seed(DemoDirectory())
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Users: 6, Projects: 0}, result)

	users, err := dir.ListUsers()
	require.NoError(t, err)
	assert.Len(t, users, 6)

	reports, err := repos.Users.ListBySupervisor("u-mgr")
	require.NoError(t, err)
	assert.Len(t, reports, 5)

	auth := NewAuthService(repos.Users)
	user, err := auth.Login(LoginInput{UserID: "u-stf-1", Password: DemoPassword})
	require.NoError(t, err)
	assert.Equal(t, "Sam Staff", user.Name)

	_, err = auth.Login(LoginInput{UserID: "u-stf-1", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDirectoryService_AccessibleUsers(t *testing.T) {
	dir, repos := newFileDirectory(t)
	_, err := dir.Seed(DemoDirectory())
	require.NoError(t, err)

	mgr, err := repos.Users.FindByID("u-mgr")
	require.NoError(t, err)
	users, err := dir.AccessibleUsers(NewViewer(*mgr, NewAccessResolver(repos.Users)))
	require.NoError(t, err)
	assert.Len(t, users, 6)

	staff, err := repos.Users.FindByID("u-stf-3")
	require.NoError(t, err)
	users, err = dir.AccessibleUsers(NewViewer(*staff, NewAccessResolver(repos.Users)))
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Alex Staff", users[0].Name)
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
users:
  - id: lead
    name: Lee Lead
    role: "2"
    password: correct-horse
  - id: dev
    name: Dana Dev
    role: staff
    managerId: lead
projects:
  - Apollo
`), 0o644))

	seed, err := LoadSeedFile(path)
	require.NoError(t, err)
	require.Len(t, seed.Users, 2)
	assert.Equal(t, "lead", seed.Users[1].ManagerID)
	assert.Equal(t, []string{"Apollo"}, seed.Projects)

	dir, repos := newFileDirectory(t)
	_, err = dir.Seed(seed)
	require.NoError(t, err)

	lead, err := repos.Users.FindByID("lead")
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, lead.Role)
	assert.NotEmpty(t, lead.PasswordHash)

	dev, err := repos.Users.FindByID("dev")
	require.NoError(t, err)
	assert.Empty(t, dev.PasswordHash)
}

func TestDirectoryService_SeedRejectsBadRole(t *testing.T) {
	dir, _ := newFileDirectory(t)

	_, err := dir.Seed(SeedFile{Users: []SeedUser{{ID: "x", Name: "X", Role: "admin"}}})

	assert.ErrorIs(t, err, ErrInvalidSeed)
}
