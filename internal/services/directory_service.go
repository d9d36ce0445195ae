package services

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tasktrack/tasktracker/internal/models"
	"github.com/tasktrack/tasktracker/internal/repository"
	"gopkg.in/yaml.v3"
)

// DemoPassword is the password given to the demo directory users.
const DemoPassword = "password123"

var ErrInvalidSeed = errors.New("invalid seed file")

// DirectoryService provides read access to users and projects and loads
// directory seed data.
type DirectoryService struct {
	userRepo    repository.UserRepository
	projectRepo repository.ProjectRepository
}

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(userRepo repository.UserRepository, projectRepo repository.ProjectRepository) *DirectoryService {
	return &DirectoryService{
		userRepo:    userRepo,
		projectRepo: projectRepo,
	}
}

// ListUsers returns the whole directory ordered by name.
func (s *DirectoryService) ListUsers() ([]models.User, error) {
	users, err := s.userRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// AccessibleUsers returns the users whose tasks the viewer may see.
func (s *DirectoryService) AccessibleUsers(viewer Viewer) ([]models.User, error) {
	users, err := s.userRepo.FindByIDs(viewer.AccessibleUserIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list accessible users: %w", err)
	}
	return users, nil
}

// ListProjects returns every project ordered by name.
func (s *DirectoryService) ListProjects() ([]models.Project, error) {
	projects, err := s.projectRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// SeedUser is one directory entry in a seed file.
type SeedUser struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Role       string `yaml:"role"`
	Department string `yaml:"department"`
	ManagerID  string `yaml:"managerId"`
	Password   string `yaml:"password"`
}

// SeedFile is the YAML document accepted by Seed.
type SeedFile struct {
	Users    []SeedUser `yaml:"users"`
	Projects []string   `yaml:"projects"`
}

// LoadSeedFile reads a YAML seed file.
func LoadSeedFile(path string) (SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SeedFile{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return SeedFile{}, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	return seed, nil
}

// DemoDirectory is a manager with five direct reports.
func DemoDirectory() SeedFile {
	staff := []struct{ id, name, dept string }{
		{"u-stf-1", "Sam Staff", "Ops"},
		{"u-stf-2", "Casey Staff", "Finance"},
		{"u-stf-3", "Alex Staff", "Design"},
		{"u-stf-4", "Pat Staff", "Ops"},
		{"u-stf-5", "Jamie Staff", "Ops"},
	}

	seed := SeedFile{
		Users: []SeedUser{{
			ID:         "u-mgr",
			Name:       "Morgan Manager",
			Role:       string(models.RoleManager),
			Department: "Ops",
			Password:   DemoPassword,
		}},
		Projects: []string{"Website Refresh", "Quarter Close"},
	}
	for _, s := range staff {
		seed.Users = append(seed.Users, SeedUser{
			ID:         s.id,
			Name:       s.name,
			Role:       string(models.RoleStaff),
			Department: s.dept,
			ManagerID:  "u-mgr",
			Password:   DemoPassword,
		})
	}
	return seed
}

// SeedResult reports what Seed wrote.
type SeedResult struct {
	Users    int
	Projects int
}

// Seed upserts the users of seed and creates its projects when missing.
// Plain passwords are stored as bcrypt hashes.
func (s *DirectoryService) Seed(seed SeedFile) (SeedResult, error) {
	var result SeedResult

	for i, su := range seed.Users {
		id := strings.TrimSpace(su.ID)
		name := strings.TrimSpace(su.Name)
		if id == "" || name == "" {
			return result, fmt.Errorf("%w: user %d needs an id and a name", ErrInvalidSeed, i+1)
		}
		role := models.ParseRole(su.Role)
		if role == "" {
			return result, fmt.Errorf("%w: user %s has unknown role %q", ErrInvalidSeed, id, su.Role)
		}

		user := &models.User{
			ID:         id,
			Name:       name,
			Role:       role,
			Department: strings.TrimSpace(su.Department),
		}
		if m := strings.TrimSpace(su.ManagerID); m != "" {
			user.ManagerID = &m
		}
		if su.Password != "" {
			hash, err := HashPassword(su.Password)
			if err != nil {
				return result, fmt.Errorf("user %s: %w", id, err)
			}
			user.PasswordHash = hash
		}

		if err := s.userRepo.Save(user); err != nil {
			return result, fmt.Errorf("failed to save user %s: %w", id, err)
		}
		result.Users++
	}

	existing, err := s.projectRepo.List()
	if err != nil {
		return result, fmt.Errorf("failed to list projects: %w", err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		known[p.Name] = struct{}{}
	}
	for _, name := range seed.Projects {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := known[name]; ok {
			continue
		}
		if err := s.projectRepo.Create(&models.Project{Name: name}); err != nil {
			return result, fmt.Errorf("failed to create project %s: %w", name, err)
		}
		known[name] = struct{}{}
		result.Projects++
	}

	return result, nil
}
