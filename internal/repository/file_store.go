package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/tasktrack/tasktracker/internal/models"
)

const (
	tasksFile    = "tasks.json"
	usersFile    = "users.json"
	projectsFile = "projects.json"
)

// FileStore keeps tasks, users and projects as JSON documents in a directory.
// Every write rewrites the affected document through a temp file and rename;
// the mutex serializes read-modify-write cycles inside one process.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// storedTask is the persisted shape of a task: scalar columns plus the ids of
// its collaborators and its comments. Users and projects are joined on read.
type storedTask struct {
	models.Task
	CollaboratorIDs []string         `json:"collaborator_ids"`
	Comments        []models.Comment `json:"comments"`
}

// NewFileStore creates the data directory and empty documents when missing.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &FileStore{dir: dir}
	for _, name := range []string{tasksFile, usersFile, projectsFile} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
				return nil, fmt.Errorf("failed to initialize %s: %w", name, err)
			}
		}
	}
	return s, nil
}

// Set returns the repositories backed by this store.
func (s *FileStore) Set() Set {
	return Set{
		Tasks:    &fileTaskRepository{store: s},
		Users:    &fileUserRepository{store: s},
		Projects: &fileProjectRepository{store: s},
	}
}

func (s *FileStore) read(name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) write(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) readTasks() ([]storedTask, error) {
	var tasks []storedTask
	if err := s.read(tasksFile, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *FileStore) readUsers() ([]models.User, error) {
	var users []models.User
	if err := s.read(usersFile, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *FileStore) readProjects() ([]models.Project, error) {
	var projects []models.Project
	if err := s.read(projectsFile, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// hydrate joins users and projects onto stored tasks.
func (s *FileStore) hydrate(stored []storedTask) ([]models.Task, error) {
	users, err := s.readUsers()
	if err != nil {
		return nil, err
	}
	projects, err := s.readProjects()
	if err != nil {
		return nil, err
	}

	userByID := make(map[string]models.User, len(users))
	for _, u := range users {
		userByID[u.ID] = u
	}
	projectByID := make(map[uint64]models.Project, len(projects))
	for _, p := range projects {
		projectByID[p.ID] = p
	}

	tasks := make([]models.Task, len(stored))
	for i, st := range stored {
		task := st.Task
		task.CreatedBy = userByID[task.CreatedByID]
		task.OwnedBy = userByID[task.OwnedByID]

		task.Collaborators = make([]models.TaskCollaborator, len(st.CollaboratorIDs))
		for pos, id := range st.CollaboratorIDs {
			task.Collaborators[pos] = models.TaskCollaborator{
				TaskID:   task.ID,
				UserID:   id,
				Position: pos,
				User:     userByID[id],
			}
		}

		task.Comments = make([]models.Comment, len(st.Comments))
		for j, c := range st.Comments {
			c.Author = userByID[c.AuthorID]
			task.Comments[j] = c
		}

		if task.ProjectID != nil {
			if p, ok := projectByID[*task.ProjectID]; ok {
				task.Project = &p
			}
		}
		tasks[i] = task
	}
	return tasks, nil
}

func toStored(task *models.Task, comments []models.Comment) storedTask {
	st := storedTask{
		Task:            *task,
		CollaboratorIDs: task.CollaboratorIDs(),
		Comments:        comments,
	}
	if st.Comments == nil {
		st.Comments = []models.Comment{}
	}
	return st
}

type fileTaskRepository struct {
	store *FileStore
}

func (r *fileTaskRepository) Create(task *models.Task) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tasks, err := r.store.readTasks()
	if err != nil {
		return err
	}
	tasks = append(tasks, toStored(task, nil))
	return r.store.write(tasksFile, tasks)
}

func (r *fileTaskRepository) FindByID(id string) (*models.Task, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, err := r.store.readTasks()
	if err != nil {
		return nil, err
	}
	for _, st := range stored {
		if st.ID != id {
			continue
		}
		tasks, err := r.store.hydrate([]storedTask{st})
		if err != nil {
			return nil, err
		}
		return &tasks[0], nil
	}
	return nil, ErrRecordNotFound
}

func (r *fileTaskRepository) Exists(id string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, err := r.store.readTasks()
	if err != nil {
		return false, err
	}
	for _, st := range stored {
		if st.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *fileTaskRepository) List(filter TaskFilter) ([]models.Task, error) {
	if len(filter.OwnerIDs) == 0 {
		return []models.Task{}, nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, err := r.store.readTasks()
	if err != nil {
		return nil, err
	}

	owners := make(map[string]struct{}, len(filter.OwnerIDs))
	for _, id := range filter.OwnerIDs {
		owners[id] = struct{}{}
	}

	matched := make([]storedTask, 0, len(stored))
	for _, st := range stored {
		if _, ok := owners[st.OwnedByID]; ok {
			matched = append(matched, st)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	return r.store.hydrate(matched)
}

func (r *fileTaskRepository) Update(task *models.Task, expectedVersion int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tasks, err := r.store.readTasks()
	if err != nil {
		return err
	}

	for i, st := range tasks {
		if st.ID != task.ID {
			continue
		}
		if st.Version != expectedVersion {
			return ErrVersionConflict
		}

		next := *task
		next.Version = expectedVersion + 1
		tasks[i] = toStored(&next, st.Comments)
		if err := r.store.write(tasksFile, tasks); err != nil {
			return err
		}
		task.Version = next.Version
		return nil
	}
	return ErrRecordNotFound
}

func (r *fileTaskRepository) AddComment(comment *models.Comment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tasks, err := r.store.readTasks()
	if err != nil {
		return err
	}

	for i := range tasks {
		if tasks[i].ID != comment.TaskID {
			continue
		}
		stored := *comment
		stored.Author = models.User{}
		tasks[i].Comments = append(tasks[i].Comments, stored)
		return r.store.write(tasksFile, tasks)
	}
	return ErrRecordNotFound
}

type fileUserRepository struct {
	store *FileStore
}

func (r *fileUserRepository) Save(user *models.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users, err := r.store.readUsers()
	if err != nil {
		return err
	}
	now := time.Now()
	user.UpdatedAt = now
	for i := range users {
		if users[i].ID == user.ID {
			user.CreatedAt = users[i].CreatedAt
			users[i] = *user
			return r.store.write(usersFile, users)
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	users = append(users, *user)
	return r.store.write(usersFile, users)
}

func (r *fileUserRepository) FindByID(id string) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users, err := r.store.readUsers()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ID == id {
			found := u
			return &found, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (r *fileUserRepository) FindByIDs(ids []string) ([]models.User, error) {
	return r.filter(func(u models.User) bool {
		for _, id := range ids {
			if u.ID == id {
				return true
			}
		}
		return false
	})
}

func (r *fileUserRepository) ListBySupervisor(managerID string) ([]models.User, error) {
	return r.filter(func(u models.User) bool {
		return u.ManagerID != nil && *u.ManagerID == managerID
	})
}

func (r *fileUserRepository) List() ([]models.User, error) {
	return r.filter(func(models.User) bool { return true })
}

func (r *fileUserRepository) filter(keep func(models.User) bool) ([]models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users, err := r.store.readUsers()
	if err != nil {
		return nil, err
	}

	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fileProjectRepository struct {
	store *FileStore
}

func (r *fileProjectRepository) Create(project *models.Project) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	projects, err := r.store.readProjects()
	if err != nil {
		return err
	}

	var maxID uint64
	for _, p := range projects {
		if p.Name == project.Name {
			return fmt.Errorf("project %q already exists", project.Name)
		}
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	project.ID = maxID + 1
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now()
	}
	projects = append(projects, *project)
	return r.store.write(projectsFile, projects)
}

func (r *fileProjectRepository) FindByID(id uint64) (*models.Project, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	projects, err := r.store.readProjects()
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (r *fileProjectRepository) List() ([]models.Project, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	projects, err := r.store.readProjects()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })
	return projects, nil
}
