package store

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/task-manager/backend/internal/apperr"
	"github.com/ayush/task-manager/backend/internal/models"
)

// MemoryUserStore keeps users in process memory. Used for local runs
// without a database and in tests.
type MemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryUserStore) CreateUser(_ context.Context, name, email, hashedPw string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[email]; taken {
		return nil, apperr.ErrDuplicateEmail
	}
	now := time.Now().UTC()
	u := &models.User{
		ID:        primitive.NewObjectID().Hex(),
		Name:      name,
		Email:     email,
		Password:  hashedPw,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.byID[u.ID] = u
	s.byEmail[email] = u.ID

	out := *u
	out.Password = ""
	return &out, nil
}

func (s *MemoryUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	out := *s.byID[id]
	return &out, nil
}

func (s *MemoryUserStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *MemoryUserStore) UpdateProfile(_ context.Context, id, name, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if other, taken := s.byEmail[email]; taken && other != id {
		return nil, apperr.ErrDuplicateEmail
	}
	delete(s.byEmail, u.Email)
	u.Name = name
	u.Email = email
	u.UpdatedAt = time.Now().UTC()
	s.byEmail[email] = id

	out := *u
	out.Password = ""
	return &out, nil
}

func (s *MemoryUserStore) UpdatePassword(_ context.Context, id, hashedPw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return apperr.ErrNotFound
	}
	u.Password = hashedPw
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// MemoryTaskStore keeps tasks in process memory, in insertion order.
type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks []models.Task
}

func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{}
}

func (s *MemoryTaskStore) Insert(_ context.Context, t *models.Task) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	s.tasks = append(s.tasks, *t)
	out := *t
	return &out, nil
}

func (s *MemoryTaskStore) ListByOwner(_ context.Context, owner string) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Task{}
	for _, t := range s.tasks {
		if t.Owner == owner {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *MemoryTaskStore) GetByID(_ context.Context, owner, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(owner, id)
	if i < 0 {
		return nil, apperr.ErrNotFound
	}
	out := s.tasks[i]
	return &out, nil
}

func (s *MemoryTaskStore) Update(_ context.Context, owner, id string, patch models.TaskPatch, updatedAt time.Time) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(owner, id)
	if i < 0 {
		return nil, apperr.ErrNotFound
	}
	patch.Apply(&s.tasks[i])
	s.tasks[i].UpdatedAt = updatedAt
	out := s.tasks[i]
	return &out, nil
}

func (s *MemoryTaskStore) Delete(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(owner, id)
	if i < 0 {
		return apperr.ErrNotFound
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return nil
}

// indexOf must be called with mu held.
func (s *MemoryTaskStore) indexOf(owner, id string) int {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return -1
	}
	for i := range s.tasks {
		if s.tasks[i].ID == oid && s.tasks[i].Owner == owner {
			return i
		}
	}
	return -1
}
