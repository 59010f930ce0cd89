package tasks

import (
	"context"
	"strings"
	"time"

	"github.com/ayush/task-manager/backend/internal/apperr"
	"github.com/ayush/task-manager/backend/internal/models"
	"github.com/ayush/task-manager/backend/internal/validate"
)

// TaskStore defines the interface for task persistence. Every method is
// scoped by owner and returns apperr.ErrNotFound for tasks that are
// missing, malformed, or owned by someone else.
type TaskStore interface {
	Insert(ctx context.Context, t *models.Task) (*models.Task, error)
	ListByOwner(ctx context.Context, owner string) ([]models.Task, error)
	GetByID(ctx context.Context, owner, id string) (*models.Task, error)
	Update(ctx context.Context, owner, id string, patch models.TaskPatch, updatedAt time.Time) (*models.Task, error)
	Delete(ctx context.Context, owner, id string) error
}

// Service validates task input and enforces ownership.
type Service struct {
	store    TaskStore
	validate *validate.Validator
	now      func() time.Time
}

func NewService(store TaskStore, v *validate.Validator) *Service {
	return &Service{store: store, validate: v, now: time.Now}
}

func (s *Service) today() time.Time {
	y, m, d := s.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dueDate parses raw and rejects dates before today (UTC).
func (s *Service) dueDate(raw string) (time.Time, error) {
	due, err := models.ParseDueDate(raw)
	if err != nil {
		return time.Time{}, apperr.Validation("dueDate", "Must be a date (YYYY-MM-DD)")
	}
	if due.Before(s.today()) {
		return time.Time{}, apperr.Validation("dueDate", "Due date cannot be in the past")
	}
	return due, nil
}

// Create stores a new task for owner. Priority defaults to Low and
// completed to No.
func (s *Service) Create(ctx context.Context, owner string, req models.CreateTaskRequest) (*models.Task, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	due, err := s.dueDate(req.DueDate)
	if err != nil {
		return nil, err
	}
	if req.Priority == "" {
		req.Priority = models.PriorityLow
	}
	if req.Completed == "" {
		req.Completed = models.NotCompleted
	}

	now := s.now().UTC()
	return s.store.Insert(ctx, &models.Task{
		Owner:       owner,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     due,
		Completed:   req.Completed,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (s *Service) List(ctx context.Context, owner string) ([]models.Task, error) {
	tasks, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

func (s *Service) Get(ctx context.Context, owner, id string) (*models.Task, error) {
	return s.store.GetByID(ctx, owner, id)
}

// Update applies the supplied fields only. An empty patch still bumps
// updatedAt and returns the current task.
func (s *Service) Update(ctx context.Context, owner, id string, req models.UpdateTaskRequest) (*models.Task, error) {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperr.Validation("title", "This field is required")
		}
		req.Title = &title
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		req.Description = &desc
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	patch := models.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Completed:   req.Completed,
	}
	if req.DueDate != nil {
		due, err := s.dueDate(*req.DueDate)
		if err != nil {
			return nil, err
		}
		patch.DueDate = &due
	}
	return s.store.Update(ctx, owner, id, patch, s.now().UTC())
}

func (s *Service) Delete(ctx context.Context, owner, id string) error {
	return s.store.Delete(ctx, owner, id)
}
