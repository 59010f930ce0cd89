package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Priority is the task urgency level.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// UnmarshalJSON normalises case ("high" -> "High"). Unknown values are
// kept as-is so request validation can report them per field.
func (p *Priority) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("priority: %w", err)
	}
	for _, known := range []Priority{PriorityLow, PriorityMedium, PriorityHigh} {
		if strings.EqualFold(s, string(known)) {
			*p = known
			return nil
		}
	}
	*p = Priority(s)
	return nil
}

// Completion is the Yes/No completed flag the client works with.
type Completion string

const (
	Completed    Completion = "Yes"
	NotCompleted Completion = "No"
)

// UnmarshalJSON accepts "Yes"/"No" in any case, "true"/"false", and JSON
// booleans.
func (c *Completion) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("completed: %w", err)
	}
	switch t := v.(type) {
	case bool:
		*c = completionFromBool(t)
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "yes", "true":
			*c = Completed
		case "no", "false":
			*c = NotCompleted
		default:
			*c = Completion(t)
		}
	case nil:
		*c = ""
	default:
		return errors.New("completed: expected string or boolean")
	}
	return nil
}

func completionFromBool(v bool) Completion {
	if v {
		return Completed
	}
	return NotCompleted
}

// Task is a single to-do item stored in MongoDB.
type Task struct {
	ID          primitive.ObjectID `json:"_id"         bson:"_id,omitempty"`
	Owner       string             `json:"owner"       bson:"owner"`
	Title       string             `json:"title"       bson:"title"`
	Description string             `json:"description" bson:"description"`
	Priority    Priority           `json:"priority"    bson:"priority"`
	DueDate     time.Time          `json:"dueDate"     bson:"dueDate"`
	Completed   Completion         `json:"completed"   bson:"completed"`
	CreatedAt   time.Time          `json:"createdAt"   bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"   bson:"updatedAt"`
}

// TaskPatch lists the fields of a partial update; nil means unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *Priority
	DueDate     *time.Time
	Completed   *Completion
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.DueDate == nil && p.Completed == nil
}

// Apply copies the supplied fields onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
}

// CreateTaskRequest is the JSON body for POST /api/tasks/gp. Any owner or
// id fields the client sends are ignored.
type CreateTaskRequest struct {
	Title       string     `json:"title"       validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	Priority    Priority   `json:"priority"    validate:"omitempty,oneof=Low Medium High"`
	DueDate     string     `json:"dueDate"     validate:"required"`
	Completed   Completion `json:"completed"   validate:"omitempty,oneof=Yes No"`
}

// UpdateTaskRequest is the JSON body for PUT /api/tasks/{id}/gp.
type UpdateTaskRequest struct {
	Title       *string     `json:"title"       validate:"omitempty,max=200"`
	Description *string     `json:"description" validate:"omitempty,max=2000"`
	Priority    *Priority   `json:"priority"    validate:"omitempty,oneof=Low Medium High"`
	DueDate     *string     `json:"dueDate"`
	Completed   *Completion `json:"completed"   validate:"omitempty,oneof=Yes No"`
}

// ParseDueDate accepts YYYY-MM-DD or RFC 3339 and returns the calendar
// date as UTC midnight.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(time.DateOnly, s); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}
