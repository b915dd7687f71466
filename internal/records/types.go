package records

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("records: not found")
	ErrInvalidInput = errors.New("records: invalid input")
)

// Task status values.
const (
	TaskStatusOpen    = "open"
	TaskStatusDone    = "done"
	TaskStatusOverdue = "overdue"
)

// Building is a managed property. TenantID is set at creation and never
// reassigned; every access path checks it before returning or mutating.
type Building struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Task is a compliance task (inspection, certificate renewal, remediation).
type Task struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	BuildingID string     `json:"building_id,omitempty"`
	Title      string     `json:"title"`
	Status     string     `json:"status"`
	DueAt      *time.Time `json:"due_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Document is a compliance document attached to a building. Its tenant
// reference must match its parent building's.
type Document struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	BuildingID string    `json:"building_id"`
	Title      string    `json:"title"`
	FileKey    string    `json:"file_key,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Summary is the per-tenant dashboard rollup.
type Summary struct {
	TenantID  string `json:"tenant_id"`
	Buildings int    `json:"buildings"`
	OpenTasks int    `json:"open_tasks"`
	Documents int    `json:"documents"`
}
