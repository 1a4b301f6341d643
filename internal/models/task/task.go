package task

import (
	"errors"
	"strings"
	"time"
)

var ErrEmptyTitle = errors.New("название задачи не может быть пустым")
var ErrInvalidStatus = errors.New("неизвестный статус задачи")

type Status string

const StatusPending Status = "pending"
const StatusCompleted Status = "completed"

func ParseStatus(token string) (Status, error) {
	switch Status(token) {
	case StatusPending:
		return StatusPending, nil
	case StatusCompleted:
		return StatusCompleted, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Task изменяется только через Update, наружу отдаётся Snapshot
type Task struct {
	id          string
	title       string
	description *string
	dueDate     *time.Time
	status      Status
	createdAt   time.Time
	updatedAt   time.Time
}

// Params используется и сервисом при создании, и репозиториями при чтении из хранилища
type Params struct {
	ID          string
	Title       string
	Description *string
	DueDate     *time.Time
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Snapshot - неизменяемая копия задачи, форма ответа API
type Snapshot struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func New(p Params) (*Task, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	t := &Task{
		id:          p.ID,
		title:       title,
		description: copyString(p.Description),
		dueDate:     truncTime(p.DueDate),
		status:      p.Status,
		createdAt:   p.CreatedAt.UTC().Truncate(time.Microsecond),
		updatedAt:   p.UpdatedAt.UTC().Truncate(time.Microsecond),
	}

	if t.status == "" {
		t.status = StatusPending
	}
	if p.CreatedAt.IsZero() {
		t.createdAt = now
	}
	if p.UpdatedAt.IsZero() {
		t.updatedAt = t.createdAt
	}
	if t.updatedAt.Before(t.createdAt) {
		t.updatedAt = t.createdAt
	}

	return t, nil
}

// Update применяет разреженный патч: nil-опции пропускаются, updatedAt обновляется всегда
func (t *Task) Update(options ...TaskOption) {
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(t)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	if !now.After(t.updatedAt) {
		// хранилище держит микросекунды, время должно строго расти
		now = t.updatedAt.Add(time.Microsecond)
	}
	t.updatedAt = now
}

func (t *Task) Snapshot() Snapshot {
	return Snapshot{
		ID:          t.id,
		Title:       t.title,
		Description: copyString(t.description),
		DueDate:     copyTime(t.dueDate),
		Status:      t.status,
		CreatedAt:   t.createdAt,
		UpdatedAt:   t.updatedAt,
	}
}

func (t *Task) ID() string { return t.id }
func (t *Task) Title() string { return t.title }
func (t *Task) Description() *string { return copyString(t.description) }
func (t *Task) DueDate() *time.Time { return copyTime(t.dueDate) }
func (t *Task) Status() Status { return t.status }
func (t *Task) CreatedAt() time.Time { return t.createdAt }
func (t *Task) UpdatedAt() time.Time { return t.updatedAt }

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTime(tm *time.Time) *time.Time {
	if tm == nil {
		return nil
	}
	v := tm.UTC()
	return &v
}

func truncTime(tm *time.Time) *time.Time {
	if tm == nil {
		return nil
	}
	v := tm.UTC().Truncate(time.Microsecond)
	return &v
}
