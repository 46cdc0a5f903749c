// Package tasklog keeps the per-day task logs and per-student statuses and
// answers the date-keyed questions the dashboard asks of them.
package tasklog

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/village-api/internal/models"
)

// DateLayout is the calendar-day key format used for logs and tasks.
const DateLayout = "2006-01-02"

var (
	ErrDuplicateTask = errors.New("task id already exists")
	ErrInvalidDate   = errors.New("invalid date, expected YYYY-MM-DD")
	ErrEmptyTitle    = errors.New("task title is required")
)

// ParseDate validates a day key and returns it in canonical form.
func ParseDate(raw string) (string, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidDate
	}
	return t.Format(DateLayout), nil
}

// NextDay returns the day after date. Unparseable input is returned unchanged.
func NextDay(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, 1).Format(DateLayout)
}

// DueDate is the task's explicit due date, or the creating log's date for
// legacy tasks stored without one.
func DueDate(task models.Task, logDate string) string {
	if task.DueDate != "" {
		return task.DueDate
	}
	return logDate
}

// Store wraps a snapshot's log map and mutates it in place.
type Store struct {
	logs  map[string]*models.Log
	now   func() time.Time
	newID func() string
}

// NewStore wraps logs, which must be non-nil.
func NewStore(logs map[string]*models.Log, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{logs: logs, now: now, newID: uuid.NewString}
}

// Today is the current day key.
func (s *Store) Today() string {
	return s.now().Format(DateLayout)
}

// Log returns the log for date, or nil.
func (s *Store) Log(date string) *models.Log {
	return s.logs[date]
}

func (s *Store) ensureLog(date string) *models.Log {
	log, ok := s.logs[date]
	if !ok || log == nil {
		log = &models.Log{Date: date, Tasks: []models.Task{}, Status: models.StatusMap{}}
		s.logs[date] = log
	}
	if log.Status == nil {
		log.Status = models.StatusMap{}
	}
	return log
}

// Dates lists log days in chronological order.
func (s *Store) Dates() []string {
	dates := make([]string, 0, len(s.logs))
	for date := range s.logs {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// AddTask publishes a task. CreatedAt defaults to today, DueDate to the day
// after creation and ID to a fresh UUID. Task ids are unique across all logs.
func (s *Store) AddTask(task models.Task) (models.Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return models.Task{}, ErrEmptyTitle
	}
	if task.CreatedAt == "" {
		task.CreatedAt = s.Today()
	}
	created, err := ParseDate(task.CreatedAt)
	if err != nil {
		return models.Task{}, err
	}
	task.CreatedAt = created
	if task.DueDate == "" {
		task.DueDate = NextDay(created)
	} else if task.DueDate, err = ParseDate(task.DueDate); err != nil {
		return models.Task{}, err
	}
	if task.ID == "" {
		task.ID = s.newID()
	} else if _, exists := s.FindTask(task.ID); exists {
		return models.Task{}, ErrDuplicateTask
	}

	log := s.ensureLog(created)
	log.Tasks = append(log.Tasks, task)
	return task, nil
}

// DeleteTask removes a task from its log together with the statuses recorded
// for it there. It reports whether anything was removed.
func (s *Store) DeleteTask(logDate, taskID string) bool {
	log := s.logs[logDate]
	if log == nil {
		return false
	}
	for i, task := range log.Tasks {
		if task.ID != taskID {
			continue
		}
		log.Tasks = append(log.Tasks[:i], log.Tasks[i+1:]...)
		for studentID, byTask := range log.Status {
			delete(byTask, taskID)
			if len(byTask) == 0 {
				delete(log.Status, studentID)
			}
		}
		return true
	}
	return false
}

// FindTask locates a task by id across all logs.
func (s *Store) FindTask(taskID string) (models.TaskRef, bool) {
	for _, date := range s.Dates() {
		for _, task := range s.logs[date].Tasks {
			if task.ID == taskID {
				return models.TaskRef{Task: task, LogDate: date}, true
			}
		}
	}
	return models.TaskRef{}, false
}

// HasTask reports whether logDate's log lists taskID.
func (s *Store) HasTask(logDate, taskID string) bool {
	log := s.logs[logDate]
	if log == nil {
		return false
	}
	for _, task := range log.Tasks {
		if task.ID == taskID {
			return true
		}
	}
	return false
}

// Status returns the status recorded in logDate's log.
func (s *Store) Status(logDate, studentID, taskID string) models.TaskStatus {
	log := s.logs[logDate]
	if log == nil {
		return models.StatusUnset
	}
	return log.Status.Get(studentID, taskID)
}

// Lookup reads a student's status for a task from the log that created it.
func (s *Store) Lookup(ref models.TaskRef, studentID string) models.TaskStatus {
	return s.Status(ref.LogDate, studentID, ref.Task.ID)
}

// SetStatus assigns status. Setting StatusUnset removes the entry.
func (s *Store) SetStatus(logDate, studentID, taskID string, status models.TaskStatus) {
	if status == models.StatusUnset {
		log := s.logs[logDate]
		if log == nil {
			return
		}
		if byTask := log.Status[studentID]; byTask != nil {
			delete(byTask, taskID)
			if len(byTask) == 0 {
				delete(log.Status, studentID)
			}
		}
		return
	}
	log := s.ensureLog(logDate)
	byTask := log.Status[studentID]
	if byTask == nil {
		byTask = map[string]models.TaskStatus{}
		log.Status[studentID] = byTask
	}
	byTask[taskID] = status
}

// TasksForDate returns tasks due on target, each paired with its creating log.
// Logs are scanned chronologically and tasks in insertion order.
func (s *Store) TasksForDate(target string) []models.TaskRef {
	return s.collect(func(task models.Task, logDate string) bool {
		return DueDate(task, logDate) == target
	})
}

// TasksCreatedOn returns tasks whose creation day is date.
func (s *Store) TasksCreatedOn(date string) []models.TaskRef {
	return s.collect(func(task models.Task, logDate string) bool {
		created := task.CreatedAt
		if created == "" {
			created = logDate
		}
		return created == date
	})
}

// AllTasks returns every task in chronological log order.
func (s *Store) AllTasks() []models.TaskRef {
	return s.collect(func(models.Task, string) bool { return true })
}

// OverdueTasks lists tasks due strictly before today that the student has not done.
func (s *Store) OverdueTasks(studentID, today string) []models.TaskRef {
	return s.collect(func(task models.Task, logDate string) bool {
		if DueDate(task, logDate) >= today {
			return false
		}
		return !s.Status(logDate, studentID, task.ID).Done()
	})
}

// CheckOverdue reports whether the student has any overdue task.
func (s *Store) CheckOverdue(studentID, today string) bool {
	for _, date := range s.Dates() {
		for _, task := range s.logs[date].Tasks {
			if DueDate(task, date) < today && !s.Status(date, studentID, task.ID).Done() {
				return true
			}
		}
	}
	return false
}

func (s *Store) collect(match func(models.Task, string) bool) []models.TaskRef {
	refs := make([]models.TaskRef, 0)
	for _, date := range s.Dates() {
		for _, task := range s.logs[date].Tasks {
			if match(task, date) {
				refs = append(refs, models.TaskRef{Task: task, LogDate: date})
			}
		}
	}
	return refs
}
