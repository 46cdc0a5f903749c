package models

// Task is an assignment published on a given day.
type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Type      string `json:"type,omitempty"`
	CreatedAt string `json:"createdAt"`
	DueDate   string `json:"dueDate,omitempty"`
}

// StatusMap records student id -> task id -> status.
type StatusMap map[string]map[string]TaskStatus

// Get returns the recorded status or StatusUnset.
func (m StatusMap) Get(studentID, taskID string) TaskStatus {
	if m == nil {
		return StatusUnset
	}
	return m[studentID][taskID]
}

// Log is the per-day record of tasks created and statuses recorded that day.
type Log struct {
	Date   string    `json:"date"`
	Tasks  []Task    `json:"tasks"`
	Status StatusMap `json:"status"`
}

// TaskRef pairs a task with the date of the log that created it.
type TaskRef struct {
	Task    Task   `json:"task"`
	LogDate string `json:"logDate"`
}
