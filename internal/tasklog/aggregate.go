package tasklog

import "github.com/noah-isme/village-api/internal/models"

// StatusLookup resolves a student's status for a task.
type StatusLookup func(ref models.TaskRef, studentID string) models.TaskStatus

// Tally is a completion numerator/denominator pair.
type Tally struct {
	Done    int     `json:"done"`
	Counted int     `json:"counted"`
	Rate    float64 `json:"rate"`
}

func (t *Tally) add(status models.TaskStatus) {
	if !status.Counted() {
		return
	}
	t.Counted++
	if status.Done() {
		t.Done++
	}
}

func (t Tally) finish() Tally {
	if t.Counted > 0 {
		t.Rate = float64(t.Done) / float64(t.Counted)
	}
	return t
}

// Count tallies every (student, task) pair. LEAVE and EXEMPT pairs are left
// out of the denominator; an empty denominator yields a zero rate.
func Count(tasks []models.TaskRef, studentIDs []string, lookup StatusLookup) Tally {
	var t Tally
	for _, ref := range tasks {
		for _, id := range studentIDs {
			t.add(lookup(ref, id))
		}
	}
	return t.finish()
}

// CompletionRate is Count's rate in [0,1].
func CompletionRate(tasks []models.TaskRef, studentIDs []string, lookup StatusLookup) float64 {
	return Count(tasks, studentIDs, lookup).Rate
}

// TaskRate is one task's completion across the class.
type TaskRate struct {
	TaskID  string `json:"taskId"`
	Title   string `json:"title"`
	LogDate string `json:"logDate"`
	Tally
}

// TaskRates computes per-task completion.
func TaskRates(tasks []models.TaskRef, studentIDs []string, lookup StatusLookup) []TaskRate {
	out := make([]TaskRate, 0, len(tasks))
	for _, ref := range tasks {
		out = append(out, TaskRate{
			TaskID:  ref.Task.ID,
			Title:   ref.Task.Title,
			LogDate: ref.LogDate,
			Tally:   Count([]models.TaskRef{ref}, studentIDs, lookup),
		})
	}
	return out
}

// GroupRate is one squad's completion.
type GroupRate struct {
	Group   models.GroupID `json:"group"`
	Members int            `json:"members"`
	Tally
}

// GroupRates computes completion for every squad and the unassigned bucket,
// in fixed order. Empty squads report a zero rate.
func GroupRates(tasks []models.TaskRef, students []models.Student, lookup StatusLookup) []GroupRate {
	members := make(map[models.GroupID][]string)
	for _, st := range students {
		members[st.Group] = append(members[st.Group], st.ID)
	}
	groups := append(append([]models.GroupID{}, models.Groups...), models.GroupUnassigned)
	out := make([]GroupRate, 0, len(groups))
	for _, g := range groups {
		ids := members[g]
		out = append(out, GroupRate{Group: g, Members: len(ids), Tally: Count(tasks, ids, lookup)})
	}
	return out
}

// StudentRate is one student's completion.
type StudentRate struct {
	StudentID string `json:"studentId"`
	Tally
}

// StudentRates computes per-student completion in roster order.
func StudentRates(tasks []models.TaskRef, students []models.Student, lookup StatusLookup) []StudentRate {
	out := make([]StudentRate, 0, len(students))
	for _, st := range students {
		out = append(out, StudentRate{StudentID: st.ID, Tally: Count(tasks, []string{st.ID}, lookup)})
	}
	return out
}

// StudentIDs extracts roster ids in order.
func StudentIDs(students []models.Student) []string {
	ids := make([]string, len(students))
	for i, st := range students {
		ids[i] = st.ID
	}
	return ids
}
