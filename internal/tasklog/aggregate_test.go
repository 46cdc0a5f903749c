package tasklog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/village-api/internal/models"
)

func fixedLookup(statuses map[string]map[string]models.TaskStatus) StatusLookup {
	return func(ref models.TaskRef, studentID string) models.TaskStatus {
		return statuses[studentID][ref.Task.ID]
	}
}

func TestCompletionRateEmptyInputsReturnZero(t *testing.T) {
	lookup := fixedLookup(nil)
	tasks := []models.TaskRef{{Task: models.Task{ID: "t1"}}}

	assert.Equal(t, 0.0, CompletionRate(nil, []string{"s1"}, lookup))
	assert.Equal(t, 0.0, CompletionRate(tasks, nil, lookup))
}

func TestCompletionRateExcludesLeaveAndExempt(t *testing.T) {
	tasks := []models.TaskRef{{Task: models.Task{ID: "t1"}}, {Task: models.Task{ID: "t2"}}}
	lookup := fixedLookup(map[string]map[string]models.TaskStatus{
		"s1": {"t1": models.StatusOnTime, "t2": models.StatusLate},
		"s2": {"t1": models.StatusMissing, "t2": models.StatusLeave},
		"s3": {"t1": models.StatusExempt},
	})

	tally := Count(tasks, []string{"s1", "s2", "s3"}, lookup)
	// counted: s1 t1,t2; s2 t1; s3 t2 (unset) -> 4; done: 2
	assert.Equal(t, 4, tally.Counted)
	assert.Equal(t, 2, tally.Done)
	assert.InDelta(t, 0.5, tally.Rate, 1e-9)
}

func TestCompletionRateAllExcusedIsZero(t *testing.T) {
	tasks := []models.TaskRef{{Task: models.Task{ID: "t1"}}}
	lookup := fixedLookup(map[string]map[string]models.TaskStatus{"s1": {"t1": models.StatusLeave}})
	assert.Equal(t, 0.0, CompletionRate(tasks, []string{"s1"}, lookup))
}

func TestGroupAndStudentRates(t *testing.T) {
	students := []models.Student{
		{ID: "s1", Group: "A"},
		{ID: "s2", Group: "A"},
		{ID: "s3", Group: models.GroupUnassigned},
	}
	tasks := []models.TaskRef{{Task: models.Task{ID: "t1", Title: "Read"}, LogDate: "2024-01-10"}}
	lookup := fixedLookup(map[string]map[string]models.TaskStatus{
		"s1": {"t1": models.StatusOnTime},
		"s3": {"t1": models.StatusLate},
	})

	groups := GroupRates(tasks, students, lookup)
	require.Len(t, groups, len(models.Groups)+1)
	assert.Equal(t, models.GroupID("A"), groups[0].Group)
	assert.Equal(t, 2, groups[0].Members)
	assert.InDelta(t, 0.5, groups[0].Rate, 1e-9)
	assert.Equal(t, 0, groups[1].Members)
	assert.Equal(t, 0.0, groups[1].Rate)
	last := groups[len(groups)-1]
	assert.Equal(t, models.GroupUnassigned, last.Group)
	assert.Equal(t, 1.0, last.Rate)

	perStudent := StudentRates(tasks, students, lookup)
	require.Len(t, perStudent, 3)
	assert.Equal(t, 1.0, perStudent[0].Rate)
	assert.Equal(t, 0.0, perStudent[1].Rate)

	perTask := TaskRates(tasks, StudentIDs(students), lookup)
	require.Len(t, perTask, 1)
	assert.Equal(t, "Read", perTask[0].Title)
	assert.InDelta(t, 2.0/3.0, perTask[0].Rate, 1e-9)
}

func TestStoreLookupReadsCreatingLog(t *testing.T) {
	store := newTestStore("2024-01-10")
	task, err := store.AddTask(models.Task{ID: "t1", Title: "Read"})
	require.NoError(t, err)
	store.SetStatus("2024-01-10", "s1", task.ID, models.StatusOnTime)

	refs := store.TasksForDate("2024-01-11")
	assert.Equal(t, 1.0, CompletionRate(refs, []string{"s1"}, store.Lookup))
}
