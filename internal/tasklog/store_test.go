package tasklog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/village-api/internal/models"
)

func newTestStore(today string) *Store {
	day, _ := time.Parse(DateLayout, today)
	return NewStore(map[string]*models.Log{}, func() time.Time { return day })
}

func TestAddTaskDefaultsDueDateToNextDay(t *testing.T) {
	store := newTestStore("2024-01-10")
	task, err := store.AddTask(models.Task{ID: "t1", Title: "Read chapter 3"})
	require.NoError(t, err)

	assert.Equal(t, "2024-01-10", task.CreatedAt)
	assert.Equal(t, "2024-01-11", task.DueDate)
	assert.Equal(t, "2024-01-11", DueDate(task, "2024-01-10"))

	due := store.TasksForDate("2024-01-11")
	require.Len(t, due, 1)
	assert.Equal(t, "t1", due[0].Task.ID)
	assert.Equal(t, "2024-01-10", due[0].LogDate)
	assert.Empty(t, store.TasksForDate("2024-01-10"))
}

func TestAddTaskValidation(t *testing.T) {
	store := newTestStore("2024-01-10")
	_, err := store.AddTask(models.Task{Title: "  "})
	assert.ErrorIs(t, err, ErrEmptyTitle)

	_, err = store.AddTask(models.Task{Title: "x", CreatedAt: "10/01/2024"})
	assert.ErrorIs(t, err, ErrInvalidDate)

	first, err := store.AddTask(models.Task{Title: "x"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	_, err = store.AddTask(models.Task{ID: first.ID, Title: "dup", CreatedAt: "2024-01-12"})
	assert.ErrorIs(t, err, ErrDuplicateTask)
}

func TestLegacyTaskWithoutDueDateUsesLogDate(t *testing.T) {
	logs := map[string]*models.Log{
		"2024-01-09": {Date: "2024-01-09", Tasks: []models.Task{{ID: "old", Title: "legacy"}}, Status: models.StatusMap{}},
	}
	store := NewStore(logs, nil)
	refs := store.TasksForDate("2024-01-09")
	require.Len(t, refs, 1)
	assert.Equal(t, "old", refs[0].Task.ID)
}

func TestTasksForDateOrdersChronologically(t *testing.T) {
	store := newTestStore("2024-01-10")
	_, _ = store.AddTask(models.Task{ID: "b", Title: "b", CreatedAt: "2024-01-12", DueDate: "2024-01-15"})
	_, _ = store.AddTask(models.Task{ID: "a", Title: "a", CreatedAt: "2024-01-10", DueDate: "2024-01-15"})
	_, _ = store.AddTask(models.Task{ID: "c", Title: "c", CreatedAt: "2024-01-12", DueDate: "2024-01-15"})

	refs := store.TasksForDate("2024-01-15")
	ids := []string{refs[0].Task.ID, refs[1].Task.ID, refs[2].Task.ID}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	created := store.TasksCreatedOn("2024-01-12")
	require.Len(t, created, 2)
	assert.Equal(t, "b", created[0].Task.ID)
}

func TestCheckOverdueScenario(t *testing.T) {
	store := newTestStore("2024-01-08")
	task, err := store.AddTask(models.Task{ID: "t1", Title: "Essay", CreatedAt: "2024-01-08"})
	require.NoError(t, err)

	today := "2024-01-12"
	assert.True(t, store.CheckOverdue("s1", today))
	assert.Len(t, store.OverdueTasks("s1", today), 1)

	store.SetStatus(task.CreatedAt, "s1", task.ID, models.StatusOnTime)
	assert.False(t, store.CheckOverdue("s1", today))
	assert.Empty(t, store.OverdueTasks("s1", today))

	store.SetStatus(task.CreatedAt, "s1", task.ID, models.StatusMissing)
	assert.True(t, store.CheckOverdue("s1", today))

	assert.False(t, store.CheckOverdue("s1", "2024-01-09"), "due today is not overdue")
}

func TestSetStatusUnsetRemovesEntry(t *testing.T) {
	store := newTestStore("2024-01-10")
	store.SetStatus("2024-01-10", "s1", "t1", models.StatusLate)
	assert.Equal(t, models.StatusLate, store.Status("2024-01-10", "s1", "t1"))

	store.SetStatus("2024-01-10", "s1", "t1", models.StatusUnset)
	assert.Equal(t, models.StatusUnset, store.Status("2024-01-10", "s1", "t1"))
	assert.Empty(t, store.Log("2024-01-10").Status)

	store.SetStatus("2030-01-01", "s1", "t1", models.StatusUnset)
	assert.Nil(t, store.Log("2030-01-01"), "clearing must not create a log")
}

func TestDeleteTaskRemovesStatuses(t *testing.T) {
	store := newTestStore("2024-01-10")
	task, _ := store.AddTask(models.Task{ID: "t1", Title: "Quiz"})
	store.SetStatus(task.CreatedAt, "s1", "t1", models.StatusOnTime)

	assert.False(t, store.DeleteTask("2024-01-11", "t1"))
	assert.True(t, store.DeleteTask("2024-01-10", "t1"))
	assert.Empty(t, store.Log("2024-01-10").Tasks)
	assert.Empty(t, store.Log("2024-01-10").Status)
	_, found := store.FindTask("t1")
	assert.False(t, found)
	assert.NotNil(t, store.Log("2024-01-10"), "logs are never deleted")
}

func TestHasTaskOnlyMatchesOwningLog(t *testing.T) {
	store := newTestStore("2024-01-10")
	_, err := store.AddTask(models.Task{ID: "t1", Title: "Essay"})
	require.NoError(t, err)

	assert.True(t, store.HasTask("2024-01-10", "t1"))
	assert.False(t, store.HasTask("2024-01-11", "t1"))
	assert.False(t, store.HasTask("2024-01-10", "t2"))
	assert.Nil(t, store.Log("2024-01-11"), "lookups never create logs")
}
