package models

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/noah-isme/village-api/internal/currency"
)

// Snapshot is the whole persisted state of one class.
type Snapshot struct {
	Students  []Student       `json:"students"`
	Logs      map[string]*Log `json:"logs"`
	Settings  Settings        `json:"settings"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// NewSnapshot returns an empty class seeded with settings.
func NewSnapshot(settings *Settings) *Snapshot {
	snap := &Snapshot{}
	if settings != nil {
		snap.Settings = *settings
	}
	FillDefaults(snap)
	return snap
}

// FillDefaults repairs missing fields of a loaded snapshot in place. It is
// the only schema migration performed.
func FillDefaults(s *Snapshot) {
	if s.Students == nil {
		s.Students = []Student{}
	}
	for i := range s.Students {
		st := &s.Students[i]
		if !st.Group.Valid() {
			st.Group = NormalizeGroup(string(st.Group))
		}
		if st.Inventory == nil {
			st.Inventory = []InventoryItem{}
		}
		if st.Bank.Transactions == nil {
			st.Bank.Transactions = []Transaction{}
		}
		for j := range st.Bank.Transactions {
			if st.Bank.Transactions[j].Kind == "" {
				st.Bank.Transactions[j].Kind = TransactionPlain
			}
		}
	}

	if s.Logs == nil {
		s.Logs = map[string]*Log{}
	}
	for date, log := range s.Logs {
		if log == nil {
			delete(s.Logs, date)
			continue
		}
		if log.Date == "" {
			log.Date = date
		}
		if log.Tasks == nil {
			log.Tasks = []Task{}
		}
		for j := range log.Tasks {
			if log.Tasks[j].CreatedAt == "" {
				log.Tasks[j].CreatedAt = date
			}
		}
		if log.Status == nil {
			log.Status = StatusMap{}
		}
		for studentID, byTask := range log.Status {
			for taskID, status := range byTask {
				if status == StatusUnset {
					delete(byTask, taskID)
				}
			}
			if len(byTask) == 0 {
				delete(log.Status, studentID)
			}
		}
	}

	s.Settings.FillDefaults()
}

// FillDefaults completes missing settings fields in place.
func (st *Settings) FillDefaults() {
	if len(st.TaskTypes) == 0 {
		st.TaskTypes = append([]string(nil), DefaultTaskTypes...)
	}
	if st.GroupNames == nil {
		st.GroupNames = map[GroupID]string{}
	}
	for _, g := range Groups {
		if st.GroupNames[g] == "" {
			st.GroupNames[g] = fmt.Sprintf("Squad %s", g)
		}
	}
	if st.GroupNames[GroupUnassigned] == "" {
		st.GroupNames[GroupUnassigned] = "Unassigned"
	}
	if st.Jobs == nil {
		st.Jobs = []Job{}
	}
	for i := range st.Jobs {
		st.Jobs[i].Unit = currency.ParseUnit(string(st.Jobs[i].Unit))
		if st.Jobs[i].Cycle == "" {
			st.Jobs[i].Cycle = PayWeekly
		}
		if st.Jobs[i].AssigneeIDs == nil {
			st.Jobs[i].AssigneeIDs = []string{}
		}
	}
	if st.BehaviorRules == nil {
		st.BehaviorRules = []BehaviorRule{}
	}
	if st.Products == nil {
		st.Products = []Product{}
	}
	for i := range st.Products {
		st.Products[i].Unit = currency.ParseUnit(string(st.Products[i].Unit))
	}
	st.Rates = st.Rates.Normalize()
}

// Clone returns a deep copy suitable for handing to the persistence layer.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{UpdatedAt: s.UpdatedAt}

	out.Students = make([]Student, len(s.Students))
	for i, st := range s.Students {
		st.Bank.Transactions = slices.Clone(st.Bank.Transactions)
		inventory := make([]InventoryItem, len(st.Inventory))
		for j, item := range st.Inventory {
			if item.UsedAt != nil {
				usedAt := *item.UsedAt
				item.UsedAt = &usedAt
			}
			inventory[j] = item
		}
		st.Inventory = inventory
		out.Students[i] = st
	}

	out.Logs = make(map[string]*Log, len(s.Logs))
	for date, log := range s.Logs {
		if log == nil {
			continue
		}
		copied := &Log{Date: log.Date, Tasks: slices.Clone(log.Tasks), Status: StatusMap{}}
		for studentID, byTask := range log.Status {
			inner := make(map[string]TaskStatus, len(byTask))
			for taskID, status := range byTask {
				inner[taskID] = status
			}
			copied.Status[studentID] = inner
		}
		out.Logs[date] = copied
	}

	out.Settings = s.Settings
	out.Settings.TaskTypes = slices.Clone(s.Settings.TaskTypes)
	out.Settings.GroupNames = make(map[GroupID]string, len(s.Settings.GroupNames))
	for k, v := range s.Settings.GroupNames {
		out.Settings.GroupNames[k] = v
	}
	out.Settings.Jobs = make([]Job, len(s.Settings.Jobs))
	for i, job := range s.Settings.Jobs {
		job.AssigneeIDs = slices.Clone(job.AssigneeIDs)
		out.Settings.Jobs[i] = job
	}
	out.Settings.BehaviorRules = slices.Clone(s.Settings.BehaviorRules)
	out.Settings.Products = slices.Clone(s.Settings.Products)

	return out
}

// SnapshotInfo summarises a stored class without decoding it.
type SnapshotInfo struct {
	ClassID   string    `json:"classId" db:"class_id"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

var classIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

// ValidClassID reports whether id is usable as a class key and file name.
func ValidClassID(id string) bool {
	return classIDPattern.MatchString(id) && !strings.Contains(id, "..")
}
