package service

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/village-api/internal/currency"
	"github.com/noah-isme/village-api/internal/dto"
	"github.com/noah-isme/village-api/internal/models"
	"github.com/noah-isme/village-api/internal/tasklog"
	appErrors "github.com/noah-isme/village-api/pkg/errors"
)

func summarize(sess *session, st *models.Student) dto.StudentSummary {
	settings := &sess.snap.Settings
	return dto.StudentSummary{
		ID:        st.ID,
		Number:    st.Number,
		Name:      st.Name,
		Gender:    st.Gender,
		Group:     st.Group,
		GroupName: settings.GroupNames[st.Group],
		Avatar:    sess.avatars.Avatar(*st),
		Balance:   st.Bank.Balance,
		Formatted: currency.Format(st.Bank.Balance, settings.Rates),
	}
}

// ListStudents returns the roster in stored order.
func (s *VillageService) ListStudents(ctx context.Context, classID string) ([]dto.StudentSummary, error) {
	var out []dto.StudentSummary
	err := s.read(ctx, classID, func(sess *session) error {
		out = make([]dto.StudentSummary, 0, len(sess.snap.Students))
		for i := range sess.snap.Students {
			out = append(out, summarize(sess, &sess.snap.Students[i]))
		}
		return nil
	})
	return out, err
}

// CreateStudent adds a villager with an empty bank. A zero number is
// replaced by the next free seat number.
func (s *VillageService) CreateStudent(ctx context.Context, classID string, req dto.StudentRequest) (*dto.StudentSummary, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate(req); err != nil {
		return nil, err
	}
	var out dto.StudentSummary
	err := s.mutate(ctx, classID, func(sess *session, _ *change) (bool, error) {
		number := req.Number
		if number == 0 {
			for _, st := range sess.snap.Students {
				number = max(number, st.Number)
			}
			number++
		}
		sess.snap.Students = append(sess.snap.Students, models.Student{
			ID:        s.newID(),
			Number:    number,
			Name:      req.Name,
			Gender:    strings.ToUpper(req.Gender),
			Group:     models.NormalizeGroup(req.Group),
			Bank:      models.Bank{Transactions: []models.Transaction{}},
			Inventory: []models.InventoryItem{},
		})
		out = summarize(sess, &sess.snap.Students[len(sess.snap.Students)-1])
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("student created", zap.String("class_id", classID), zap.String("student_id", out.ID))
	return &out, nil
}

// UpdateStudent changes a villager's roster fields. The bank is untouched.
func (s *VillageService) UpdateStudent(ctx context.Context, classID, studentID string, req dto.StudentRequest) (*dto.StudentSummary, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate(req); err != nil {
		return nil, err
	}
	var out dto.StudentSummary
	err := s.mutate(ctx, classID, func(sess *session, _ *change) (bool, error) {
		st := models.FindStudent(sess.snap.Students, studentID)
		if st == nil {
			return false, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		if req.Number > 0 {
			st.Number = req.Number
		}
		st.Name = req.Name
		st.Gender = strings.ToUpper(req.Gender)
		if req.Group != "" {
			st.Group = models.NormalizeGroup(req.Group)
		}
		sess.avatars.Forget(st.ID)
		out = summarize(sess, st)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AssignGroup moves a villager to a squad or back to unassigned.
func (s *VillageService) AssignGroup(ctx context.Context, classID, studentID string, req dto.GroupRequest) (*dto.StudentSummary, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	var out dto.StudentSummary
	err := s.mutate(ctx, classID, func(sess *session, _ *change) (bool, error) {
		st := models.FindStudent(sess.snap.Students, studentID)
		if st == nil {
			return false, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		group := models.NormalizeGroup(req.Group)
		changed := st.Group != group
		st.Group = group
		out = summarize(sess, st)
		return changed, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *VillageService) resolveDate(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return s.now().Format(tasklog.DateLayout), nil
	}
	date, err := tasklog.ParseDate(raw)
	if err != nil {
		return "", mapTaskError(err)
	}
	return date, nil
}

// Dashboard composes the class view for one day: tasks due and created,
// completion per class, squad, task and student, and overdue flags. The
// boolean reports whether the payload came from cache.
func (s *VillageService) Dashboard(ctx context.Context, classID, rawDate string) (*dto.DashboardResponse, bool, error) {
	date, err := s.resolveDate(rawDate)
	if err != nil {
		return nil, false, err
	}
	if !models.ValidClassID(classID) {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "invalid class id")
	}

	key := DashboardKey(classID, date)
	if s.cache != nil {
		var cached dto.DashboardResponse
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	var resp *dto.DashboardResponse
	err = s.read(ctx, classID, func(sess *session) error {
		resp = s.composeDashboard(sess, date)
		// Written under the class lock so no mutation's invalidation can
		// land between composing and caching.
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, resp, s.cacheTTL); err != nil {
				s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return resp, false, nil
}

func (s *VillageService) composeDashboard(sess *session, date string) *dto.DashboardResponse {
	students := sess.snap.Students
	due := sess.logs.TasksForDate(date)
	ids := tasklog.StudentIDs(students)
	lookup := sess.logs.Lookup

	rows := make([]dto.DashboardStudent, 0, len(students))
	for i := range students {
		st := &students[i]
		rows = append(rows, dto.DashboardStudent{
			StudentSummary: summarize(sess, st),
			Rate:           tasklog.CompletionRate(due, []string{st.ID}, lookup),
			Overdue:        sess.logs.CheckOverdue(st.ID, date),
		})
	}

	return &dto.DashboardResponse{
		ClassID:      sess.classID,
		Date:         date,
		TasksDue:     due,
		TasksCreated: sess.logs.TasksCreatedOn(date),
		Class:        tasklog.Count(due, ids, lookup),
		Groups:       tasklog.GroupRates(due, students, lookup),
		Tasks:        tasklog.TaskRates(due, ids, lookup),
		Students:     rows,
		GeneratedAt:  s.now().UTC(),
	}
}

// Passport is the per-student view for one day. Completion covers every task
// due on or before that day.
func (s *VillageService) Passport(ctx context.Context, classID, studentID, rawDate string) (*dto.PassportResponse, error) {
	date, err := s.resolveDate(rawDate)
	if err != nil {
		return nil, err
	}
	var resp *dto.PassportResponse
	err = s.read(ctx, classID, func(sess *session) error {
		st := models.FindStudent(sess.snap.Students, studentID)
		if st == nil {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		lookup := sess.logs.Lookup

		due := sess.logs.TasksForDate(date)
		tasks := make([]dto.PassportTask, 0, len(due))
		for _, ref := range due {
			tasks = append(tasks, dto.PassportTask{TaskRef: ref, Status: lookup(ref, st.ID)})
		}

		var elapsed []models.TaskRef
		for _, ref := range sess.logs.AllTasks() {
			if tasklog.DueDate(ref.Task, ref.LogDate) <= date {
				elapsed = append(elapsed, ref)
			}
		}

		transactions := slices.Clone(st.Bank.Transactions)
		slices.Reverse(transactions)

		resp = &dto.PassportResponse{
			Student:      summarize(sess, st),
			Date:         date,
			Tasks:        tasks,
			Overdue:      sess.logs.OverdueTasks(st.ID, date),
			Completion:   tasklog.Count(elapsed, []string{st.ID}, lookup),
			Transactions: transactions,
			Inventory:    slices.Clone(st.Inventory),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Task list selectors.
const (
	TasksByDue     = "due"
	TasksByCreated = "created"
)

// Tasks lists tasks due on, or created on, a day.
func (s *VillageService) Tasks(ctx context.Context, classID, by, rawDate string) (*dto.TaskListResponse, error) {
	if by == "" {
		by = TasksByDue
	}
	if by != TasksByDue && by != TasksByCreated {
		return nil, appErrors.Clone(appErrors.ErrValidation, "by must be due or created")
	}
	date, err := s.resolveDate(rawDate)
	if err != nil {
		return nil, err
	}
	resp := &dto.TaskListResponse{Date: date, By: by}
	err = s.read(ctx, classID, func(sess *session) error {
		if by == TasksByCreated {
			resp.Tasks = sess.logs.TasksCreatedOn(date)
		} else {
			resp.Tasks = sess.logs.TasksForDate(date)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Statement is a student's ledger with the rates needed to render it.
type Statement struct {
	Student      dto.StudentSummary
	Transactions []models.Transaction
	Rates        currency.Rates
}

// Statement returns a copy of a student's ledger in chronological order.
func (s *VillageService) Statement(ctx context.Context, classID, studentID string) (*Statement, error) {
	var out *Statement
	err := s.read(ctx, classID, func(sess *session) error {
		st := models.FindStudent(sess.snap.Students, studentID)
		if st == nil {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		out = &Statement{
			Student:      summarize(sess, st),
			Transactions: slices.Clone(st.Bank.Transactions),
			Rates:        sess.snap.Settings.Rates,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
