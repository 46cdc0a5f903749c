package models

import "github.com/noah-isme/village-api/internal/currency"

// PayCycle is how often a job pays out.
type PayCycle string

const (
	PayDaily   PayCycle = "daily"
	PayWeekly  PayCycle = "weekly"
	PayMonthly PayCycle = "monthly"
)

// Job is a classroom role that earns a salary.
type Job struct {
	ID          string        `json:"id" toml:"id"`
	Title       string        `json:"title" toml:"title"`
	Salary      int64         `json:"salary" toml:"salary"`
	Unit        currency.Unit `json:"unit" toml:"unit"`
	Cycle       PayCycle      `json:"cycle" toml:"cycle"`
	AssigneeIDs []string      `json:"assigneeIds" toml:"assignee_ids"`
}

// BehaviorRule is a catalogued reward or penalty.
type BehaviorRule struct {
	ID       string `json:"id" toml:"id"`
	Label    string `json:"label" toml:"label"`
	Points   int64  `json:"points" toml:"points"`
	Category string `json:"category" toml:"category"`
}

// Product is a shop item priced in some unit.
type Product struct {
	ID    string        `json:"id" toml:"id"`
	Name  string        `json:"name" toml:"name"`
	Price int64         `json:"price" toml:"price"`
	Unit  currency.Unit `json:"unit" toml:"unit"`
}

// Settings is the class-wide configuration.
type Settings struct {
	TaskTypes     []string           `json:"taskTypes" toml:"task_types"`
	GroupNames    map[GroupID]string `json:"groupNames" toml:"group_names"`
	Jobs          []Job              `json:"jobs" toml:"jobs"`
	BehaviorRules []BehaviorRule     `json:"behaviorRules" toml:"behavior_rules"`
	Rates         currency.Rates     `json:"rates" toml:"rates"`
	Products      []Product          `json:"products" toml:"products"`
}

// DefaultTaskTypes is the vocabulary offered to a new class.
var DefaultTaskTypes = []string{"homework", "classwork", "reading", "project"}

// FindProduct returns the product with id.
func (s *Settings) FindProduct(id string) (Product, bool) {
	for _, p := range s.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// FindRule returns the behavior rule with id.
func (s *Settings) FindRule(id string) (BehaviorRule, bool) {
	for _, r := range s.BehaviorRules {
		if r.ID == id {
			return r, true
		}
	}
	return BehaviorRule{}, false
}
