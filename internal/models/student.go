package models

import (
	"strings"
	"time"
)

// GroupID identifies a squad.
type GroupID string

const GroupUnassigned GroupID = "unassigned"

// Groups lists the fixed squad ids in display order.
var Groups = []GroupID{"A", "B", "C", "D", "E", "F"}

// Valid reports whether g is a squad id or the unassigned bucket.
func (g GroupID) Valid() bool {
	if g == GroupUnassigned {
		return true
	}
	for _, id := range Groups {
		if g == id {
			return true
		}
	}
	return false
}

// NormalizeGroup maps raw input onto a known group, defaulting to unassigned.
func NormalizeGroup(raw string) GroupID {
	g := GroupID(strings.ToUpper(strings.TrimSpace(raw)))
	if g != GroupUnassigned && g.Valid() {
		return g
	}
	return GroupUnassigned
}

// Student is a villager.
type Student struct {
	ID        string          `json:"id"`
	Number    int             `json:"number"`
	Name      string          `json:"name"`
	Gender    string          `json:"gender,omitempty"`
	Group     GroupID         `json:"group"`
	Bank      Bank            `json:"bank"`
	Inventory []InventoryItem `json:"inventory"`
}

// InventoryItem is a purchased product held by a student.
type InventoryItem struct {
	ID          string     `json:"id"`
	ProductID   string     `json:"productId"`
	Name        string     `json:"name"`
	Cost        int64      `json:"cost"`
	PurchasedAt time.Time  `json:"purchasedAt"`
	Used        bool       `json:"used"`
	UsedAt      *time.Time `json:"usedAt,omitempty"`
}

// FindStudent returns a pointer into students for id.
func FindStudent(students []Student, id string) *Student {
	for i := range students {
		if students[i].ID == id {
			return &students[i]
		}
	}
	return nil
}
