package models

import (
	"encoding/json"
	"strings"
)

// TaskStatus is the normalized completion state of a student for a task.
type TaskStatus string

const (
	StatusUnset   TaskStatus = ""
	StatusOnTime  TaskStatus = "ON_TIME"
	StatusLate    TaskStatus = "LATE"
	StatusMissing TaskStatus = "MISSING"
	StatusLeave   TaskStatus = "LEAVE"
	StatusExempt  TaskStatus = "EXEMPT"
)

// Valid reports whether s is one of the recorded (non-unset) states.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusOnTime, StatusLate, StatusMissing, StatusLeave, StatusExempt:
		return true
	default:
		return false
	}
}

// Done is true for ON_TIME and LATE.
func (s TaskStatus) Done() bool {
	return s == StatusOnTime || s == StatusLate
}

// Counted is false for LEAVE and EXEMPT, which are excluded from completion denominators.
func (s TaskStatus) Counted() bool {
	return s != StatusLeave && s != StatusExempt
}

// NormalizeStatus maps any stored value to a TaskStatus. Legacy boolean true
// means ON_TIME and the lowercase "leave"/"exempt" aliases are accepted.
// Everything unrecognised is unset.
func NormalizeStatus(raw any) TaskStatus {
	switch v := raw.(type) {
	case TaskStatus:
		if v.Valid() {
			return v
		}
	case bool:
		if v {
			return StatusOnTime
		}
	case string:
		switch v {
		case "leave":
			return StatusLeave
		case "exempt":
			return StatusExempt
		}
		if s := TaskStatus(v); s.Valid() {
			return s
		}
	}
	return StatusUnset
}

// IsDone classifies a raw stored value.
func IsDone(raw any) bool {
	return NormalizeStatus(raw).Done()
}

// IsCountedInDenominator classifies a raw stored value.
func IsCountedInDenominator(raw any) bool {
	return NormalizeStatus(raw).Counted()
}

// NextStatus applies the toggle policy: requesting the current status clears it.
func NextStatus(current, requested TaskStatus) TaskStatus {
	if current == requested {
		return StatusUnset
	}
	return requested
}

// ParseStatus normalizes user input, accepting canonical names case-insensitively.
func ParseStatus(raw string) TaskStatus {
	trimmed := strings.TrimSpace(raw)
	if s := NormalizeStatus(trimmed); s != StatusUnset {
		return s
	}
	return NormalizeStatus(strings.ToUpper(trimmed))
}

// UnmarshalJSON normalizes whatever scalar was stored.
func (s *TaskStatus) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		*s = StatusUnset
		return nil
	}
	*s = NormalizeStatus(raw)
	return nil
}
