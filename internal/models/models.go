package models

import "strings"

// Page is one page of a paginated result.
//
// Total counts every matching row on the server, not just len(Items).
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// TotalPages computes ceil(total / pageSize). A non-positive pageSize yields 0.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Flag is the backend's 0/1 integer boolean.
type Flag int

const (
	FlagOff Flag = 0
	FlagOn  Flag = 1
)

// Bool reports whether the flag is set.
func (f Flag) Bool() bool { return f != FlagOff }

// FlagOf converts a bool to a [Flag].
func FlagOf(b bool) Flag {
	if b {
		return FlagOn
	}
	return FlagOff
}

// containsFold reports whether substr is within s, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
