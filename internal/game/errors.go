package game

import (
	"errors"
	"fmt"
)

// Category classifies a rejected action
type Category string

const (
	// CategoryValidation covers illegal moves, declarations and piece counts.
	CategoryValidation Category = "validation"
	// CategoryState covers actions in the wrong phase or out of turn.
	CategoryState Category = "state"
	// CategoryResource covers missing rooms and unavailable seats.
	CategoryResource Category = "resource"
	// CategoryInvariant marks internal inconsistencies. They are logged, never returned to players.
	CategoryInvariant Category = "invariant"
)

// Error is a categorized game error
type Error struct {
	Category Category `json:"category"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on code so wrapped or re-created errors compare equal to sentinels
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrRoomNotFound   = &Error{Category: CategoryResource, Code: "ROOM_NOT_FOUND", Message: "room not found"}
	ErrRoomFull       = &Error{Category: CategoryResource, Code: "ROOM_FULL", Message: "room has no free seat"}
	ErrRoomClosed     = &Error{Category: CategoryResource, Code: "ROOM_CLOSED", Message: "room is closed"}
	ErrPlayerNotFound = &Error{Category: CategoryResource, Code: "PLAYER_NOT_FOUND", Message: "player is not seated in this room"}
	ErrNameTaken      = &Error{Category: CategoryValidation, Code: "NAME_TAKEN", Message: "name already used in this room"}
)

func validationError(code, format string, args ...interface{}) *Error {
	return &Error{Category: CategoryValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func stateError(code, format string, args ...interface{}) *Error {
	return &Error{Category: CategoryState, Code: code, Message: fmt.Sprintf(format, args...)}
}

func invariantError(format string, args ...interface{}) *Error {
	return &Error{Category: CategoryInvariant, Code: "INVARIANT_VIOLATION", Message: fmt.Sprintf(format, args...)}
}

// CategoryOf returns the category of a game error, or "" for other errors
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return ""
}

// IsCategory reports whether err is a game error of the given category
func IsCategory(err error, c Category) bool {
	return CategoryOf(err) == c
}
