package domain

import "errors"

// Lookup errors
var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrMemberNotFound = errors.New("member not found")
)

// Authorization errors
var (
	ErrUnauthorized = errors.New("invalid token")
	ErrNotHost      = errors.New("only host can do this")
)

// Validation errors
var (
	ErrRoomFull            = errors.New("room is full")
	ErrCapacityBelowGuests = errors.New("capacity is below current guest count")
	ErrInvalidCapacity     = errors.New("invalid capacity")
	ErrInvalidRoomName     = errors.New("invalid room name")
	ErrDisplayNameEmpty    = errors.New("display name empty")
	ErrDisplayNameTooLong  = errors.New("display name too long")
	ErrInviteCodeExhausted = errors.New("failed to generate unique code")
)

// Storage errors
var (
	ErrDuplicateInviteCode = errors.New("duplicate invite code")
	ErrDuplicateMember     = errors.New("duplicate member identity")
	ErrUnexpectedStorage   = errors.New("unexpected storage error")
)
