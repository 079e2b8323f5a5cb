package domain

import "time"

type MemberID string

type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// Member represents user's participation in a room.
// Identity is empty for legacy guests that joined without one.
type Member struct {
	ID          MemberID
	RoomID      RoomID
	DisplayName string
	Role        Role
	Identity    Identity
	CreatedAt   time.Time
}

func (m Member) IsHost() bool { return m.Role == RoleHost }
