package core

import (
	"context"

	"github.com/dkeye/DrawQuiz/internal/domain"
)

// Directory is the durable record of rooms and memberships.
// Implementations return domain.ErrRoomNotFound / domain.ErrMemberNotFound on misses.
type Directory interface {
	// CreateRoom stores the room and its host member atomically.
	// Returns domain.ErrDuplicateInviteCode when the invite code is taken.
	CreateRoom(ctx context.Context, room domain.Room, host domain.Member) error
	// FindRoomByInviteCode returns the room with its members ordered by creation time.
	FindRoomByInviteCode(ctx context.Context, code domain.InviteCode) (domain.Room, error)
	FindRoomByID(ctx context.Context, id domain.RoomID) (domain.Room, error)
	UpdateRoomCapacity(ctx context.Context, id domain.RoomID, capacity int) error
	DeleteRoom(ctx context.Context, id domain.RoomID) error

	// CreateMember returns domain.ErrDuplicateMember when the identity already has a member in the room
	// and domain.ErrRoomFull when a guest would exceed the room capacity. Both checks are atomic with the insert.
	CreateMember(ctx context.Context, m domain.Member) error
	FindMember(ctx context.Context, roomID domain.RoomID, id domain.Identity) (domain.Member, error)
	ListMembers(ctx context.Context, roomID domain.RoomID) ([]domain.Member, error)
	UpdateMemberRole(ctx context.Context, id domain.MemberID, role domain.Role) error
	DeleteMember(ctx context.Context, id domain.MemberID) error
}

// Archive receives best-effort copies of submitted drawings and strokes.
type Archive interface {
	SaveSnapshot(ctx context.Context, code domain.InviteCode, round int, player domain.Identity, payload []byte) error
	SaveStroke(ctx context.Context, code domain.InviteCode, author domain.Identity, stroke []byte) error
}
