package app_test

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dkeye/DrawQuiz/internal/adapters/storage"
	"github.com/dkeye/DrawQuiz/internal/domain"
	"github.com/stretchr/testify/mock"
)

// fakeVerifier accepts credentials of the form "tok:<identity>".
type fakeVerifier struct {
	issued atomic.Int64
}

func (v *fakeVerifier) Verify(credential string) (domain.Identity, bool) {
	id, ok := strings.CutPrefix(credential, "tok:")
	if !ok || id == "" {
		return "", false
	}
	return domain.Identity(id), true
}

func (v *fakeVerifier) Issue() (string, domain.Identity, error) {
	id := domain.Identity(fmt.Sprintf("anon-%d", v.issued.Add(1)))
	return "tok:" + string(id), id, nil
}

func (v *fakeVerifier) IssueFor(id domain.Identity) (string, error) {
	return "tok:" + string(id), nil
}

// slowDirectory delays room reads so concurrent callers all observe the same stale room.
type slowDirectory struct {
	*storage.MemoryDirectory
	delay time.Duration
}

func (d slowDirectory) FindRoomByInviteCode(ctx context.Context, code domain.InviteCode) (domain.Room, error) {
	room, err := d.MemoryDirectory.FindRoomByInviteCode(ctx, code)
	time.Sleep(d.delay)
	return room, err
}

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) CreateRoom(ctx context.Context, room domain.Room, host domain.Member) error {
	args := m.Called(ctx, room, host)
	return args.Error(0)
}

func (m *MockDirectory) FindRoomByInviteCode(ctx context.Context, code domain.InviteCode) (domain.Room, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(domain.Room), args.Error(1)
}

func (m *MockDirectory) FindRoomByID(ctx context.Context, id domain.RoomID) (domain.Room, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Room), args.Error(1)
}

func (m *MockDirectory) UpdateRoomCapacity(ctx context.Context, id domain.RoomID, capacity int) error {
	return m.Called(ctx, id, capacity).Error(0)
}

func (m *MockDirectory) DeleteRoom(ctx context.Context, id domain.RoomID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockDirectory) CreateMember(ctx context.Context, member domain.Member) error {
	return m.Called(ctx, member).Error(0)
}

func (m *MockDirectory) FindMember(ctx context.Context, roomID domain.RoomID, id domain.Identity) (domain.Member, error) {
	args := m.Called(ctx, roomID, id)
	return args.Get(0).(domain.Member), args.Error(1)
}

func (m *MockDirectory) ListMembers(ctx context.Context, roomID domain.RoomID) ([]domain.Member, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).([]domain.Member), args.Error(1)
}

func (m *MockDirectory) UpdateMemberRole(ctx context.Context, id domain.MemberID, role domain.Role) error {
	return m.Called(ctx, id, role).Error(0)
}

func (m *MockDirectory) DeleteMember(ctx context.Context, id domain.MemberID) error {
	return m.Called(ctx, id).Error(0)
}
