package storage_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/DrawQuiz/internal/adapters/storage"
	"github.com/dkeye/DrawQuiz/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRoom(t *testing.T, d *storage.MemoryDirectory, code domain.InviteCode, at time.Time) (domain.Room, domain.Member) {
	t.Helper()
	room := domain.Room{ID: domain.RoomID("room-" + code), Name: "Quiz", InviteCode: code, Capacity: 2, CreatedAt: at}
	host := domain.Member{ID: domain.MemberID("host-" + code), RoomID: room.ID, DisplayName: "Host", Role: domain.RoleHost, Identity: "host-uuid", CreatedAt: at}
	require.NoError(t, d.CreateRoom(context.Background(), room, host))
	return room, host
}

func TestMemoryDirectory(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d := storage.NewMemoryDirectory()
	room, host := seedRoom(t, d, "ABCD1234", at)

	t.Run("CreateRoom_DuplicateCode", func(t *testing.T) {
		err := d.CreateRoom(ctx, domain.Room{ID: "other", InviteCode: "ABCD1234"}, domain.Member{ID: "x"})
		assert.ErrorIs(t, err, domain.ErrDuplicateInviteCode)
	})

	t.Run("FindRoomByInviteCode", func(t *testing.T) {
		got, err := d.FindRoomByInviteCode(ctx, "ABCD1234")
		require.NoError(t, err)
		assert.Equal(t, room.ID, got.ID)
		require.Len(t, got.Members, 1)
		assert.Equal(t, host.ID, got.Members[0].ID)
	})

	t.Run("FindRoomByInviteCode_NotFound", func(t *testing.T) {
		_, err := d.FindRoomByInviteCode(ctx, "NOPE")
		assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	})

	t.Run("CreateMember_DuplicateIdentity", func(t *testing.T) {
		err := d.CreateMember(ctx, domain.Member{ID: "dup", RoomID: room.ID, Identity: "host-uuid", CreatedAt: at})
		assert.ErrorIs(t, err, domain.ErrDuplicateMember)
	})

	t.Run("CreateMember_LegacyWithoutIdentity", func(t *testing.T) {
		require.NoError(t, d.CreateMember(ctx, domain.Member{ID: "legacy-1", RoomID: room.ID, Role: domain.RoleGuest, CreatedAt: at}))
		require.NoError(t, d.CreateMember(ctx, domain.Member{ID: "legacy-2", RoomID: room.ID, Role: domain.RoleGuest, CreatedAt: at}))
	})

	t.Run("CreateMember_RoomFull", func(t *testing.T) {
		err := d.CreateMember(ctx, domain.Member{ID: "late", RoomID: room.ID, Role: domain.RoleGuest, Identity: "late-uuid", CreatedAt: at})
		assert.ErrorIs(t, err, domain.ErrRoomFull)
		err = d.CreateMember(ctx, domain.Member{ID: "dup-full", RoomID: room.ID, Role: domain.RoleGuest, Identity: "host-uuid", CreatedAt: at})
		assert.ErrorIs(t, err, domain.ErrDuplicateMember, "rejoin of a full room still reports the existing member")
	})

	t.Run("ListMembers_OrderedByCreation", func(t *testing.T) {
		members, err := d.ListMembers(ctx, room.ID)
		require.NoError(t, err)
		ids := make([]domain.MemberID, len(members))
		for i, m := range members {
			ids[i] = m.ID
		}
		assert.Equal(t, []domain.MemberID{host.ID, "legacy-1", "legacy-2"}, ids)
	})

	t.Run("FindMember", func(t *testing.T) {
		m, err := d.FindMember(ctx, room.ID, "host-uuid")
		require.NoError(t, err)
		assert.Equal(t, host.ID, m.ID)
		_, err = d.FindMember(ctx, room.ID, "")
		assert.ErrorIs(t, err, domain.ErrMemberNotFound)
	})

	t.Run("UpdateMemberRole", func(t *testing.T) {
		require.NoError(t, d.UpdateMemberRole(ctx, "legacy-1", domain.RoleHost))
		m, err := d.FindRoomByID(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleHost, m.Members[1].Role)
		assert.ErrorIs(t, d.UpdateMemberRole(ctx, "ghost", domain.RoleHost), domain.ErrMemberNotFound)
	})

	t.Run("DeleteMember", func(t *testing.T) {
		require.NoError(t, d.DeleteMember(ctx, "legacy-2"))
		assert.ErrorIs(t, d.DeleteMember(ctx, "legacy-2"), domain.ErrMemberNotFound)
	})

	t.Run("UpdateRoomCapacity", func(t *testing.T) {
		require.NoError(t, d.UpdateRoomCapacity(ctx, room.ID, 5))
		got, err := d.FindRoomByID(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.Capacity)
	})

	t.Run("Archive", func(t *testing.T) {
		require.NoError(t, d.SaveSnapshot(ctx, "ABCD1234", 0, "guest", []byte(`{"pngBase64":"x"}`)))
		b, ok := d.Snapshot("ABCD1234", 0, "guest")
		require.True(t, ok)
		assert.JSONEq(t, `{"pngBase64":"x"}`, string(b))
		require.NoError(t, d.SaveStroke(ctx, "ABCD1234", "guest", []byte(`{}`)))
	})

	t.Run("DeleteRoom", func(t *testing.T) {
		require.NoError(t, d.DeleteRoom(ctx, room.ID))
		_, err := d.FindRoomByInviteCode(ctx, "ABCD1234")
		assert.ErrorIs(t, err, domain.ErrRoomNotFound)
		members, err := d.ListMembers(ctx, room.ID)
		require.NoError(t, err)
		assert.Empty(t, members)
	})
}

func TestMemoryDirectory_ConcurrentGuestsRespectCapacity(t *testing.T) {
	ctx := context.Background()
	d := storage.NewMemoryDirectory()
	room, _ := seedRoom(t, d, "RACE0001", time.Now())

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := d.CreateMember(ctx, domain.Member{
				ID:       domain.MemberID(fmt.Sprintf("guest-%d", i)),
				RoomID:   room.ID,
				Role:     domain.RoleGuest,
				Identity: domain.Identity(fmt.Sprintf("guest-uuid-%d", i)),
			})
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	admitted := 0
	for _, err := range errs {
		if err == nil {
			admitted++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrRoomFull)
	}
	assert.Equal(t, room.Capacity, admitted)
	got, err := d.FindRoomByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, room.Capacity, got.GuestCount())
}
