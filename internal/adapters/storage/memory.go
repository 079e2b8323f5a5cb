package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/dkeye/DrawQuiz/internal/domain"
)

type memberRow struct {
	domain.Member
	seq uint64
}

type snapshotKey struct {
	code   domain.InviteCode
	round  int
	player domain.Identity
}

// MemoryDirectory is a process-local Directory and Archive for dev mode and tests.
type MemoryDirectory struct {
	mu        sync.RWMutex
	seq       uint64
	rooms     map[domain.RoomID]domain.Room
	byCode    map[domain.InviteCode]domain.RoomID
	members   map[domain.MemberID]memberRow
	snapshots map[snapshotKey][]byte
	strokes   map[domain.InviteCode]int
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		rooms:     make(map[domain.RoomID]domain.Room),
		byCode:    make(map[domain.InviteCode]domain.RoomID),
		members:   make(map[domain.MemberID]memberRow),
		snapshots: make(map[snapshotKey][]byte),
		strokes:   make(map[domain.InviteCode]int),
	}
}

func (d *MemoryDirectory) CreateRoom(_ context.Context, room domain.Room, host domain.Member) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, taken := d.byCode[room.InviteCode]; taken {
		return domain.ErrDuplicateInviteCode
	}
	room.Members = nil
	d.rooms[room.ID] = room
	d.byCode[room.InviteCode] = room.ID
	d.insertMember(host)
	return nil
}

func (d *MemoryDirectory) insertMember(m domain.Member) {
	d.seq++
	d.members[m.ID] = memberRow{Member: m, seq: d.seq}
}

func (d *MemoryDirectory) FindRoomByInviteCode(ctx context.Context, code domain.InviteCode) (domain.Room, error) {
	d.mu.RLock()
	id, ok := d.byCode[code]
	d.mu.RUnlock()
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return d.FindRoomByID(ctx, id)
}

func (d *MemoryDirectory) FindRoomByID(_ context.Context, id domain.RoomID) (domain.Room, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[id]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	room.Members = d.listMembers(id)
	return room, nil
}

func (d *MemoryDirectory) UpdateRoomCapacity(_ context.Context, id domain.RoomID, capacity int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[id]
	if !ok {
		return domain.ErrRoomNotFound
	}
	room.Capacity = capacity
	d.rooms[id] = room
	return nil
}

func (d *MemoryDirectory) DeleteRoom(_ context.Context, id domain.RoomID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[id]
	if !ok {
		return domain.ErrRoomNotFound
	}
	delete(d.rooms, id)
	delete(d.byCode, room.InviteCode)
	for mid, m := range d.members {
		if m.RoomID == id {
			delete(d.members, mid)
		}
	}
	return nil
}

func (d *MemoryDirectory) CreateMember(_ context.Context, m domain.Member) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[m.RoomID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	guests := 0
	for _, row := range d.members {
		if row.RoomID != m.RoomID {
			continue
		}
		if m.Identity != "" && row.Identity == m.Identity {
			return domain.ErrDuplicateMember
		}
		if !row.IsHost() {
			guests++
		}
	}
	if !m.IsHost() && guests >= room.Capacity {
		return domain.ErrRoomFull
	}
	d.insertMember(m)
	return nil
}

func (d *MemoryDirectory) FindMember(_ context.Context, roomID domain.RoomID, id domain.Identity) (domain.Member, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if id == "" {
		return domain.Member{}, domain.ErrMemberNotFound
	}
	for _, row := range d.members {
		if row.RoomID == roomID && row.Identity == id {
			return row.Member, nil
		}
	}
	return domain.Member{}, domain.ErrMemberNotFound
}

func (d *MemoryDirectory) ListMembers(_ context.Context, roomID domain.RoomID) ([]domain.Member, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.listMembers(roomID), nil
}

// listMembers orders by creation time, ties broken by insertion order.
func (d *MemoryDirectory) listMembers(roomID domain.RoomID) []domain.Member {
	rows := make([]memberRow, 0)
	for _, row := range d.members {
		if row.RoomID == roomID {
			rows = append(rows, row)
		}
	}
	slices.SortFunc(rows, func(a, b memberRow) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.seq < b.seq {
			return -1
		}
		return 1
	})
	out := make([]domain.Member, len(rows))
	for i, row := range rows {
		out[i] = row.Member
	}
	return out
}

func (d *MemoryDirectory) UpdateMemberRole(_ context.Context, id domain.MemberID, role domain.Role) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	row, ok := d.members[id]
	if !ok {
		return domain.ErrMemberNotFound
	}
	row.Role = role
	d.members[id] = row
	return nil
}

func (d *MemoryDirectory) DeleteMember(_ context.Context, id domain.MemberID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.members[id]; !ok {
		return domain.ErrMemberNotFound
	}
	delete(d.members, id)
	return nil
}

func (d *MemoryDirectory) SaveSnapshot(_ context.Context, code domain.InviteCode, round int, player domain.Identity, payload []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snapshots[snapshotKey{code, round, player}] = slices.Clone(payload)
	return nil
}

func (d *MemoryDirectory) SaveStroke(_ context.Context, code domain.InviteCode, _ domain.Identity, _ []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.strokes[code]++
	return nil
}

// Snapshot returns an archived drawing.
func (d *MemoryDirectory) Snapshot(code domain.InviteCode, round int, player domain.Identity) ([]byte, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.snapshots[snapshotKey{code, round, player}]
	return b, ok
}
