package domain

import "time"

type (
	RoomID     string
	InviteCode string
)

// Room is the durable room record. Capacity counts guest seats only, the host is not counted.
type Room struct {
	ID         RoomID
	Name       string
	InviteCode InviteCode
	Capacity   int
	CreatedAt  time.Time
	// Members is filled by lookups that include the member list, ordered by CreatedAt.
	Members []Member
}

// Host returns the member with role host, if any.
func (r *Room) Host() (Member, bool) {
	for _, m := range r.Members {
		if m.Role == RoleHost {
			return m, true
		}
	}
	return Member{}, false
}

// GuestCount counts non-host members.
func (r *Room) GuestCount() int {
	n := 0
	for _, m := range r.Members {
		if m.Role != RoleHost {
			n++
		}
	}
	return n
}

func (r *Room) IsFull() bool { return r.GuestCount() >= r.Capacity }

// MemberByIdentity finds a member by identity. Members without identity never match.
func (r *Room) MemberByIdentity(id Identity) (Member, bool) {
	if id == "" {
		return Member{}, false
	}
	for _, m := range r.Members {
		if m.Identity == id {
			return m, true
		}
	}
	return Member{}, false
}

func (r *Room) MemberByID(id MemberID) (Member, bool) {
	for _, m := range r.Members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// IsHostIdentity reports whether id is the verified identity of the current host.
// A host without identity never matches.
func (r *Room) IsHostIdentity(id Identity) bool {
	h, ok := r.Host()
	return ok && id != "" && h.Identity == id
}
