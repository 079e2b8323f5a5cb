package domain

// MemberView is the read-only member projection sent to clients.
type MemberView struct {
	ID       MemberID `json:"id"`
	Name     string   `json:"name"`
	IsHost   bool     `json:"isHost"`
	Identity Identity `json:"uuid,omitempty"`
}

// RoomView is the room snapshot returned by getRoom and merged into roomState.
type RoomView struct {
	ID           RoomID       `json:"id"`
	InviteCode   InviteCode   `json:"inviteCode"`
	Name         string       `json:"name"`
	Capacity     int          `json:"capacity"`
	IsFull       bool         `json:"isFull"`
	HostID       MemberID     `json:"hostId"`
	HostName     string       `json:"hostName,omitempty"`
	HostIdentity Identity     `json:"hostUuid,omitempty"`
	Members      []MemberView `json:"members"`
}

func NewRoomView(r Room) RoomView {
	v := RoomView{
		ID:         r.ID,
		InviteCode: r.InviteCode,
		Name:       r.Name,
		Capacity:   r.Capacity,
		IsFull:     r.IsFull(),
		Members:    make([]MemberView, 0, len(r.Members)),
	}
	for _, m := range r.Members {
		if m.IsHost() {
			v.HostID = m.ID
			v.HostName = m.DisplayName
			v.HostIdentity = m.Identity
		}
		v.Members = append(v.Members, MemberView{
			ID:       m.ID,
			Name:     m.DisplayName,
			IsHost:   m.IsHost(),
			Identity: m.Identity,
		})
	}
	return v
}
