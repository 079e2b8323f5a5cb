package orch

import (
	"github.com/dkeye/DrawQuiz/internal/app/game"
	"github.com/dkeye/DrawQuiz/internal/domain"
)

type memberState struct {
	ID        domain.MemberID `json:"id"`
	Name      string          `json:"name"`
	IsHost    bool            `json:"isHost"`
	Identity  domain.Identity `json:"uuid,omitempty"`
	Connected bool            `json:"connected"`
	Score     int             `json:"score"`
}

// RoomState is the full snapshot broadcast to a room group.
type RoomState struct {
	Type             string                  `json:"type"`
	RoomID           domain.InviteCode       `json:"roomId"`
	ID               domain.RoomID           `json:"id"`
	InviteCode       domain.InviteCode       `json:"inviteCode"`
	Name             string                  `json:"name"`
	Capacity         int                     `json:"capacity"`
	IsFull           bool                    `json:"isFull"`
	HostID           domain.MemberID         `json:"hostId"`
	HostName         string                  `json:"hostName,omitempty"`
	HostIdentity     domain.Identity         `json:"hostUuid,omitempty"`
	Members          []memberState           `json:"members"`
	CompletedMembers []domain.Identity       `json:"completedMembers"`
	Phase            game.Phase              `json:"phase"`
	RoundIndex       int                     `json:"roundIndex"`
	Rounds           []*game.Round           `json:"rounds"`
	Scores           map[domain.Identity]int `json:"scores"`
}

// buildRoomState merges durable room data with the runtime g. g must be locked.
func buildRoomState(room domain.Room, g *game.Room, connected map[domain.Identity]struct{}) RoomState {
	st := g.State()
	out := RoomState{
		Type:             EvtRoomState,
		RoomID:           room.InviteCode,
		ID:               room.ID,
		InviteCode:       room.InviteCode,
		Name:             room.Name,
		Capacity:         room.Capacity,
		IsFull:           room.IsFull(),
		Members:          make([]memberState, 0, len(room.Members)),
		CompletedMembers: g.Completed(),
		Phase:            st.Phase,
		RoundIndex:       st.RoundIndex,
		Rounds:           st.Rounds,
		Scores:           st.Scores,
	}
	if host, ok := room.Host(); ok {
		out.HostID = host.ID
		out.HostName = host.DisplayName
		out.HostIdentity = host.Identity
	}
	for _, m := range room.Members {
		_, online := connected[m.Identity]
		out.Members = append(out.Members, memberState{
			ID:        m.ID,
			Name:      m.DisplayName,
			IsHost:    m.IsHost(),
			Identity:  m.Identity,
			Connected: m.Identity != "" && online,
			Score:     st.Scores[m.Identity],
		})
	}
	return out
}

// players are the non-host members with a live connection in the room group.
func players(room domain.Room, connected map[domain.Identity]struct{}) []domain.Identity {
	var out []domain.Identity
	for _, m := range room.Members {
		if m.IsHost() || m.Identity == "" {
			continue
		}
		if _, ok := connected[m.Identity]; ok {
			out = append(out, m.Identity)
		}
	}
	return out
}
