// Package game holds the per-room game state machine and its in-memory store.
// Nothing here performs I/O; callers serialize access per room.
package game

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dkeye/DrawQuiz/internal/domain"
)

type Phase string

const (
	PhaseLobby   Phase = "LOBBY"
	PhaseInRound Phase = "IN_ROUND"
	PhaseLocked  Phase = "LOCKED"
	PhaseReveal  Phase = "REVEAL"
	PhaseResult  Phase = "RESULT"
)

var (
	ErrInvalidTransition = errors.New("invalid phase transition")
	ErrNotAccepting      = errors.New("round is not accepting submissions")
)

// Snapshot is one player's drawing for a round.
type Snapshot struct {
	PNGBase64   string          `json:"pngBase64,omitempty"`
	StrokesJSON json.RawMessage `json:"strokesJson,omitempty"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (s Snapshot) Empty() bool {
	return s.PNGBase64 == "" && len(s.StrokesJSON) == 0
}

type Round struct {
	Index      int                           `json:"index"`
	Snapshots  map[domain.Identity]*Snapshot `json:"snapshots"`
	Judgments  map[domain.Identity]Judgment  `json:"judgments"`
	AllCorrect *bool                         `json:"allCorrect,omitempty"`
}

func newRound(index int) *Round {
	return &Round{
		Index:     index,
		Snapshots: make(map[domain.Identity]*Snapshot),
		Judgments: make(map[domain.Identity]Judgment),
	}
}

// State is the game of one room.
type State struct {
	Phase      Phase                   `json:"phase"`
	RoundIndex int                     `json:"roundIndex"`
	Rounds     []*Round                `json:"rounds"`
	Scores     map[domain.Identity]int `json:"scores"`
}

func NewState() *State {
	return &State{
		Phase:  PhaseLobby,
		Rounds: []*Round{newRound(0)},
		Scores: make(map[domain.Identity]int),
	}
}

// Current returns the round at RoundIndex, creating missing records up to it.
func (s *State) Current() *Round {
	for len(s.Rounds) <= s.RoundIndex {
		s.Rounds = append(s.Rounds, newRound(len(s.Rounds)))
	}
	return s.Rounds[s.RoundIndex]
}

// Start moves LOBBY to IN_ROUND.
func (s *State) Start() error {
	if s.Phase != PhaseLobby {
		return ErrInvalidTransition
	}
	s.Current()
	s.Phase = PhaseInRound
	return nil
}

// Lock moves IN_ROUND to LOCKED.
func (s *State) Lock() error {
	if s.Phase != PhaseInRound {
		return ErrInvalidTransition
	}
	s.Phase = PhaseLocked
	return nil
}

// Open moves LOCKED to REVEAL and scores the current round for players.
// allCorrect holds only when there is at least one player and every one was judged Correct.
func (s *State) Open(players []domain.Identity) (allCorrect bool, err error) {
	if s.Phase != PhaseLocked {
		return false, ErrInvalidTransition
	}
	r := s.Current()
	allCorrect = len(players) > 0
	for _, p := range players {
		j := r.Judgments[p]
		if j == Correct {
			s.Scores[p]++
			continue
		}
		if _, ok := s.Scores[p]; !ok {
			s.Scores[p] = 0
		}
		allCorrect = false
	}
	r.AllCorrect = &allCorrect
	s.Phase = PhaseReveal
	return allCorrect, nil
}

// Next moves REVEAL to IN_ROUND on a fresh round.
func (s *State) Next() error {
	if s.Phase != PhaseReveal {
		return ErrInvalidTransition
	}
	s.RoundIndex++
	s.Current()
	s.Phase = PhaseInRound
	return nil
}

// End moves REVEAL to RESULT.
func (s *State) End() error {
	if s.Phase != PhaseReveal {
		return ErrInvalidTransition
	}
	s.Phase = PhaseResult
	return nil
}

func (s *State) CanRestart() bool { return s.Phase == PhaseResult }

// Submit stores a drawing for player. Late submissions during LOCKED are accepted.
func (s *State) Submit(player domain.Identity, snap Snapshot, now time.Time) error {
	if s.Phase != PhaseInRound && s.Phase != PhaseLocked {
		return ErrNotAccepting
	}
	snap.UpdatedAt = now
	s.Current().Snapshots[player] = &snap
	return nil
}

// Judge records the host's verdict for player in the current round without touching the phase.
func (s *State) Judge(player domain.Identity, j Judgment) {
	s.Current().Judgments[player] = j
}
