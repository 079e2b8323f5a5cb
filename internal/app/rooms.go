package app

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dkeye/DrawQuiz/internal/core"
	"github.com/dkeye/DrawQuiz/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultCapacity           = 8
	DefaultMaxCapacity        = 50
	DefaultInviteCodeAttempts = 5
	defaultHostName           = "Host"
)

type RoomOptions struct {
	DefaultCapacity    int
	MaxCapacity        int
	InviteCodeAttempts int
}

// RoomService is the room lifecycle: create, fetch, join, leave, kick, update.
// Every committed mutation publishes a room-changed notification.
type RoomService struct {
	dir      core.Directory
	verifier core.Verifier
	events   *Broker
	codes    CodeGenerator
	opts     RoomOptions
	now      func() time.Time
}

func NewRoomService(dir core.Directory, verifier core.Verifier, events *Broker, codes CodeGenerator, opts RoomOptions) *RoomService {
	if opts.DefaultCapacity <= 0 {
		opts.DefaultCapacity = DefaultCapacity
	}
	if opts.MaxCapacity <= 0 {
		opts.MaxCapacity = DefaultMaxCapacity
	}
	if opts.InviteCodeAttempts <= 0 {
		opts.InviteCodeAttempts = DefaultInviteCodeAttempts
	}
	if codes == nil {
		codes = RandomInviteCodes(DefaultInviteCodeLength)
	}
	return &RoomService{dir: dir, verifier: verifier, events: events, codes: codes, opts: opts, now: time.Now}
}

type CreateRoomInput struct {
	Name     string
	Capacity int
	HostName string
}

type CreateRoomResult struct {
	RoomID       domain.RoomID     `json:"roomId"`
	HostMemberID domain.MemberID   `json:"hostMemberId"`
	InviteCode   domain.InviteCode `json:"inviteCode"`
}

type JoinResult struct {
	MemberID       domain.MemberID `json:"memberId"`
	MemberIdentity domain.Identity `json:"memberUuid"`
	IsHost         bool            `json:"isHost"`
	// Token is set when the service synthesized the identity.
	Token string `json:"token,omitempty"`
}

type KickInput struct {
	MemberID domain.MemberID
	Identity domain.Identity
}

type KickResult struct {
	Success        bool            `json:"success"`
	KickedMemberID domain.MemberID `json:"kicked"`
}

func (s *RoomService) identity(credential string) (domain.Identity, error) {
	if credential == "" {
		return "", domain.ErrUnauthorized
	}
	id, ok := s.verifier.Verify(credential)
	if !ok {
		return "", domain.ErrUnauthorized
	}
	return id, nil
}

func (s *RoomService) capacity(c int) (int, error) {
	if c == 0 {
		return s.opts.DefaultCapacity, nil
	}
	if c < 1 || c > s.opts.MaxCapacity {
		return 0, domain.ErrInvalidCapacity
	}
	return c, nil
}

func (s *RoomService) Create(ctx context.Context, in CreateRoomInput, credential string) (CreateRoomResult, error) {
	id, err := s.identity(credential)
	if err != nil {
		return CreateRoomResult{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || utf8.RuneCountInString(name) > domain.MaxRoomNameLen {
		return CreateRoomResult{}, domain.ErrInvalidRoomName
	}
	capacity, err := s.capacity(in.Capacity)
	if err != nil {
		return CreateRoomResult{}, err
	}
	hostName := defaultHostName
	if strings.TrimSpace(in.HostName) != "" {
		if hostName, err = domain.NormalizeDisplayName(in.HostName); err != nil {
			return CreateRoomResult{}, err
		}
	}

	for attempt := 1; attempt <= s.opts.InviteCodeAttempts; attempt++ {
		now := s.now()
		room := domain.Room{
			ID:         domain.RoomID(uuid.NewString()),
			Name:       name,
			InviteCode: s.codes(),
			Capacity:   capacity,
			CreatedAt:  now,
		}
		host := domain.Member{
			ID:          domain.MemberID(uuid.NewString()),
			RoomID:      room.ID,
			DisplayName: hostName,
			Role:        domain.RoleHost,
			Identity:    id,
			CreatedAt:   now,
		}
		err := s.dir.CreateRoom(ctx, room, host)
		if errors.Is(err, domain.ErrDuplicateInviteCode) {
			log.Warn().Str("module", "app.rooms").Str("room", string(room.InviteCode)).Int("attempt", attempt).Msg("invite code collision")
			continue
		}
		if err != nil {
			return CreateRoomResult{}, err
		}
		log.Info().Str("module", "app.rooms").Str("room", string(room.InviteCode)).Str("identity", string(id)).Msg("room created")
		s.events.Publish(room.InviteCode)
		return CreateRoomResult{RoomID: room.ID, HostMemberID: host.ID, InviteCode: room.InviteCode}, nil
	}
	return CreateRoomResult{}, domain.ErrInviteCodeExhausted
}

// Room resolves a room with its members by invite code, falling back to the durable id.
func (s *RoomService) Room(ctx context.Context, key string) (domain.Room, error) {
	room, err := s.dir.FindRoomByInviteCode(ctx, domain.InviteCode(key))
	if errors.Is(err, domain.ErrRoomNotFound) && uuid.Validate(key) == nil {
		return s.dir.FindRoomByID(ctx, domain.RoomID(key))
	}
	return room, err
}

func (s *RoomService) Get(ctx context.Context, key string) (domain.RoomView, error) {
	room, err := s.Room(ctx, key)
	if err != nil {
		return domain.RoomView{}, err
	}
	return domain.NewRoomView(room), nil
}

// Join adds a guest. Without a credential a fresh anonymous identity is issued.
// Joining again with the same identity returns the existing member.
func (s *RoomService) Join(ctx context.Context, code domain.InviteCode, displayName string, credential string) (JoinResult, error) {
	room, err := s.dir.FindRoomByInviteCode(ctx, code)
	if err != nil {
		return JoinResult{}, err
	}
	name, err := domain.NormalizeDisplayName(displayName)
	if err != nil {
		return JoinResult{}, err
	}

	var (
		id    domain.Identity
		token string
	)
	if credential != "" {
		if id, err = s.identity(credential); err != nil {
			return JoinResult{}, err
		}
	} else if token, id, err = s.verifier.Issue(); err != nil {
		return JoinResult{}, err
	}

	if m, ok := room.MemberByIdentity(id); ok {
		log.Info().Str("module", "app.rooms").Str("room", string(code)).Str("identity", string(id)).Msg("rejoin")
		return JoinResult{MemberID: m.ID, MemberIdentity: id, IsHost: m.IsHost(), Token: token}, nil
	}
	// Fast path only. CreateMember enforces capacity atomically.
	if room.IsFull() {
		return JoinResult{}, domain.ErrRoomFull
	}

	m := domain.Member{
		ID:          domain.MemberID(uuid.NewString()),
		RoomID:      room.ID,
		DisplayName: name,
		Role:        domain.RoleGuest,
		Identity:    id,
		CreatedAt:   s.now(),
	}
	err = s.dir.CreateMember(ctx, m)
	if errors.Is(err, domain.ErrDuplicateMember) {
		existing, ferr := s.dir.FindMember(ctx, room.ID, id)
		if ferr != nil {
			return JoinResult{}, ferr
		}
		return JoinResult{MemberID: existing.ID, MemberIdentity: id, IsHost: existing.IsHost(), Token: token}, nil
	}
	if err != nil {
		return JoinResult{}, err
	}
	log.Info().Str("module", "app.rooms").Str("room", string(code)).Str("identity", string(id)).Msg("member joined")
	s.events.Publish(code)
	return JoinResult{MemberID: m.ID, MemberIdentity: id, Token: token}, nil
}

func (s *RoomService) Leave(ctx context.Context, code domain.InviteCode, credential string) error {
	id, err := s.identity(credential)
	if err != nil {
		return err
	}
	return s.LeaveByIdentity(ctx, code, id)
}

// LeaveByIdentity removes the identity's member and hands the host role over if needed.
func (s *RoomService) LeaveByIdentity(ctx context.Context, code domain.InviteCode, id domain.Identity) error {
	room, err := s.dir.FindRoomByInviteCode(ctx, code)
	if err != nil {
		return err
	}
	m, err := s.dir.FindMember(ctx, room.ID, id)
	if err != nil {
		return err
	}
	if err := s.removeMember(ctx, room, m); err != nil {
		return err
	}
	log.Info().Str("module", "app.rooms").Str("room", string(code)).Str("identity", string(id)).Msg("member left")
	s.events.Publish(code)
	return nil
}

// Kick lets the host remove a member, resolved by identity first and member id second.
func (s *RoomService) Kick(ctx context.Context, code domain.InviteCode, in KickInput, credential string) (KickResult, error) {
	caller, err := s.identity(credential)
	if err != nil {
		return KickResult{}, err
	}
	room, err := s.dir.FindRoomByInviteCode(ctx, code)
	if err != nil {
		return KickResult{}, err
	}
	if !room.IsHostIdentity(caller) {
		return KickResult{}, domain.ErrNotHost
	}
	target, ok := room.MemberByIdentity(in.Identity)
	if !ok && in.MemberID != "" {
		target, ok = room.MemberByID(in.MemberID)
	}
	if !ok {
		return KickResult{}, domain.ErrMemberNotFound
	}
	if err := s.removeMember(ctx, room, target); err != nil {
		return KickResult{}, err
	}
	log.Info().Str("module", "app.rooms").Str("room", string(code)).Str("member", string(target.ID)).Msg("member kicked")
	s.events.Publish(code)
	return KickResult{Success: true, KickedMemberID: target.ID}, nil
}

func (s *RoomService) Update(ctx context.Context, code domain.InviteCode, capacity int, credential string) error {
	caller, err := s.identity(credential)
	if err != nil {
		return err
	}
	room, err := s.dir.FindRoomByInviteCode(ctx, code)
	if err != nil {
		return err
	}
	if !room.IsHostIdentity(caller) {
		return domain.ErrNotHost
	}
	if capacity < 1 || capacity > s.opts.MaxCapacity {
		return domain.ErrInvalidCapacity
	}
	if capacity < room.GuestCount() {
		return domain.ErrCapacityBelowGuests
	}
	if err := s.dir.UpdateRoomCapacity(ctx, room.ID, capacity); err != nil {
		return err
	}
	log.Info().Str("module", "app.rooms").Str("room", string(code)).Int("capacity", capacity).Msg("room updated")
	s.events.Publish(code)
	return nil
}

// removeMember deletes m, then deletes the room when empty or promotes the
// earliest remaining member when nobody holds the host role.
// A member already removed by a concurrent leave/kick is not an error.
func (s *RoomService) removeMember(ctx context.Context, room domain.Room, m domain.Member) error {
	err := s.dir.DeleteMember(ctx, m.ID)
	if errors.Is(err, domain.ErrMemberNotFound) {
		log.Warn().Str("module", "app.rooms").Str("member", string(m.ID)).Msg("member already removed")
	} else if err != nil {
		return err
	}

	rest, err := s.dir.ListMembers(ctx, room.ID)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		log.Info().Str("module", "app.rooms").Str("room", string(room.InviteCode)).Msg("last member left, deleting room")
		if err := s.dir.DeleteRoom(ctx, room.ID); err != nil && !errors.Is(err, domain.ErrRoomNotFound) {
			return err
		}
		return nil
	}
	for _, r := range rest {
		if r.IsHost() {
			return nil
		}
	}
	next := rest[0]
	if err := s.dir.UpdateMemberRole(ctx, next.ID, domain.RoleHost); err != nil {
		return err
	}
	log.Info().Str("module", "app.rooms").Str("room", string(room.InviteCode)).Str("member", string(next.ID)).Msg("host handed over")
	return nil
}
