package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/DrawQuiz/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// "23505" is the PostgreSQL error code for unique_violation
const uniqueViolation = "23505"

const (
	inviteCodeConstraint     = "rooms_invite_code_key"
	memberIdentityConstraint = "members_room_identity_key"
)

type PostgresDirectory struct {
	pool *pgxpool.Pool
}

func NewPostgresDirectory(ctx context.Context, connString string) (*PostgresDirectory, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresDirectory{pool: pool}, nil
}

func (p *PostgresDirectory) Close() { p.pool.Close() }

func wrap(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrUnexpectedStorage, err)
}

func uniqueConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

const insertMember = `INSERT INTO members (id, room_id, display_name, role, identity, created_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`

func (p *PostgresDirectory) CreateRoom(ctx context.Context, room domain.Room, host domain.Member) error {
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO rooms (id, name, invite_code, capacity, created_at) VALUES ($1, $2, $3, $4, $5)`,
			room.ID, room.Name, room.InviteCode, room.Capacity, room.CreatedAt,
		); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, insertMember,
			host.ID, room.ID, host.DisplayName, host.Role, host.Identity, host.CreatedAt)
		return err
	})
	if err != nil {
		if name, ok := uniqueConstraint(err); ok && name == inviteCodeConstraint {
			return domain.ErrDuplicateInviteCode
		}
		return wrap(err)
	}
	return nil
}

func (p *PostgresDirectory) findRoom(ctx context.Context, where string, arg any) (domain.Room, error) {
	var room domain.Room
	row := p.pool.QueryRow(ctx,
		`SELECT id::text, name, invite_code, capacity, created_at FROM rooms WHERE `+where+` = $1`, arg)
	if err := row.Scan(&room.ID, &room.Name, &room.InviteCode, &room.Capacity, &room.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Room{}, domain.ErrRoomNotFound
		}
		return domain.Room{}, wrap(err)
	}
	members, err := p.ListMembers(ctx, room.ID)
	if err != nil {
		return domain.Room{}, err
	}
	room.Members = members
	return room, nil
}

func (p *PostgresDirectory) FindRoomByInviteCode(ctx context.Context, code domain.InviteCode) (domain.Room, error) {
	return p.findRoom(ctx, "invite_code", code)
}

func (p *PostgresDirectory) FindRoomByID(ctx context.Context, id domain.RoomID) (domain.Room, error) {
	return p.findRoom(ctx, "id", id)
}

func (p *PostgresDirectory) UpdateRoomCapacity(ctx context.Context, id domain.RoomID, capacity int) error {
	tag, err := p.pool.Exec(ctx, `UPDATE rooms SET capacity = $2 WHERE id = $1`, id, capacity)
	if err != nil {
		return wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

func (p *PostgresDirectory) DeleteRoom(ctx context.Context, id domain.RoomID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

// errMemberExists ends the CreateMember transaction when the identity is already in the room.
var errMemberExists = errors.New("member exists")

// CreateMember locks the room row so concurrent guest inserts see each other's counts.
func (p *PostgresDirectory) CreateMember(ctx context.Context, m domain.Member) error {
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		var capacity int
		if err := tx.QueryRow(ctx, `SELECT capacity FROM rooms WHERE id = $1 FOR UPDATE`, m.RoomID).Scan(&capacity); err != nil {
			return err
		}
		if m.Identity != "" {
			var exists bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM members WHERE room_id = $1 AND identity = $2)`, m.RoomID, m.Identity,
			).Scan(&exists); err != nil {
				return err
			}
			if exists {
				return errMemberExists
			}
		}
		if !m.IsHost() {
			var guests int
			if err := tx.QueryRow(ctx,
				`SELECT count(*) FROM members WHERE room_id = $1 AND role <> $2`, m.RoomID, domain.RoleHost,
			).Scan(&guests); err != nil {
				return err
			}
			if guests >= capacity {
				return domain.ErrRoomFull
			}
		}
		_, err := tx.Exec(ctx, insertMember, m.ID, m.RoomID, m.DisplayName, m.Role, m.Identity, m.CreatedAt)
		return err
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return domain.ErrRoomNotFound
	case errors.Is(err, errMemberExists):
		return domain.ErrDuplicateMember
	case errors.Is(err, domain.ErrRoomFull):
		return err
	}
	if name, ok := uniqueConstraint(err); ok && name == memberIdentityConstraint {
		return domain.ErrDuplicateMember
	}
	return wrap(err)
}

const selectMember = `SELECT id::text, room_id::text, display_name, role, COALESCE(identity, ''), created_at FROM members`

func scanMember(row pgx.Row) (domain.Member, error) {
	var m domain.Member
	err := row.Scan(&m.ID, &m.RoomID, &m.DisplayName, &m.Role, &m.Identity, &m.CreatedAt)
	return m, err
}

func (p *PostgresDirectory) FindMember(ctx context.Context, roomID domain.RoomID, id domain.Identity) (domain.Member, error) {
	m, err := scanMember(p.pool.QueryRow(ctx, selectMember+` WHERE room_id = $1 AND identity = $2`, roomID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Member{}, domain.ErrMemberNotFound
		}
		return domain.Member{}, wrap(err)
	}
	return m, nil
}

func (p *PostgresDirectory) ListMembers(ctx context.Context, roomID domain.RoomID) ([]domain.Member, error) {
	rows, err := p.pool.Query(ctx, selectMember+` WHERE room_id = $1 ORDER BY created_at ASC, seq ASC`, roomID)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	members := make([]domain.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, wrap(err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(err)
	}
	return members, nil
}

func (p *PostgresDirectory) UpdateMemberRole(ctx context.Context, id domain.MemberID, role domain.Role) error {
	tag, err := p.pool.Exec(ctx, `UPDATE members SET role = $2 WHERE id = $1`, id, role)
	if err != nil {
		return wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func (p *PostgresDirectory) DeleteMember(ctx context.Context, id domain.MemberID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func (p *PostgresDirectory) SaveSnapshot(ctx context.Context, code domain.InviteCode, round int, player domain.Identity, payload []byte) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO snapshots (room_code, round, player, payload, updated_at) VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (room_code, round, player) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		code, round, player, payload)
	if err != nil {
		return wrap(err)
	}
	return nil
}

func (p *PostgresDirectory) SaveStroke(ctx context.Context, code domain.InviteCode, author domain.Identity, stroke []byte) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO strokes (room_code, author, stroke) VALUES ($1, $2, $3)`, code, author, stroke)
	if err != nil {
		return wrap(err)
	}
	return nil
}
