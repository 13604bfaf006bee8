// Package storage keeps room, control and user-access records in sqlite.
package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Huddle/internal/domain"
)

type Store struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a sqlite DB file.
// Use ":memory:" or a temp file in tests.
func NewSQLiteStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection: a :memory: database exists per connection
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	pragmas := []string{
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA synchronous = NORMAL;`,
		`PRAGMA foreign_keys = ON;`,
		`PRAGMA busy_timeout = 5000;`,
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	s := &Store{db: db}
	if err := s.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

// Migrate creates the tables. This is idempotent.
func (s *Store) Migrate() error {
	const sqlStmt = `
CREATE TABLE IF NOT EXISTS room (
  room_id TEXT PRIMARY KEY,
  hosts TEXT NOT NULL, -- json array of user ids
  created_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS room_control (
  room_id TEXT PRIMARY KEY REFERENCES room(room_id) ON DELETE CASCADE,
  host_management INTEGER NOT NULL DEFAULT 0,
  allow_share_screen INTEGER NOT NULL DEFAULT 1,
  allow_send_chat INTEGER NOT NULL DEFAULT 1,
  allow_reaction INTEGER NOT NULL DEFAULT 1,
  allow_microphone INTEGER NOT NULL DEFAULT 1,
  allow_video INTEGER NOT NULL DEFAULT 1,
  require_host INTEGER NOT NULL DEFAULT 0,
  access TEXT NOT NULL DEFAULT 'trusted'
);

CREATE TABLE IF NOT EXISTS user_access (
  user_id TEXT PRIMARY KEY,
  require_host INTEGER NOT NULL DEFAULT 0,
  access TEXT NOT NULL DEFAULT 'trusted'
);
`
	if _, err := s.db.Exec(sqlStmt); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const letters = "abcdefghijklmnopqrstuvwxyz"

func randomLetters(n int) (string, error) {
	b := make([]byte, n)
	for i := range b {
		k, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		b[i] = letters[k.Int64()]
	}
	return string(b), nil
}

// NewRoomID returns an id shaped like "abc-defg-hij".
func NewRoomID() (domain.RoomID, error) {
	parts := make([]string, 0, 3)
	for _, n := range []int{3, 4, 3} {
		p, err := randomLetters(n)
		if err != nil {
			return "", err
		}
		parts = append(parts, p)
	}
	return domain.RoomID(parts[0] + "-" + parts[1] + "-" + parts[2]), nil
}

// CreateRoom stores a new room hosted by uid. The control record copies
// the creator's saved access preferences.
func (s *Store) CreateRoom(ctx context.Context, uid domain.UserID) (domain.Room, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Room{}, fmt.Errorf("create room: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id domain.RoomID
	for {
		id, err = NewRoomID()
		if err != nil {
			return domain.Room{}, fmt.Errorf("create room id: %w", err)
		}
		var exists int
		err = tx.QueryRowContext(ctx, `SELECT 1 FROM room WHERE room_id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			break
		}
		if err != nil {
			return domain.Room{}, fmt.Errorf("create room id: %w", err)
		}
	}

	hosts := []domain.UserID{uid}
	hostsJSON, err := json.Marshal(hosts)
	if err != nil {
		return domain.Room{}, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO room (room_id, hosts) VALUES (?, ?)`, id, string(hostsJSON)); err != nil {
		return domain.Room{}, fmt.Errorf("insert room: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO user_access (user_id) VALUES (?)`, uid); err != nil {
		return domain.Room{}, fmt.Errorf("insert user access: %w", err)
	}
	control := domain.DefaultControl()
	var requireHost bool
	var access string
	if err := tx.QueryRowContext(ctx, `SELECT require_host, access FROM user_access WHERE user_id = ?`, uid).
		Scan(&requireHost, &access); err != nil {
		return domain.Room{}, fmt.Errorf("read user access: %w", err)
	}
	control.RequireHost = requireHost
	control.Access = domain.Access(access)

	if err := writeControl(ctx, tx, id, control); err != nil {
		return domain.Room{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Room{}, fmt.Errorf("commit room: %w", err)
	}
	log.Info().Str("module", "storage").Str("room", string(id)).Str("host", string(uid)).Msg("room created")
	return domain.Room{ID: id, Hosts: hosts, Control: control}, nil
}

// GetRoom returns the room with its control record or domain.ErrRoomNotFound.
func (s *Store) GetRoom(ctx context.Context, id domain.RoomID) (domain.Room, error) {
	var hostsJSON string
	var c domain.ControlPolicy
	var access string
	err := s.db.QueryRowContext(ctx, `
SELECT r.hosts, c.host_management, c.allow_share_screen, c.allow_send_chat, c.allow_reaction,
       c.allow_microphone, c.allow_video, c.require_host, c.access
FROM room r JOIN room_control c ON c.room_id = r.room_id
WHERE r.room_id = ?`, id).Scan(
		&hostsJSON, &c.HostManagement, &c.AllowShareScreen, &c.AllowSendChat, &c.AllowReaction,
		&c.AllowMicrophone, &c.AllowVideo, &c.RequireHost, &access,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	if err != nil {
		return domain.Room{}, fmt.Errorf("get room: %w", err)
	}
	c.Access = domain.Access(access)
	var hosts []domain.UserID
	if err := json.Unmarshal([]byte(hostsJSON), &hosts); err != nil {
		return domain.Room{}, fmt.Errorf("decode hosts: %w", err)
	}
	return domain.Room{ID: id, Hosts: hosts, Control: c}, nil
}

// UpdateControl stores the new room policy and remembers the author's access preferences.
func (s *Store) UpdateControl(ctx context.Context, id domain.RoomID, uid domain.UserID, c domain.ControlPolicy) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update control: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO user_access (user_id, require_host, access) VALUES (?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET require_host = excluded.require_host, access = excluded.access`,
		uid, c.RequireHost, string(c.Access)); err != nil {
		return fmt.Errorf("upsert user access: %w", err)
	}
	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM room WHERE room_id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrRoomNotFound
	}
	if err != nil {
		return fmt.Errorf("update control: %w", err)
	}
	if err := writeControl(ctx, tx, id, c); err != nil {
		return err
	}
	return tx.Commit()
}

func writeControl(ctx context.Context, tx *sql.Tx, id domain.RoomID, c domain.ControlPolicy) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO room_control (room_id, host_management, allow_share_screen, allow_send_chat, allow_reaction,
                          allow_microphone, allow_video, require_host, access)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(room_id) DO UPDATE SET
  host_management = excluded.host_management,
  allow_share_screen = excluded.allow_share_screen,
  allow_send_chat = excluded.allow_send_chat,
  allow_reaction = excluded.allow_reaction,
  allow_microphone = excluded.allow_microphone,
  allow_video = excluded.allow_video,
  require_host = excluded.require_host,
  access = excluded.access`,
		id, c.HostManagement, c.AllowShareScreen, c.AllowSendChat, c.AllowReaction,
		c.AllowMicrophone, c.AllowVideo, c.RequireHost, string(c.Access))
	if err != nil {
		return fmt.Errorf("write control: %w", err)
	}
	return nil
}
