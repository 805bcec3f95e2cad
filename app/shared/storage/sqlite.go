package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens dsn and applies the schema.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Migrate creates any missing tables. It is idempotent.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			guild_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			creator_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL,
			starts_at INTEGER NOT NULL,
			reminder_minutes INTEGER NOT NULL DEFAULT 0,
			capacity INTEGER NOT NULL DEFAULT 0,
			details TEXT NOT NULL DEFAULT '{}',
			banner_url TEXT NOT NULL DEFAULT '',
			announce_channel TEXT NOT NULL DEFAULT '',
			announce_message TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS signups (
			event_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (event_id, user_id),
			FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS cookie_wallets (
			guild_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			balance INTEGER NOT NULL,
			PRIMARY KEY (guild_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS guild_configs (
			guild_id TEXT PRIMARY KEY,
			event_channel_id TEXT NOT NULL DEFAULT '',
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_guild ON events(guild_id)`,
		`CREATE INDEX IF NOT EXISTS idx_signups_event ON signups(event_id, created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteStore) Close() error { return s.db.Close() }

// withTx runs fn in a transaction, committing only when fn succeeds.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateEvent(ctx context.Context, ev *Event) error {
	if ev == nil {
		return errors.New("event is nil")
	}
	if strings.TrimSpace(ev.Title) == "" || ev.GuildID == "" || ev.CreatorID == "" {
		return errors.New("event title, guild and creator are required")
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	now := s.now().UTC()
	ev.CreatedAt, ev.UpdatedAt = now, now

	details, err := json.Marshal(nonNilDetails(ev.Details))
	if err != nil {
		return fmt.Errorf("failed to marshal event details: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO events
			(id, guild_id, channel_id, creator_id, title, description, type, starts_at,
			 reminder_minutes, capacity, details, banner_url, announce_channel, announce_message,
			 created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.ID, ev.GuildID, ev.ChannelID, ev.CreatorID, ev.Title, ev.Description, string(ev.Type),
			ev.StartsAt.Unix(), ev.ReminderMinutes, ev.Capacity, string(details), ev.BannerURL,
			ev.AnnounceChannel, ev.AnnounceMessage, now.Unix(), now.Unix())
		if err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

const eventColumns = `id, guild_id, channel_id, creator_id, title, description, type, starts_at,
	reminder_minutes, capacity, details, banner_url, announce_channel, announce_message,
	created_at, updated_at`

func scanEvent(row rowScanner) (*Event, error) {
	var (
		ev                           Event
		typ, details                 string
		startsAt, created, updatedAt int64
	)
	err := row.Scan(&ev.ID, &ev.GuildID, &ev.ChannelID, &ev.CreatorID, &ev.Title, &ev.Description, &typ,
		&startsAt, &ev.ReminderMinutes, &ev.Capacity, &details, &ev.BannerURL,
		&ev.AnnounceChannel, &ev.AnnounceMessage, &created, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}
	ev.Type = EventType(typ)
	ev.StartsAt = time.Unix(startsAt, 0).UTC()
	ev.CreatedAt = time.Unix(created, 0).UTC()
	ev.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	if err := json.Unmarshal([]byte(details), &ev.Details); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event details: %w", err)
	}
	return &ev, nil
}

func (s *SQLiteStore) GetEvent(ctx context.Context, id string) (*Event, error) {
	return scanEvent(s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
}

// UpdateEvent reads the event, applies mutate and writes it back in one
// transaction. An error from mutate aborts without writing.
func (s *SQLiteStore) UpdateEvent(ctx context.Context, id string, mutate func(*Event) error) (*Event, error) {
	var updated *Event
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ev, err := scanEvent(tx.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
		if err != nil {
			return err
		}
		if err := mutate(ev); err != nil {
			return err
		}
		details, err := json.Marshal(nonNilDetails(ev.Details))
		if err != nil {
			return fmt.Errorf("failed to marshal event details: %w", err)
		}
		ev.UpdatedAt = s.now().UTC()
		_, err = tx.ExecContext(ctx, `UPDATE events SET
			title = ?, description = ?, type = ?, starts_at = ?, reminder_minutes = ?, capacity = ?,
			details = ?, banner_url = ?, updated_at = ?
			WHERE id = ?`,
			ev.Title, ev.Description, string(ev.Type), ev.StartsAt.Unix(), ev.ReminderMinutes, ev.Capacity,
			string(details), ev.BannerURL, ev.UpdatedAt.Unix(), id)
		if err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}
		updated = ev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *SQLiteStore) SetAnnouncement(ctx context.Context, id, channelID, messageID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE events SET announce_channel = ?, announce_message = ?, updated_at = ? WHERE id = ?`,
		channelID, messageID, s.now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to record announcement: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SignUp adds userID to the event and returns the new signup count. Capacity
// and duplicate checks happen inside the same transaction as the insert.
func (s *SQLiteStore) SignUp(ctx context.Context, eventID, userID string) (int, error) {
	var count int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var capacity int
		err := tx.QueryRowContext(ctx, `SELECT capacity FROM events WHERE id = ?`, eventID).Scan(&capacity)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load event capacity: %w", err)
		}

		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM signups WHERE event_id = ? AND user_id = ?`, eventID, userID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check signup: %w", err)
		}
		if exists > 0 {
			return ErrAlreadySignedUp
		}

		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM signups WHERE event_id = ?`, eventID).Scan(&count); err != nil {
			return fmt.Errorf("failed to count signups: %w", err)
		}
		if capacity > 0 && count >= capacity {
			return ErrEventFull
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO signups (event_id, user_id, created_at) VALUES (?, ?, ?)`,
			eventID, userID, s.now().UnixNano()); err != nil {
			return fmt.Errorf("failed to insert signup: %w", err)
		}
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Signups returns user ids in signup order.
func (s *SQLiteStore) Signups(ctx context.Context, eventID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM signups WHERE event_id = ? ORDER BY created_at, user_id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list signups: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan signup: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

// GiveCookie moves one cookie from one wallet to another. Wallets that do not
// exist yet open with StarterCookies.
func (s *SQLiteStore) GiveCookie(ctx context.Context, guildID, fromUserID, toUserID string) (int, int, error) {
	if fromUserID == toUserID {
		return 0, 0, ErrSelfTransfer
	}
	var from, to int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if from, err = walletBalance(ctx, tx, guildID, fromUserID); err != nil {
			return err
		}
		if from < 1 {
			return ErrInsufficientCookies
		}
		if to, err = walletBalance(ctx, tx, guildID, toUserID); err != nil {
			return err
		}
		from--
		to++
		if err := setWalletBalance(ctx, tx, guildID, fromUserID, from); err != nil {
			return err
		}
		return setWalletBalance(ctx, tx, guildID, toUserID, to)
	})
	if err != nil {
		return 0, 0, err
	}
	return from, to, nil
}

func (s *SQLiteStore) CookieBalance(ctx context.Context, guildID, userID string) (int, error) {
	return walletBalance(ctx, s.db, guildID, userID)
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func walletBalance(ctx context.Context, q rowQuerier, guildID, userID string) (int, error) {
	var balance int
	err := q.QueryRowContext(ctx, `SELECT balance FROM cookie_wallets WHERE guild_id = ? AND user_id = ?`, guildID, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return StarterCookies, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cookie balance: %w", err)
	}
	return balance, nil
}

func setWalletBalance(ctx context.Context, tx *sql.Tx, guildID, userID string, balance int) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO cookie_wallets (guild_id, user_id, balance) VALUES (?, ?, ?)
		ON CONFLICT(guild_id, user_id) DO UPDATE SET balance = excluded.balance`, guildID, userID, balance)
	if err != nil {
		return fmt.Errorf("failed to write cookie balance: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetGuildConfig(ctx context.Context, guildID string) (*GuildConfig, error) {
	var (
		cfg     GuildConfig
		updated int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT guild_id, event_channel_id, updated_at FROM guild_configs WHERE guild_id = ?`, guildID).
		Scan(&cfg.GuildID, &cfg.EventChannelID, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read guild config: %w", err)
	}
	cfg.UpdatedAt = time.Unix(updated, 0).UTC()
	return &cfg, nil
}

func (s *SQLiteStore) SaveGuildConfig(ctx context.Context, cfg *GuildConfig) error {
	if cfg == nil || cfg.GuildID == "" {
		return errors.New("guild id is required")
	}
	cfg.UpdatedAt = s.now().UTC()
	_, err := s.db.ExecContext(ctx, `INSERT INTO guild_configs (guild_id, event_channel_id, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET event_channel_id = excluded.event_channel_id, updated_at = excluded.updated_at`,
		cfg.GuildID, cfg.EventChannelID, cfg.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save guild config: %w", err)
	}
	return nil
}

func nonNilDetails(d map[string]string) map[string]string {
	if d == nil {
		return map[string]string{}
	}
	return d
}
