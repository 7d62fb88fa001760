package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"github.com/09ahmad/lyftr-backend-assignment/internal/models"
)

//go:embed schema/sqlite.sql
var sqliteSchema string

// SQLiteStore handles SQLite database operations.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "/data/app.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "/data/app.db"
	}

	var dsn string
	if dbPath == ":memory:" {
		dsn = ":memory:"
	} else {
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise see its own database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	store := &SQLiteStore{db: db}

	// Initialize schema
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("init sqlite schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `SELECT 1`)
	return err
}

// InsertMessage stores msg unless its message_id is already present, in which
// case ErrDuplicateMessage is returned.
func (s *SQLiteStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	stampCreatedAt(msg)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (message_id, from_msisdn, to_msisdn, ts, ts_key, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, msg.MessageID, msg.From, msg.To, msg.Timestamp, timestampKey(msg.Timestamp), msg.Text, msg.CreatedAt)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return ErrDuplicateMessage
		}
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// GetMessage retrieves a message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, messageID string) (*models.Message, error) {
	msg := &models.Message{}
	err := s.db.QueryRowContext(ctx, `
		SELECT message_id, from_msisdn, to_msisdn, ts, text, created_at
		FROM messages WHERE message_id = ?
	`, messageID).Scan(
		&msg.MessageID,
		&msg.From,
		&msg.To,
		&msg.Timestamp,
		&msg.Text,
		&msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return msg, nil
}

// ListMessages retrieves one page of messages matching filter, ordered by
// (ts, message_id), together with the total number of matches.
func (s *SQLiteStore) ListMessages(ctx context.Context, filter models.MessageFilter) ([]models.Message, int, error) {
	where, args := whereClause(filter, func(int) string { return "?" })

	// Get total count
	var total int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, from_msisdn, to_msisdn, ts, text, created_at
		FROM messages
		WHERE `+where+`
		ORDER BY ts_key ASC, message_id ASC
		LIMIT ? OFFSET ?
	`, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0, filter.Limit)
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.MessageID,
			&msg.From,
			&msg.To,
			&msg.Timestamp,
			&msg.Text,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// Stats computes message analytics inside a single read transaction.
func (s *SQLiteStore) Stats(ctx context.Context) (*models.Stats, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stats := &models.Stats{MessagesPerSender: []models.SenderCount{}}
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT from_msisdn),
			(SELECT ts FROM messages ORDER BY ts_key ASC, message_id ASC LIMIT 1),
			(SELECT ts FROM messages ORDER BY ts_key DESC, message_id DESC LIMIT 1)
		FROM messages
	`).Scan(&stats.TotalMessages, &stats.SendersCount, &stats.FirstMessageTS, &stats.LastMessageTS)
	if err != nil {
		return nil, fmt.Errorf("aggregate messages: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT from_msisdn, COUNT(*) AS count
		FROM messages
		GROUP BY from_msisdn
		ORDER BY count DESC, from_msisdn ASC
		LIMIT ?
	`, TopSendersLimit)
	if err != nil {
		return nil, fmt.Errorf("top senders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sc models.SenderCount
		if err := rows.Scan(&sc.From, &sc.Count); err != nil {
			return nil, err
		}
		stats.MessagesPerSender = append(stats.MessagesPerSender, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
