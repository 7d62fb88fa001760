package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/09ahmad/lyftr-backend-assignment/internal/models"
)

//go:embed schema/postgres.sql
var postgresSchema string

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool and
// ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init postgres schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// InsertMessage stores msg unless its message_id is already present, in which
// case ErrDuplicateMessage is returned.
func (s *PostgresStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	stampCreatedAt(msg)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (message_id, from_msisdn, to_msisdn, ts, ts_key, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, msg.MessageID, msg.From, msg.To, msg.Timestamp, timestampKey(msg.Timestamp), msg.Text, msg.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateMessage
		}
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// GetMessage retrieves a message by ID.
func (s *PostgresStore) GetMessage(ctx context.Context, messageID string) (*models.Message, error) {
	msg := &models.Message{}
	err := s.pool.QueryRow(ctx, `
		SELECT message_id, from_msisdn, to_msisdn, ts, text, created_at
		FROM messages WHERE message_id = $1
	`, messageID).Scan(
		&msg.MessageID,
		&msg.From,
		&msg.To,
		&msg.Timestamp,
		&msg.Text,
		&msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return msg, nil
}

func pgPlaceholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// ListMessages retrieves one page of messages matching filter, ordered by
// (ts, message_id), together with the total number of matches.
func (s *PostgresStore) ListMessages(ctx context.Context, filter models.MessageFilter) ([]models.Message, int, error) {
	where, args := whereClause(filter, pgPlaceholder)

	// Get total count
	var total int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	limitArg := pgPlaceholder(len(args) + 1)
	offsetArg := pgPlaceholder(len(args) + 2)
	rows, err := s.pool.Query(ctx, `
		SELECT message_id, from_msisdn, to_msisdn, ts, text, created_at
		FROM messages
		WHERE `+where+`
		ORDER BY ts_key ASC, message_id ASC
		LIMIT `+limitArg+` OFFSET `+offsetArg,
		append(args, filter.Limit, filter.Offset)...)
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

// Stats computes message analytics from a single repeatable-read snapshot.
func (s *PostgresStore) Stats(ctx context.Context) (*models.Stats, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	stats := &models.Stats{MessagesPerSender: []models.SenderCount{}}
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT from_msisdn),
			(SELECT ts FROM messages ORDER BY ts_key ASC, message_id ASC LIMIT 1),
			(SELECT ts FROM messages ORDER BY ts_key DESC, message_id DESC LIMIT 1)
		FROM messages
	`).Scan(&stats.TotalMessages, &stats.SendersCount, &stats.FirstMessageTS, &stats.LastMessageTS)
	if err != nil {
		return nil, fmt.Errorf("aggregate messages: %w", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT from_msisdn, COUNT(*) AS count
		FROM messages
		GROUP BY from_msisdn
		ORDER BY count DESC, from_msisdn COLLATE "C" ASC
		LIMIT $1
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
