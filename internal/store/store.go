package store

import (
	"context"
	"errors"
	"time"

	"github.com/09ahmad/lyftr-backend-assignment/internal/models"
)

// ErrDuplicateMessage is returned by InsertMessage when a message with the
// same message_id already exists. The stored row is left untouched.
var ErrDuplicateMessage = errors.New("duplicate message_id")

// TopSendersLimit caps the per-sender breakdown returned by Stats.
const TopSendersLimit = 10

// createdAtLayout is the server-assigned insert timestamp format.
const createdAtLayout = "2006-01-02T15:04:05.000000Z"

// DataStore defines the interface for persistent storage of messages.
// SQLiteStore, PostgresStore and RedisStore implement this interface.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// Message operations
	InsertMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, messageID string) (*models.Message, error)
	ListMessages(ctx context.Context, filter models.MessageFilter) ([]models.Message, int, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

// stampCreatedAt assigns the insert timestamp when the caller has not.
func stampCreatedAt(msg *models.Message) {
	if msg.CreatedAt == "" {
		msg.CreatedAt = time.Now().UTC().Format(createdAtLayout)
	}
}
