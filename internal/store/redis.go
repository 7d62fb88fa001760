package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/09ahmad/lyftr-backend-assignment/internal/models"
)

// defaultRedisPrefix carries a hash tag so every key of one store lands in the
// same cluster slot, which the insert script requires.
const defaultRedisPrefix = "{messages}"

// loadBatchSize bounds the number of keys fetched per MGET.
const loadBatchSize = 500

// insertScript stores a message only if its key is absent and maintains the
// indexes in the same atomic step.
//
// KEYS: message, global index, sender index, sender counts
// ARGV: message JSON, index member, sender
var insertScript = redis.NewScript(`
if not redis.call('SET', KEYS[1], ARGV[1], 'NX') then
	return 0
end
redis.call('ZADD', KEYS[2], 0, ARGV[2])
redis.call('ZADD', KEYS[3], 0, ARGV[2])
redis.call('HINCRBY', KEYS[4], ARGV[3], 1)
return 1
`)

// redisRecord is the stored JSON form of a message.
type redisRecord struct {
	MessageID string  `json:"message_id"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Timestamp string  `json:"ts"`
	Text      *string `json:"text,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// RedisStore keeps messages in Redis. Listing order comes from sorted sets
// scored at zero and ordered lexically on "ts|message_id".
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return newRedisStore(client, defaultRedisPrefix), nil
}

func newRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Close closes the Redis connection.
func (s *RedisStore) Close() {
	s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) messageKey(messageID string) string {
	return s.prefix + ":msg:" + messageID
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":index"
}

func (s *RedisStore) senderIndexKey(from string) string {
	return s.prefix + ":from:" + from
}

func (s *RedisStore) sendersKey() string {
	return s.prefix + ":senders"
}

// indexMember orders by ts first. Keys are fixed width, so the separator
// never decides the order between two timestamps.
func indexMember(ts, messageID string) string {
	return timestampKey(ts) + "|" + messageID
}

// InsertMessage stores msg unless its message_id is already present, in which
// case ErrDuplicateMessage is returned.
func (s *RedisStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	stampCreatedAt(msg)

	data, err := json.Marshal(redisRecord{
		MessageID: msg.MessageID,
		From:      msg.From,
		To:        msg.To,
		Timestamp: msg.Timestamp,
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
	})
	if err != nil {
		return err
	}

	keys := []string{
		s.messageKey(msg.MessageID),
		s.indexKey(),
		s.senderIndexKey(msg.From),
		s.sendersKey(),
	}
	created, err := insertScript.Run(ctx, s.client, keys,
		string(data), indexMember(msg.Timestamp, msg.MessageID), msg.From,
	).Int()
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	if created == 0 {
		return ErrDuplicateMessage
	}
	return nil
}

// GetMessage retrieves a message by ID.
func (s *RedisStore) GetMessage(ctx context.Context, messageID string) (*models.Message, error) {
	data, err := s.client.Get(ctx, s.messageKey(messageID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	msg, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func decodeRecord(data string) (models.Message, error) {
	var rec redisRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return models.Message{}, err
	}
	return models.Message{
		MessageID: rec.MessageID,
		From:      rec.From,
		To:        rec.To,
		Timestamp: rec.Timestamp,
		Text:      rec.Text,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// ListMessages retrieves one page of messages matching filter, ordered by
// (ts, message_id), together with the total number of matches. Text queries
// are evaluated in the client over the sender/since-narrowed index.
func (s *RedisStore) ListMessages(ctx context.Context, filter models.MessageFilter) ([]models.Message, int, error) {
	key := s.indexKey()
	if filter.From != "" {
		key = s.senderIndexKey(filter.From)
	}
	lower := "-"
	if filter.Since != "" {
		lower = "[" + timestampKey(filter.Since)
	}

	if filter.Query == "" {
		total, err := s.client.ZLexCount(ctx, key, lower, "+").Result()
		if err != nil {
			return nil, 0, fmt.Errorf("count messages: %w", err)
		}
		members, err := s.client.ZRangeArgs(ctx, redis.ZRangeArgs{
			Key:    key,
			Start:  lower,
			Stop:   "+",
			ByLex:  true,
			Offset: int64(filter.Offset),
			Count:  int64(filter.Limit),
		}).Result()
		if err != nil {
			return nil, 0, fmt.Errorf("list messages: %w", err)
		}
		messages, err := s.load(ctx, members)
		if err != nil {
			return nil, 0, err
		}
		return messages, int(total), nil
	}

	members, err := s.client.ZRangeArgs(ctx, redis.ZRangeArgs{
		Key:   key,
		Start: lower,
		Stop:  "+",
		ByLex: true,
	}).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	all, err := s.load(ctx, members)
	if err != nil {
		return nil, 0, err
	}

	matched := all[:0]
	for _, msg := range all {
		if matchesQuery(msg.Text, filter.Query) {
			matched = append(matched, msg)
		}
	}

	total := len(matched)
	start := min(filter.Offset, total)
	end := min(start+filter.Limit, total)
	return matched[start:end], total, nil
}

// load fetches the messages referenced by index members, preserving order.
func (s *RedisStore) load(ctx context.Context, members []string) ([]models.Message, error) {
	messages := make([]models.Message, 0, len(members))
	for start := 0; start < len(members); start += loadBatchSize {
		end := start + loadBatchSize
		if end > len(members) {
			end = len(members)
		}

		keys := make([]string, 0, end-start)
		for _, member := range members[start:end] {
			_, id, ok := strings.Cut(member, "|")
			if !ok {
				continue
			}
			keys = append(keys, s.messageKey(id))
		}
		if len(keys) == 0 {
			continue
		}

		values, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, fmt.Errorf("load messages: %w", err)
		}
		for _, v := range values {
			data, ok := v.(string)
			if !ok {
				continue
			}
			msg, err := decodeRecord(data)
			if err != nil {
				return nil, err
			}
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

// Stats computes message analytics inside one MULTI/EXEC block.
func (s *RedisStore) Stats(ctx context.Context) (*models.Stats, error) {
	var (
		total   *redis.IntCmd
		senders *redis.MapStringStringCmd
		first   *redis.StringSliceCmd
		last    *redis.StringSliceCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		total = pipe.ZCard(ctx, s.indexKey())
		senders = pipe.HGetAll(ctx, s.sendersKey())
		first = pipe.ZRange(ctx, s.indexKey(), 0, 0)
		last = pipe.ZRange(ctx, s.indexKey(), -1, -1)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate messages: %w", err)
	}

	counts := make([]models.SenderCount, 0, len(senders.Val()))
	for from, raw := range senders.Val() {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("sender count for %q: %w", from, err)
		}
		counts = append(counts, models.SenderCount{From: from, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].From < counts[j].From
	})

	stats := &models.Stats{
		TotalMessages:     total.Val(),
		SendersCount:      int64(len(counts)),
		MessagesPerSender: counts[:min(len(counts), TopSendersLimit)],
	}

	// Index members carry the sort key; the bounds report ts as supplied.
	bounds, err := s.load(ctx, append(first.Val(), last.Val()...))
	if err != nil {
		return nil, err
	}
	if len(bounds) == 2 {
		stats.FirstMessageTS = &bounds[0].Timestamp
		stats.LastMessageTS = &bounds[1].Timestamp
	}
	return stats, nil
}
