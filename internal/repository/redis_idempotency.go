package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/cbgate/cbgate/internal/middleware"
)

// RedisIdempotencyStore shares the idempotency replay cache across
// replicas. Keys are claimed with SET NX so only one replica processes
// a given idempotency key.
type RedisIdempotencyStore struct {
	client *RedisClient
	ttl    time.Duration
	prefix string
}

func NewRedisIdempotencyStore(client *RedisClient, ttl time.Duration) *RedisIdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisIdempotencyStore{
		client: client,
		ttl:    ttl,
		prefix: "idem:",
	}
}

func (s *RedisIdempotencyStore) GetOrLock(key string) (*middleware.IdempotencyRecord, bool) {
	ctx := context.Background()
	record := middleware.IdempotencyRecord{
		CreatedAt:  time.Now().UTC(),
		Processing: true,
	}
	payload, _ := encodeIdemRecord(record)

	ok, err := s.client.Client.SetNX(ctx, s.prefix+key, payload, s.ttl).Result()
	if err == nil && ok {
		return nil, false
	}

	val, err := s.client.Client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		// Redis unavailable; treat as a fresh request rather than block
		return nil, false
	}
	rec, err := decodeIdemRecord(val)
	if err != nil {
		return nil, false
	}
	return rec, true
}

func (s *RedisIdempotencyStore) Save(key string, status int, body []byte) {
	record := middleware.IdempotencyRecord{
		Status:    status,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	payload, err := encodeIdemRecord(record)
	if err != nil {
		return
	}
	_ = s.client.Client.Set(context.Background(), s.prefix+key, payload, s.ttl).Err()
}

func (s *RedisIdempotencyStore) Unlock(key string) {
	_ = s.client.Client.Del(context.Background(), s.prefix+key).Err()
}

type idemRecordWire struct {
	Status     int       `json:"status"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
	Processing bool      `json:"processing"`
}

func encodeIdemRecord(rec middleware.IdempotencyRecord) (string, error) {
	wire := idemRecordWire{
		Status:     rec.Status,
		Body:       base64.StdEncoding.EncodeToString(rec.Body),
		CreatedAt:  rec.CreatedAt,
		Processing: rec.Processing,
	}
	out, err := json.Marshal(wire)
	return string(out), err
}

func decodeIdemRecord(raw string) (*middleware.IdempotencyRecord, error) {
	var wire idemRecordWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, err
	}
	body, err := base64.StdEncoding.DecodeString(wire.Body)
	if err != nil {
		return nil, err
	}
	return &middleware.IdempotencyRecord{
		Status:     wire.Status,
		Body:       body,
		CreatedAt:  wire.CreatedAt,
		Processing: wire.Processing,
	}, nil
}
