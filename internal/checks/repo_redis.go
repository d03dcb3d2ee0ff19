package checks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "phone_checks"

// RedisRepo stores each record as a JSON string under {prefix}:record:<id>,
// with a sequence key and a hash indexing the first id per number.
//
// The append script builds record keys it does not declare in KEYS, so the
// prefix is wrapped in a hash tag: every key of one repo maps to the same
// cluster slot.
type RedisRepo struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisRepo(rdb *redis.Client, prefix string) *RedisRepo {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	if !strings.Contains(prefix, "{") {
		prefix = "{" + prefix + "}"
	}
	return &RedisRepo{rdb: rdb, prefix: prefix}
}

var appendRecordScript = redis.NewScript(`
-- KEYS[1] = sequence key
-- KEYS[2] = first-by-number index hash
-- ARGV[1] = record key prefix
-- ARGV[2] = phone number
-- ARGV[3] = record JSON
--
-- Returns the assigned id.
local id = redis.call('INCR', KEYS[1])
redis.call('SET', ARGV[1] .. id, ARGV[3])
redis.call('HSETNX', KEYS[2], ARGV[2], id)
return id
`)

func (r *RedisRepo) seqKey() string            { return r.prefix + ":seq" }
func (r *RedisRepo) indexKey() string          { return r.prefix + ":by_number" }
func (r *RedisRepo) recordPrefix() string      { return r.prefix + ":record:" }
func (r *RedisRepo) recordKey(id int64) string { return r.recordPrefix() + strconv.FormatInt(id, 10) }

func (r *RedisRepo) Append(ctx context.Context, rec Record) (Record, error) {
	if r.rdb == nil {
		return Record{}, errors.New("checks: redis client is nil")
	}

	// The id lives in the key; the stored body carries 0.
	rec.ID = 0
	body, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("checks: encode record: %w", err)
	}

	id, err := appendRecordScript.Run(ctx, r.rdb,
		[]string{r.seqKey(), r.indexKey()},
		r.recordPrefix(), rec.PhoneNumber, string(body),
	).Int64()
	if err != nil {
		return Record{}, fmt.Errorf("checks: append record: %w", err)
	}
	rec.ID = id
	return rec, nil
}

func (r *RedisRepo) Get(ctx context.Context, id int64) (Record, error) {
	body, err := r.rdb.Get(ctx, r.recordKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("checks: get record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return Record{}, fmt.Errorf("checks: decode record %d: %w", id, err)
	}
	rec.ID = id
	return rec, nil
}

func (r *RedisRepo) FindFirstByNumber(ctx context.Context, phoneNumber string) (Record, error) {
	id, err := r.rdb.HGet(ctx, r.indexKey(), phoneNumber).Int64()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("checks: find record: %w", err)
	}
	return r.Get(ctx, id)
}

func (r *RedisRepo) Ping(ctx context.Context) error {
	if r.rdb == nil {
		return errors.New("checks: redis client is nil")
	}
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("checks: redis ping: %w", err)
	}
	return nil
}
