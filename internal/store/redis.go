package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/threshold-labs/sentry/internal/core"
)

// maxTxRetries bounds optimistic-transaction retries before the write is
// reported as a conflict.
const maxTxRetries = 5

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Redis implements Store on a Redis backend. Each signal is one JSON
// value; per-signal atomicity comes from WATCH-based optimistic
// transactions, so concurrent engines may share one store.
type Redis struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = "sentry"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{client: client, prefix: cfg.Prefix, now: time.Now}, nil
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) signalKey(id string) string {
	return fmt.Sprintf("%s:signal:%s", r.prefix, id)
}

func (r *Redis) indexKey() string {
	return fmt.Sprintf("%s:signals", r.prefix)
}

func (r *Redis) Create(ctx context.Context, sig core.Signal) (core.Signal, error) {
	if err := prepareNew(&sig, r.now()); err != nil {
		return core.Signal{}, err
	}

	data, err := json.Marshal(sig)
	if err != nil {
		return core.Signal{}, err
	}

	ok, err := r.client.SetNX(ctx, r.signalKey(sig.ID), data, 0).Result()
	if err != nil {
		return core.Signal{}, err
	}
	if !ok {
		return core.Signal{}, core.ErrStoreConflict
	}
	if err := r.client.SAdd(ctx, r.indexKey(), sig.ID).Err(); err != nil {
		return core.Signal{}, err
	}
	return sig, nil
}

func (r *Redis) Load(ctx context.Context, id string) (core.Signal, error) {
	data, err := r.client.Get(ctx, r.signalKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.Signal{}, core.ErrSignalNotFound
		}
		return core.Signal{}, err
	}

	var sig core.Signal
	if err := json.Unmarshal(data, &sig); err != nil {
		return core.Signal{}, err
	}
	return sig, nil
}

func (r *Redis) List(ctx context.Context, filter ListFilter) ([]core.Signal, error) {
	all, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	var result []core.Signal
	for _, sig := range all {
		if filter.ThesisID != "" && sig.ThesisID != filter.ThesisID {
			continue
		}
		if filter.Status != "" && sig.Status != filter.Status {
			continue
		}
		if filter.SignalType != "" && sig.SignalType != filter.SignalType {
			continue
		}
		result = append(result, sig)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []core.Signal{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *Redis) ListMonitored(ctx context.Context) ([]core.Signal, error) {
	all, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	var result []core.Signal
	for _, sig := range all {
		if sig.Status != core.StatusInactive {
			result = append(result, sig)
		}
	}
	return result, nil
}

func (r *Redis) UpdateThreshold(ctx context.Context, id string, value float64, tt core.ThresholdType) error {
	if !tt.IsValid() {
		return core.ErrInvalidSignal
	}
	_, err := r.ApplyObservation(ctx, id, func(sig *core.Signal) error {
		sig.ThresholdValue = value
		sig.ThresholdType = tt
		return nil
	})
	return err
}

func (r *Redis) Pause(ctx context.Context, id string) error {
	_, err := r.ApplyObservation(ctx, id, func(sig *core.Signal) error {
		sig.Status = core.StatusInactive
		return nil
	})
	return err
}

func (r *Redis) Resume(ctx context.Context, id string) error {
	_, err := r.ApplyObservation(ctx, id, func(sig *core.Signal) error {
		sig.Status = core.StatusActive
		return nil
	})
	return err
}

func (r *Redis) ApplyObservation(ctx context.Context, id string, apply func(*core.Signal) error) (core.Signal, error) {
	key := r.signalKey(id)
	var updated core.Signal

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return core.ErrSignalNotFound
			}
			return err
		}

		var sig core.Signal
		if err := json.Unmarshal(data, &sig); err != nil {
			return err
		}
		if err := apply(&sig); err != nil {
			return err
		}

		out, err := json.Marshal(sig)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err == nil {
			updated = sig
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.client.Watch(ctx, txn, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue // lost the race, re-read and retry
		}
		return core.Signal{}, err
	}
	return core.Signal{}, core.ErrStoreConflict
}

func (r *Redis) Summary(ctx context.Context, thesisID string) (Summary, error) {
	all, err := r.loadAll(ctx)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{ByStatus: make(map[core.Status]int)}
	for _, sig := range all {
		if thesisID != "" && sig.ThesisID != thesisID {
			continue
		}
		summary.Total++
		summary.ByStatus[sig.Status]++
		if sig.LastCheckedAt != nil {
			if summary.LastChecked == nil || sig.LastCheckedAt.After(*summary.LastChecked) {
				t := *sig.LastCheckedAt
				summary.LastChecked = &t
			}
		}
	}
	return summary, nil
}

func (r *Redis) loadAll(ctx context.Context) ([]core.Signal, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.signalKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	signals := make([]core.Signal, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue // index entry without a record; skip
		}
		var sig core.Signal
		if err := json.Unmarshal([]byte(s), &sig); err != nil {
			return nil, err
		}
		signals = append(signals, sig)
	}

	// Creation order keeps listings stable across calls.
	sort.Slice(signals, func(i, j int) bool {
		if signals[i].CreatedAt.Equal(signals[j].CreatedAt) {
			return signals[i].ID < signals[j].ID
		}
		return signals[i].CreatedAt.Before(signals[j].CreatedAt)
	})
	return signals, nil
}
