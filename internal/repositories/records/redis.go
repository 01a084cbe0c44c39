package records

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/tracking"
	trackererr "github.com/KirkDiggler/vtt-spell-tracker/internal/errors"
)

const (
	// Key patterns
	focusKeyPattern    = "spelltracker:focus:%s"
	durationKeyPattern = "spelltracker:duration:%s"
	casterIndexKey     = "spelltracker:casters"
)

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client redis.UniversalClient
}

// redisRepository implements Repository using Redis. Records persist without
// a TTL: a spell can outlive a play session and must still be there when the
// scene is reopened.
type redisRepository struct {
	client redis.UniversalClient
}

// NewRedisRepository creates a new Redis-backed records repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg.Client == nil {
		panic("redis client is required")
	}

	return &redisRepository{
		client: cfg.Client,
	}
}

func focusKey(casterID string) string {
	return fmt.Sprintf(focusKeyPattern, casterID)
}

func durationKey(casterID string) string {
	return fmt.Sprintf(durationKeyPattern, casterID)
}

// GetFocus returns the caster's focus records
func (r *redisRepository) GetFocus(ctx context.Context, casterID string) ([]*tracking.FocusRecord, error) {
	data, err := r.client.Get(ctx, focusKey(casterID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return []*tracking.FocusRecord{}, nil
		}
		return nil, trackererr.Wrapf(err, "failed to get focus records for %s", casterID)
	}

	return decodeFocus(data)
}

// SaveFocus replaces the caster's focus records
func (r *redisRepository) SaveFocus(ctx context.Context, casterID string, records []*tracking.FocusRecord) error {
	if casterID == "" {
		return trackererr.InvalidArgument("caster ID cannot be empty")
	}

	if len(records) == 0 {
		return r.deleteAndPrune(ctx, casterID, focusKey(casterID), durationKey(casterID))
	}

	data, err := encodeFocus(records)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, focusKey(casterID), data, 0)
	pipe.SAdd(ctx, casterIndexKey, casterID)
	if _, err := pipe.Exec(ctx); err != nil {
		return trackererr.Wrapf(err, "failed to save focus records for %s", casterID)
	}

	return nil
}

// GetDurations returns the caster's duration records
func (r *redisRepository) GetDurations(ctx context.Context, casterID string) ([]*tracking.DurationRecord, error) {
	data, err := r.client.Get(ctx, durationKey(casterID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return []*tracking.DurationRecord{}, nil
		}
		return nil, trackererr.Wrapf(err, "failed to get duration records for %s", casterID)
	}

	return decodeDurations(data)
}

// SaveDurations replaces the caster's duration records
func (r *redisRepository) SaveDurations(ctx context.Context, casterID string, records []*tracking.DurationRecord) error {
	if casterID == "" {
		return trackererr.InvalidArgument("caster ID cannot be empty")
	}

	if len(records) == 0 {
		return r.deleteAndPrune(ctx, casterID, durationKey(casterID), focusKey(casterID))
	}

	data, err := encodeDurations(records)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, durationKey(casterID), data, 0)
	pipe.SAdd(ctx, casterIndexKey, casterID)
	if _, err := pipe.Exec(ctx); err != nil {
		return trackererr.Wrapf(err, "failed to save duration records for %s", casterID)
	}

	return nil
}

// deleteAndPrune removes one table's key and drops the caster from the index
// when the sibling table is empty too
func (r *redisRepository) deleteAndPrune(ctx context.Context, casterID, key, siblingKey string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return trackererr.Wrapf(err, "failed to delete records for %s", casterID)
	}

	remaining, err := r.client.Exists(ctx, siblingKey).Result()
	if err != nil {
		return trackererr.Wrapf(err, "failed to check remaining records for %s", casterID)
	}
	if remaining == 0 {
		if err := r.client.SRem(ctx, casterIndexKey, casterID).Err(); err != nil {
			return trackererr.Wrapf(err, "failed to remove %s from caster index", casterID)
		}
	}

	return nil
}

// GetAll fetches both tables for a caster in parallel
func (r *redisRepository) GetAll(ctx context.Context, casterID string) (*RecordSet, error) {
	set := &RecordSet{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		focus, err := r.GetFocus(gctx, casterID)
		if err != nil {
			return err
		}
		set.Focus = focus
		return nil
	})
	g.Go(func() error {
		durations, err := r.GetDurations(gctx, casterID)
		if err != nil {
			return err
		}
		set.Durations = durations
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return set, nil
}

// ListCasters returns every caster with at least one record
func (r *redisRepository) ListCasters(ctx context.Context) ([]string, error) {
	casters, err := r.client.SMembers(ctx, casterIndexKey).Result()
	if err != nil {
		return nil, trackererr.Wrap(err, "failed to list casters")
	}
	return casters, nil
}

// Clear removes all records for a caster
func (r *redisRepository) Clear(ctx context.Context, casterID string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, focusKey(casterID))
	pipe.Del(ctx, durationKey(casterID))
	pipe.SRem(ctx, casterIndexKey, casterID)
	if _, err := pipe.Exec(ctx); err != nil {
		return trackererr.Wrapf(err, "failed to clear records for %s", casterID)
	}

	return nil
}
