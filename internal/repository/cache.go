package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/abcdjack1/todolist/internal/models"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	notDoneCacheKey = "todo:tasks:not-done"
	doneCacheKey    = "todo:tasks:done"
	// genCacheKey is bumped by every write. A list loaded under an older
	// generation is never written back.
	genCacheKey = "todo:tasks:gen"
)

var errStaleLoad = errors.New("task cache generation moved during load")

// CachedTaskRepository wraps a TaskRepository with Redis-backed caching of
// the two list reads. Every write bumps the cache generation and evicts both
// lists.
type CachedTaskRepository struct {
	TaskRepository
	redis  *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// NewCachedTaskRepository creates a caching wrapper around base.
func NewCachedTaskRepository(base TaskRepository, client *redis.Client, ttl time.Duration, logger *log.Logger) *CachedTaskRepository {
	if base == nil {
		panic("repository.NewCachedTaskRepository: base repository is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &CachedTaskRepository{
		TaskRepository: base,
		redis:          client,
		ttl:            ttl,
		logger:         logger,
	}
}

func (c *CachedTaskRepository) ListNotDone(ctx context.Context) ([]models.Task, error) {
	return c.cachedList(ctx, notDoneCacheKey, c.TaskRepository.ListNotDone)
}

func (c *CachedTaskRepository) ListDone(ctx context.Context) ([]models.Task, error) {
	return c.cachedList(ctx, doneCacheKey, c.TaskRepository.ListDone)
}

func (c *CachedTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if err := c.TaskRepository.Create(ctx, task); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *CachedTaskRepository) UpdateByID(ctx context.Context, id string, patch TaskPatch) (*models.Task, error) {
	task, err := c.TaskRepository.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	c.evict(ctx)
	return task, nil
}

func (c *CachedTaskRepository) SetCompleted(ctx context.Context, id string) (*models.Task, error) {
	task, err := c.TaskRepository.SetCompleted(ctx, id)
	if err != nil {
		return nil, err
	}
	c.evict(ctx)
	return task, nil
}

func (c *CachedTaskRepository) DeleteByID(ctx context.Context, id string) (*models.Task, error) {
	task, err := c.TaskRepository.DeleteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.evict(ctx)
	return task, nil
}

// BulkSetOrder evicts even on failure: a short match still wrote the pairs
// that did match.
func (c *CachedTaskRepository) BulkSetOrder(ctx context.Context, pairs []OrderPair) (BulkResult, error) {
	res, err := c.TaskRepository.BulkSetOrder(ctx, pairs)
	c.evict(ctx)
	return res, err
}

func (c *CachedTaskRepository) cachedList(ctx context.Context, key string, load func(context.Context) ([]models.Task, error)) ([]models.Task, error) {
	if tasks, ok := c.loadFromCache(ctx, key); ok {
		return tasks, nil
	}

	gen, genErr := c.generation(ctx)

	tasks, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if genErr == nil {
		c.store(ctx, key, gen, tasks)
	}
	return tasks, nil
}

func (c *CachedTaskRepository) generation(ctx context.Context) (int64, error) {
	if c.redis == nil {
		return 0, redis.ErrClosed
	}
	return readGeneration(ctx, c.redis)
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, cmd stringGetter) (int64, error) {
	gen, err := cmd.Get(ctx, genCacheKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

func (c *CachedTaskRepository) loadFromCache(ctx context.Context, key string) ([]models.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			c.warn(err, key, "task cache read failed")
			_ = c.redis.Del(ctx, key).Err()
		}
		return nil, false
	}
	var tasks []models.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return tasks, true
}

// store writes the list only while the generation still equals gen, the
// value read before the list was loaded.
func (c *CachedTaskRepository) store(ctx context.Context, key string, gen int64, tasks []models.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx)
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleLoad
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, genCacheKey)
	switch {
	case err == nil:
	case errors.Is(err, errStaleLoad), errors.Is(err, redis.TxFailedErr):
		if c.logger != nil {
			c.logger.WithField("key", key).Debug("task cache write skipped after a concurrent write")
		}
	default:
		c.warn(err, key, "task cache write failed")
	}
}

func (c *CachedTaskRepository) evict(ctx context.Context) {
	if c.redis == nil {
		return
	}
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genCacheKey)
		pipe.Del(ctx, notDoneCacheKey, doneCacheKey)
		return nil
	})
	if err != nil {
		c.warn(err, notDoneCacheKey, "task cache eviction failed")
	}
}

func (c *CachedTaskRepository) warn(err error, key, msg string) {
	if c.logger == nil {
		return
	}
	c.logger.WithError(err).WithField("key", key).Warn(msg)
}
