package queue

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kart-io/dingrobot/pkg/errors"
	"github.com/kart-io/dingrobot/pkg/logger"
)

// RedisOptions configures the Redis-backed queue.
type RedisOptions struct {
	Addr         string
	Password     string
	DB           int
	KeyPrefix    string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
}

// redisQueue buffers messages in a Redis list so deliveries survive process
// restarts and can be shared between producers and workers.
type redisQueue struct {
	client *redis.Client
	key    string
	closed atomic.Bool
	logger logger.Logger
}

// NewRedisQueue creates a Redis-backed queue and verifies connectivity.
func NewRedisQueue(opts *RedisOptions, log logger.Logger) (Queue, error) {
	if log == nil {
		log = logger.Discard
	}
	if opts == nil {
		return nil, errors.New(errors.ErrInvalidConfig, "redis options cannot be nil")
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "dingrobot:queue:"
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 3 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 3 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect to Redis", "addr", opts.Addr, "error", err)
		return nil, errors.Wrap(err, errors.ErrQueueClosed, "connect to redis")
	}

	return &redisQueue{
		client: client,
		key:    opts.KeyPrefix + "pending",
		logger: log,
	}, nil
}

func (q *redisQueue) Enqueue(ctx context.Context, msg *Message) error {
	if msg == nil {
		return errors.New(errors.ErrInvalidMessage, "queue message cannot be nil")
	}
	if q.closed.Load() {
		return ErrQueueClosed
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, errors.ErrMessageEncoding, "marshal queue message")
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return errors.Wrap(err, errors.ErrQueueClosed, "push to redis queue")
	}
	q.logger.Debug("message enqueued", "messageID", msg.ID, "key", q.key)
	return nil
}

func (q *redisQueue) Dequeue(ctx context.Context) (*Message, error) {
	if q.closed.Load() {
		return nil, ErrQueueClosed
	}

	// Block until an element arrives or the context is done. A zero
	// timeout makes BRPOP wait indefinitely; cancellation flows through
	// the context.
	res, err := q.client.BRPop(ctx, 0, q.key).Result()
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), errors.ErrSendCanceled, "dequeue canceled")
		}
		return nil, errors.Wrap(err, errors.ErrQueueClosed, "pop from redis queue")
	}
	// BRPOP returns [key, value].
	if len(res) != 2 {
		return nil, errors.New(errors.ErrBadResponse, "unexpected BRPOP reply shape")
	}

	var msg Message
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return nil, errors.Wrap(err, errors.ErrMessageEncoding, "unmarshal queue message")
	}
	return &msg, nil
}

func (q *redisQueue) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		q.logger.Warn("failed to read queue length", "error", err)
		return 0
	}
	return int(n)
}

func (q *redisQueue) Close() error {
	if q.closed.Swap(true) {
		return nil
	}
	return q.client.Close()
}
