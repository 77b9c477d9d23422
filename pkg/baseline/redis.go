package baseline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const defaultRedisPrefix = "baseline:"

//RedisRepository stores baselines as JSON documents under "baseline:<player id>".
//Calls go through a circuit breaker so an unavailable redis fails requests fast; a missing key is not a failure.
type RedisRepository struct {
	client  redis.UniversalClient
	breaker *gobreaker.CircuitBreaker
	prefix  string
}

//NewRedisRepository wraps client with a circuit breaker that opens after 5 consecutive failures
func NewRedisRepository(client redis.UniversalClient, log *logrus.Entry) *RedisRepository {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "baseline-redis",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrModelNotFound)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"component": "circuit_breaker",
				"service":   name,
				"from":      from.String(),
				"to":        to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &RedisRepository{client: client, breaker: cb, prefix: defaultRedisPrefix}
}

func (r *RedisRepository) key(playerID string) string {
	return r.prefix + playerID
}

func (r *RedisRepository) Get(ctx context.Context, playerID string) (*Baseline, error) {
	res, err := r.breaker.Execute(func() (interface{}, error) {
		data, err := r.client.Get(ctx, r.key(playerID)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: player '%s'", ErrModelNotFound, playerID)
		}
		return data, err
	})
	if err != nil {
		if errors.Is(err, ErrModelNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("RedisRepository: loading '%s': %w", playerID, err)
	}

	b := &Baseline{}
	if err := json.Unmarshal(res.([]byte), b); err != nil {
		return nil, fmt.Errorf("RedisRepository: decoding '%s': %w", playerID, err)
	}
	return b, nil
}

func (r *RedisRepository) Put(ctx context.Context, b *Baseline) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}

	_, err = r.breaker.Execute(func() (interface{}, error) {
		return nil, r.client.Set(ctx, r.key(b.Player), data, 0).Err()
	})
	if err != nil {
		return fmt.Errorf("RedisRepository: storing '%s': %w", b.Player, err)
	}
	return nil
}

//State exposes the breaker state for health reporting
func (r *RedisRepository) State() gobreaker.State {
	return r.breaker.State()
}
