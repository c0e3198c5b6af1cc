package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"filmorate_social/logging"
	"filmorate_social/metrics"
	"filmorate_social/model"

	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
)

// collaboratorBreaker 外部协作方熔断器
// 统计窗口 1 分钟，至少 10 次请求且失败率 >= 60% 时打开，timeout 后半开试探
type collaboratorBreaker struct {
	name string
	cb   *gobreaker.CircuitBreaker[any]
}

func newCollaboratorBreaker(name string, timeout time.Duration) *collaboratorBreaker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		// 调用方取消不算协作方故障
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &collaboratorBreaker{name: name, cb: cb}
}

func (b *collaboratorBreaker) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		}
		return nil, unavailable(b.name, err)
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return result, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// GuardedCatalogue 带熔断的影片目录，任何失败都表现为 ErrCollaboratorUnavailable
type GuardedCatalogue struct {
	next    FilmCatalogue
	breaker *collaboratorBreaker
}

func NewGuardedCatalogue(next FilmCatalogue, timeout time.Duration) *GuardedCatalogue {
	return &GuardedCatalogue{next: next, breaker: newCollaboratorBreaker("film-catalogue", timeout)}
}

func (g *GuardedCatalogue) FilmExists(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := g.breaker.execute(func() (any, error) {
		return g.next.FilmExists(ctx, id)
	})
	if err != nil {
		return false, err
	}
	exists, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return exists, nil
}

func (g *GuardedCatalogue) GetFilmsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Film, error) {
	result, err := g.breaker.execute(func() (any, error) {
		return g.next.GetFilmsByIDs(ctx, ids)
	})
	if err != nil {
		return nil, err
	}
	films, ok := result.([]model.Film)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return films, nil
}

// GuardedFeedSink 带熔断的动态写入端
type GuardedFeedSink struct {
	next    FeedSink
	breaker *collaboratorBreaker
}

func NewGuardedFeedSink(next FeedSink, timeout time.Duration) *GuardedFeedSink {
	return &GuardedFeedSink{next: next, breaker: newCollaboratorBreaker("feed-sink", timeout)}
}

func (g *GuardedFeedSink) RecordEvent(ctx context.Context, event *model.FeedEvent) error {
	_, err := g.breaker.execute(func() (any, error) {
		return nil, g.next.RecordEvent(ctx, event)
	})
	return err
}
