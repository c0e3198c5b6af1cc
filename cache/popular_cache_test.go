package cache

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"filmorate_social/model"
	"filmorate_social/store/memstore"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	testRedis     *redis.Client
	testContainer testcontainers.Container
)

func TestMain(m *testing.M) {
	flag.Parse()
	if !testing.Short() {
		if err := startRedis(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "redis container unavailable, skipping cache tests: %v\n", err)
		}
	}

	code := m.Run()

	if testRedis != nil {
		_ = testRedis.Close()
	}
	if testContainer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = testContainer.Terminate(ctx)
	}
	os.Exit(code)
}

func startRedis(ctx context.Context) error {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return err
	}
	testContainer = container

	host, err := container.Host(ctx)
	if err != nil {
		return err
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		return err
	}

	testRedis = redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	return testRedis.Ping(ctx).Err()
}

// countingGraph 统计回源次数
type countingGraph struct {
	*memstore.Store
	topCalls int
}

func (g *countingGraph) TopFilms(ctx context.Context, q model.PopularQuery) ([]model.FilmLikes, error) {
	g.topCalls++
	return g.Store.TopFilms(ctx, q)
}

func newCachedGraph(t *testing.T) (*PopularCache, *countingGraph) {
	t.Helper()
	if testRedis == nil {
		t.Skip("redis not available")
	}
	require.NoError(t, testRedis.FlushDB(context.Background()).Err())

	graph := &countingGraph{Store: memstore.New()}
	return NewPopularCache(graph, testRedis, time.Minute), graph
}

func TestPopularCache_HitAfterMiss(t *testing.T) {
	c, graph := newCachedGraph(t)
	ctx := context.Background()
	film := graph.AddFilm(model.Film{ReleaseDate: time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)})
	_, err := graph.Store.AddLike(ctx, uuid.New(), film.ID)
	require.NoError(t, err)

	first, err := c.TopFilms(ctx, model.PopularQuery{Limit: 5})
	require.NoError(t, err)
	second, err := c.TopFilms(ctx, model.PopularQuery{Limit: 5})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []model.FilmLikes{{FilmID: film.ID, Likes: 1}}, second)
	assert.Equal(t, 1, graph.topCalls)

	// 过滤条件不同，缓存键不同
	year := 2001
	_, err = c.TopFilms(ctx, model.PopularQuery{Limit: 5, Year: &year})
	require.NoError(t, err)
	assert.Equal(t, 2, graph.topCalls)
}

func TestPopularCache_LikeMutationInvalidates(t *testing.T) {
	c, graph := newCachedGraph(t)
	ctx := context.Background()
	film := graph.AddFilm(model.Film{ReleaseDate: time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)})
	user := uuid.New()

	ranked, err := c.TopFilms(ctx, model.PopularQuery{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(0), ranked[0].Likes)

	changed, err := c.AddLike(ctx, user, film.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	ranked, err = c.TopFilms(ctx, model.PopularQuery{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), ranked[0].Likes)
	assert.Equal(t, 2, graph.topCalls)

	// 重复点赞不改变图，缓存仍然有效
	changed, err = c.AddLike(ctx, user, film.ID)
	require.NoError(t, err)
	assert.False(t, changed)
	_, err = c.TopFilms(ctx, model.PopularQuery{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, graph.topCalls)

	_, err = c.RemoveLike(ctx, user, film.ID)
	require.NoError(t, err)
	ranked, err = c.TopFilms(ctx, model.PopularQuery{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(0), ranked[0].Likes)
}

// gatedGraph 回源阻塞到 release 关闭，返回时报告 ctx 状态
type gatedGraph struct {
	*memstore.Store
	started chan struct{}
	release chan struct{}
}

func (g *gatedGraph) TopFilms(ctx context.Context, q model.PopularQuery) ([]model.FilmLikes, error) {
	close(g.started)
	<-g.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.Store.TopFilms(ctx, q)
}

func TestPopularCache_LoadSurvivesCallerCancel(t *testing.T) {
	if testRedis == nil {
		t.Skip("redis not available")
	}
	require.NoError(t, testRedis.FlushDB(context.Background()).Err())

	graph := &gatedGraph{Store: memstore.New(), started: make(chan struct{}), release: make(chan struct{})}
	graph.AddFilm(model.Film{ReleaseDate: time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)})
	c := NewPopularCache(graph, testRedis, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		ranked []model.FilmLikes
		err    error
	}
	done := make(chan result, 1)
	go func() {
		ranked, err := c.TopFilms(ctx, model.PopularQuery{Limit: 5})
		done <- result{ranked, err}
	}()

	<-graph.started
	cancel()
	close(graph.release)

	res := <-done
	require.NoError(t, res.err)
	assert.Len(t, res.ranked, 1)
}

func TestCacheKey(t *testing.T) {
	genre := 3
	assert.Equal(t, "popular:v7:l10:g*:y*", cacheKey(7, model.PopularQuery{Limit: 10}))
	assert.Equal(t, "popular:v0:l5:g3:y*", cacheKey(0, model.PopularQuery{Limit: 5, GenreID: &genre}))
}
