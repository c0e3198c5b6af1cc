package store_test

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"filmorate_social/model"
	"filmorate_social/service"
	"filmorate_social/store"
	"filmorate_social/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

var (
	testDB        *gorm.DB
	testContainer testcontainers.Container
)

func TestMain(m *testing.M) {
	flag.Parse()
	if !testing.Short() {
		if err := startPostgres(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "postgres container unavailable, skipping store tests: %v\n", err)
		}
	}

	code := m.Run()

	if testContainer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = testContainer.Terminate(ctx)
	}
	os.Exit(code)
}

func startPostgres(ctx context.Context) error {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_DB":       "filmorate",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return err
	}
	testContainer = container

	host, err := container.Host(ctx)
	if err != nil {
		return err
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return err
	}

	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/filmorate?sslmode=disable", host, port.Port())
	db, err := utils.OpenDB(dsn)
	if err != nil {
		return err
	}
	if err := store.AutoMigrate(db); err != nil {
		return err
	}
	testDB = db
	return nil
}

func requireDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testDB == nil {
		t.Skip("postgres not available")
	}
	require.NoError(t, testDB.Exec(`TRUNCATE film_likes, friendships, feed_events, system_settings, film_genres, film_directors, films, genres, users CASCADE`).Error)
	return testDB
}

func seedUser(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	user := model.User{ID: uuid.New(), Login: "user"}
	user.Email = user.ID.String() + "@example.com"
	require.NoError(t, db.Create(&user).Error)
	return user.ID
}

func seedFilm(t *testing.T, db *gorm.DB, year int, genres ...model.Genre) uuid.UUID {
	t.Helper()
	film := model.Film{
		ID:          uuid.New(),
		Name:        "film",
		ReleaseDate: time.Date(year, 3, 1, 0, 0, 0, 0, time.UTC),
		Genres:      genres,
	}
	require.NoError(t, db.Create(&film).Error)
	return film.ID
}

func TestLikeStore_Graph(t *testing.T) {
	db := requireDB(t)
	likes := store.NewLikeStore(db)
	ctx := context.Background()

	u1, u2, u3 := seedUser(t, db), seedUser(t, db), seedUser(t, db)
	f1, f2, f3, f4 := seedFilm(t, db, 2000), seedFilm(t, db, 2000), seedFilm(t, db, 2000), seedFilm(t, db, 2000)

	for user, films := range map[uuid.UUID][]uuid.UUID{u1: {f1, f2, f3}, u2: {f1, f2, f4}, u3: {f1}} {
		for _, f := range films {
			created, err := likes.AddLike(ctx, user, f)
			require.NoError(t, err)
			assert.True(t, created)
		}
	}

	created, err := likes.AddLike(ctx, u1, f1)
	require.NoError(t, err)
	assert.False(t, created)

	overlaps, err := likes.OverlapCounts(ctx, u1)
	require.NoError(t, err)
	assert.Equal(t, []model.TasteNeighbor{{UserID: u2, Overlap: 2}, {UserID: u3, Overlap: 1}}, overlaps)

	counts, err := likes.LikeCountByFilm(ctx, []uuid.UUID{f1, f4, f3})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int64{f1: 3, f4: 1, f3: 1}, counts)

	likedByAny, err := likes.FilmsLikedByAny(ctx, []uuid.UUID{u2, u3})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{f1, f2, f4}, likedByAny)

	recs, err := service.NewRecommendationEngine(likes, nil).Recommend(ctx, u1)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f4}, recs)

	removed, err := likes.RemoveLike(ctx, u1, f1)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = likes.RemoveLike(ctx, u1, f1)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestLikeStore_TopFilms(t *testing.T) {
	db := requireDB(t)
	likes := store.NewLikeStore(db)
	ctx := context.Background()

	drama := model.Genre{ID: 2, Name: "Drama"}
	require.NoError(t, db.Create(&drama).Error)
	popular := seedFilm(t, db, 1999)
	dramaFilm := seedFilm(t, db, 2005, drama)
	unliked := seedFilm(t, db, 1999)

	for i := 0; i < 3; i++ {
		_, err := likes.AddLike(ctx, seedUser(t, db), popular)
		require.NoError(t, err)
	}
	_, err := likes.AddLike(ctx, seedUser(t, db), dramaFilm)
	require.NoError(t, err)

	ranked, err := likes.TopFilms(ctx, model.PopularQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, model.FilmLikes{FilmID: popular, Likes: 3}, ranked[0])
	assert.Equal(t, model.FilmLikes{FilmID: dramaFilm, Likes: 1}, ranked[1])
	assert.Equal(t, model.FilmLikes{FilmID: unliked, Likes: 0}, ranked[2])

	genre := drama.ID
	ranked, err = likes.TopFilms(ctx, model.PopularQuery{Limit: 10, GenreID: &genre})
	require.NoError(t, err)
	assert.Equal(t, []model.FilmLikes{{FilmID: dramaFilm, Likes: 1}}, ranked)

	year := 1999
	ranked, err = likes.TopFilms(ctx, model.PopularQuery{Limit: 1, Year: &year})
	require.NoError(t, err)
	assert.Equal(t, []model.FilmLikes{{FilmID: popular, Likes: 3}}, ranked)
}

func TestFriendshipStore_ConcurrentRequestsReconcile(t *testing.T) {
	db := requireDB(t)
	friendships := service.NewFriendshipService(store.NewFriendshipStore(db))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		a, b := seedUser(t, db), seedUser(t, db)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := friendships.RequestFriend(ctx, a, b)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := friendships.RequestFriend(ctx, b, a)
			assert.NoError(t, err)
		}()
		wg.Wait()

		status, err := friendships.GetStatus(ctx, a, b)
		require.NoError(t, err)
		assert.Equal(t, model.FriendshipMutual, status.State)
		require.NotNil(t, status.Forward)
		require.NotNil(t, status.Reverse)
		assert.True(t, status.Forward.Confirmed)
		assert.True(t, status.Reverse.Confirmed)
	}
}

func TestFriendshipStore_ListsAndCommon(t *testing.T) {
	db := requireDB(t)
	fs := store.NewFriendshipStore(db)
	friendships := service.NewFriendshipService(fs)
	ctx := context.Background()

	a, b, c, d := seedUser(t, db), seedUser(t, db), seedUser(t, db), seedUser(t, db)
	mutual := func(x, y uuid.UUID) {
		_, err := friendships.RequestFriend(ctx, x, y)
		require.NoError(t, err)
		_, err = friendships.RequestFriend(ctx, y, x)
		require.NoError(t, err)
	}
	mutual(a, c)
	mutual(b, c)
	mutual(a, d)
	_, err := friendships.RequestFriend(ctx, b, d)
	require.NoError(t, err)

	common, err := fs.MutualFriendIDs(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{c}, common)

	friends, err := fs.FriendIDs(ctx, b)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{c, d}, friends)

	change, err := friendships.RemoveFriend(ctx, a, c)
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipPending, change.To)

	status, err := friendships.GetStatus(ctx, c, a)
	require.NoError(t, err)
	assert.Nil(t, status.Reverse)
	require.NotNil(t, status.Forward)
	assert.False(t, status.Forward.Confirmed)
}

func TestCatalogueFeedAndSettings(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()

	user := seedUser(t, db)
	film := seedFilm(t, db, 2010, model.Genre{ID: 1, Name: "Comedy"})

	exists, err := store.NewUserStore(db).UserExists(ctx, user)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = store.NewFilmStore(db).FilmExists(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, exists)

	films, err := store.NewFilmStore(db).GetFilmsByIDs(ctx, []uuid.UUID{film})
	require.NoError(t, err)
	require.Len(t, films, 1)
	require.Len(t, films[0].Genres, 1)
	assert.Equal(t, "Comedy", films[0].Genres[0].Name)

	feed := store.NewFeedStore(db)
	event := &model.FeedEvent{UserID: user, EventType: model.EventTypeLike, Operation: model.OperationAdd, EntityID: film}
	require.NoError(t, feed.RecordEvent(ctx, event))
	assert.NotEqual(t, uuid.Nil, event.ID)

	settings := store.NewSettingsStore(db)
	require.NoError(t, settings.SaveSetting(ctx, &model.SystemSettings{SettingKey: "recommend_min_overlap", SettingValue: "1"}))
	require.NoError(t, settings.SaveSetting(ctx, &model.SystemSettings{SettingKey: "recommend_min_overlap", SettingValue: "2"}))
	loaded, err := settings.LoadSettings(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "2", loaded[0].SettingValue)
}
