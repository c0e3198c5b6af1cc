package service_test

import (
	"context"
	"testing"

	"filmorate_social/model"
	"filmorate_social/service"
	"filmorate_social/store/memstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func like(t *testing.T, mem *memstore.Store, user uuid.UUID, films ...uuid.UUID) {
	t.Helper()
	for _, f := range films {
		_, err := mem.AddLike(context.Background(), user, f)
		require.NoError(t, err)
	}
}

// 三个用户的基准场景：U1 {F1,F2,F3}, U2 {F1,F2,F4}, U3 {F1}
func tasteScenario(t *testing.T) (*memstore.Store, []uuid.UUID, []uuid.UUID) {
	mem := memstore.New()
	films := []uuid.UUID{addFilm(mem, 1, 2000), addFilm(mem, 2, 2000), addFilm(mem, 3, 2000), addFilm(mem, 4, 2000)}
	users := []uuid.UUID{
		mem.AddUser(model.User{Login: "u1"}).ID,
		mem.AddUser(model.User{Login: "u2"}).ID,
		mem.AddUser(model.User{Login: "u3"}).ID,
	}
	like(t, mem, users[0], films[0], films[1], films[2])
	like(t, mem, users[1], films[0], films[1], films[3])
	like(t, mem, users[2], films[0])
	return mem, users, films
}

func TestOverlapCounts_ExcludesSelfAndBounded(t *testing.T) {
	mem, users, _ := tasteScenario(t)
	ctx := context.Background()

	overlaps, err := mem.OverlapCounts(ctx, users[0])
	require.NoError(t, err)

	byUser := map[uuid.UUID]int64{}
	for _, n := range overlaps {
		byUser[n.UserID] = n.Overlap
	}
	assert.NotContains(t, byUser, users[0])
	assert.Equal(t, int64(2), byUser[users[1]])
	assert.Equal(t, int64(1), byUser[users[2]])

	mine, _ := mem.FilmsLikedBy(ctx, users[0])
	for _, n := range overlaps {
		theirs, _ := mem.FilmsLikedBy(ctx, n.UserID)
		assert.LessOrEqual(t, n.Overlap, int64(min(len(mine), len(theirs))))
	}
}

func TestRecommend_Scenario(t *testing.T) {
	mem, users, films := tasteScenario(t)
	engine := service.NewRecommendationEngine(mem, nil)

	neighbors, err := engine.Neighbors(context.Background(), users[0])
	require.NoError(t, err)
	assert.Equal(t, []model.TasteNeighbor{{UserID: users[1], Overlap: 2}}, neighbors)

	recs, err := engine.Recommend(context.Background(), users[0])
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{films[3]}, recs)
}

func TestRecommend_ZeroLikesIsEmpty(t *testing.T) {
	mem, _, _ := tasteScenario(t)
	lonely := mem.AddUser(model.User{Login: "lonely"}).ID

	recs, err := service.NewRecommendationEngine(mem, nil).Recommend(context.Background(), lonely)
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestRecommend_ExhaustedNeighborsIsEmpty(t *testing.T) {
	mem, users, films := tasteScenario(t)
	like(t, mem, users[0], films[3])

	recs, err := service.NewRecommendationEngine(mem, nil).Recommend(context.Background(), users[0])
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRecommend_NeverContainsLikedFilms(t *testing.T) {
	mem := memstore.New()
	ctx := context.Background()
	var films []uuid.UUID
	for i := 1; i <= 8; i++ {
		films = append(films, addFilm(mem, i, 2000))
	}
	var users []uuid.UUID
	for i := 0; i < 6; i++ {
		users = append(users, mem.AddUser(model.User{}).ID)
	}
	// 每个用户点赞一段连续窗口，制造不同程度的重叠
	for i, u := range users {
		like(t, mem, u, films[i:i+3]...)
	}

	engine := service.NewRecommendationEngine(mem, service.StaticPolicy{MinOverlap: 0, NeighborLimit: 10})
	for _, u := range users {
		recs, err := engine.Recommend(ctx, u)
		require.NoError(t, err)
		liked, err := mem.FilmsLikedBy(ctx, u)
		require.NoError(t, err)
		for _, id := range recs {
			assert.NotContains(t, liked, id)
		}
	}
}

func TestNeighbors_PolicyIsConfigurable(t *testing.T) {
	mem, users, films := tasteScenario(t)
	ctx := context.Background()

	relaxed := service.NewRecommendationEngine(mem, service.StaticPolicy{MinOverlap: 0, NeighborLimit: 10})
	neighbors, err := relaxed.Neighbors(ctx, users[0])
	require.NoError(t, err)
	require.Len(t, neighbors, 2)
	assert.Equal(t, users[1], neighbors[0].UserID)
	assert.Equal(t, users[2], neighbors[1].UserID)

	limited := service.NewRecommendationEngine(mem, service.StaticPolicy{MinOverlap: 0, NeighborLimit: 1})
	neighbors, err = limited.Neighbors(ctx, users[0])
	require.NoError(t, err)
	assert.Equal(t, []model.TasteNeighbor{{UserID: users[1], Overlap: 2}}, neighbors)

	recs, err := limited.Recommend(ctx, users[0])
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{films[3]}, recs)
}
