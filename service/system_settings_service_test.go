package service_test

import (
	"context"
	"errors"
	"testing"

	"filmorate_social/model"
	"filmorate_social/service"
	"filmorate_social/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unreachableSettings struct{}

func (unreachableSettings) LoadSettings(context.Context) ([]model.SystemSettings, error) {
	return nil, errors.New("db down")
}

func (unreachableSettings) SaveSetting(context.Context, *model.SystemSettings) error {
	return errors.New("db down")
}

func TestSystemSettings_DefaultsFromConfig(t *testing.T) {
	svc := service.NewSystemSettingsService(memstore.New(), service.RecommendationPolicy{MinOverlap: 2, NeighborLimit: 5})

	assert.Equal(t, service.RecommendationPolicy{MinOverlap: 2, NeighborLimit: 5}, svc.RecommendationPolicy())
	assert.Equal(t, map[string]string{
		service.SettingRecommendMinOverlap:    "2",
		service.SettingRecommendNeighborLimit: "5",
	}, svc.GetAllSettings())
}

func TestSystemSettings_UpdatePersistsAndReloads(t *testing.T) {
	mem := memstore.New()
	ctx := context.Background()
	svc := service.NewSystemSettingsService(mem, service.DefaultRecommendationPolicy())

	require.NoError(t, svc.UpdateSetting(ctx, service.SettingRecommendNeighborLimit, "3"))
	assert.Equal(t, 3, svc.RecommendationPolicy().NeighborLimit)

	// 新实例从存储读取
	reloaded := service.NewSystemSettingsService(mem, service.DefaultRecommendationPolicy())
	assert.Equal(t, 3, reloaded.RecommendationPolicy().NeighborLimit)
	assert.Equal(t, int64(1), reloaded.RecommendationPolicy().MinOverlap)
}

func TestSystemSettings_RejectsBadValues(t *testing.T) {
	svc := service.NewSystemSettingsService(memstore.New(), service.DefaultRecommendationPolicy())
	ctx := context.Background()

	assert.ErrorIs(t, svc.UpdateSetting(ctx, "enable_everything", "1"), service.ErrNotFound)
	assert.ErrorIs(t, svc.UpdateSetting(ctx, service.SettingRecommendNeighborLimit, "0"), service.ErrInvalidOperation)
	assert.ErrorIs(t, svc.UpdateSetting(ctx, service.SettingRecommendMinOverlap, "many"), service.ErrInvalidOperation)
	assert.Equal(t, service.DefaultRecommendationPolicy(), svc.RecommendationPolicy())
}

func TestSystemSettings_StoreFailureKeepsDefaults(t *testing.T) {
	svc := service.NewSystemSettingsService(unreachableSettings{}, service.DefaultRecommendationPolicy())

	assert.Equal(t, service.DefaultRecommendationPolicy(), svc.RecommendationPolicy())
	assert.Error(t, svc.LoadSettings(context.Background()))
	assert.Error(t, svc.UpdateSetting(context.Background(), service.SettingRecommendMinOverlap, "2"))
}

func TestSystemSettings_DrivesRecommendationPolicy(t *testing.T) {
	mem, users, films := tasteScenario(t)
	ctx := context.Background()
	settings := service.NewSystemSettingsService(mem, service.DefaultRecommendationPolicy())
	engine := service.NewRecommendationEngine(mem, settings)

	neighbors, err := engine.Neighbors(ctx, users[0])
	require.NoError(t, err)
	assert.Len(t, neighbors, 1)

	require.NoError(t, settings.UpdateSetting(ctx, service.SettingRecommendMinOverlap, "0"))
	neighbors, err = engine.Neighbors(ctx, users[0])
	require.NoError(t, err)
	assert.Len(t, neighbors, 2)

	recs, err := engine.Recommend(ctx, users[0])
	require.NoError(t, err)
	assert.Equal(t, films[3:], recs)
}
