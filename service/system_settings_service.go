package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"filmorate_social/logging"
	"filmorate_social/model"
)

// 可调配置项
const (
	SettingRecommendMinOverlap    = "recommend_min_overlap"
	SettingRecommendNeighborLimit = "recommend_neighbor_limit"
)

// settingDef 配置项说明及取值下限
type settingDef struct {
	description string
	min         int
}

var knownSettings = map[string]settingDef{
	SettingRecommendMinOverlap:    {description: "共同点赞数需严格大于该值才算口味邻居", min: 0},
	SettingRecommendNeighborLimit: {description: "参与推荐的口味邻居数量上限", min: 1},
}

// SystemSettingsService 系统配置服务：数据库为准，内存缓存读取
type SystemSettingsService struct {
	store           SettingsStore
	defaults        RecommendationPolicy
	settingsCache   map[string]string
	settingsCacheMu sync.RWMutex
}

func NewSystemSettingsService(store SettingsStore, defaults RecommendationPolicy) *SystemSettingsService {
	service := &SystemSettingsService{
		store:         store,
		defaults:      defaults,
		settingsCache: make(map[string]string),
	}
	// 启动时加载所有配置到缓存，失败时使用默认值
	if err := service.LoadSettings(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("[SETTINGS] Falling back to configured defaults")
	}
	return service
}

// LoadSettings 从存储加载所有配置到内存缓存
func (s *SystemSettingsService) LoadSettings(ctx context.Context) error {
	settings, err := s.store.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load system settings: %w", err)
	}

	s.settingsCacheMu.Lock()
	defer s.settingsCacheMu.Unlock()

	s.settingsCache = make(map[string]string, len(settings))
	for _, setting := range settings {
		s.settingsCache[setting.SettingKey] = setting.SettingValue
	}

	return nil
}

// GetSetting 获取配置值（从缓存）
func (s *SystemSettingsService) GetSetting(key string) (string, bool) {
	s.settingsCacheMu.RLock()
	defer s.settingsCacheMu.RUnlock()

	value, exists := s.settingsCache[key]
	return value, exists
}

// GetIntSetting 获取整数配置，缺失或非法时返回默认值
func (s *SystemSettingsService) GetIntSetting(key string, defaultValue int) int {
	value, exists := s.GetSetting(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// UpdateSetting 更新配置（同时更新存储和缓存）
func (s *SystemSettingsService) UpdateSetting(ctx context.Context, key, value string) error {
	def, known := knownSettings[key]
	if !known {
		return notFound("setting key %s", key)
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < def.min {
		return invalidOperation("setting %s must be an integer >= %d", key, def.min)
	}

	setting := &model.SystemSettings{
		SettingKey:   key,
		SettingValue: strconv.Itoa(n),
		Description:  def.description,
	}
	if err := s.store.SaveSetting(ctx, setting); err != nil {
		return fmt.Errorf("failed to update setting: %w", err)
	}

	s.settingsCacheMu.Lock()
	s.settingsCache[key] = setting.SettingValue
	s.settingsCacheMu.Unlock()

	logging.Info().Str("key", key).Str("value", setting.SettingValue).Msg("[SETTINGS] Updated")
	return nil
}

// GetAllSettings 当前生效的配置（未落库的项返回默认值）
func (s *SystemSettingsService) GetAllSettings() map[string]string {
	policy := s.RecommendationPolicy()
	result := map[string]string{
		SettingRecommendMinOverlap:    strconv.FormatInt(policy.MinOverlap, 10),
		SettingRecommendNeighborLimit: strconv.Itoa(policy.NeighborLimit),
	}

	s.settingsCacheMu.RLock()
	defer s.settingsCacheMu.RUnlock()
	for k, v := range s.settingsCache {
		if _, known := result[k]; !known {
			result[k] = v
		}
	}
	return result
}

// RecommendationPolicy 实现 PolicySource
func (s *SystemSettingsService) RecommendationPolicy() RecommendationPolicy {
	return RecommendationPolicy{
		MinOverlap:    int64(s.GetIntSetting(SettingRecommendMinOverlap, int(s.defaults.MinOverlap))),
		NeighborLimit: s.GetIntSetting(SettingRecommendNeighborLimit, s.defaults.NeighborLimit),
	}
}
