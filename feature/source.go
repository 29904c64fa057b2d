package feature

import "context"

// Source 是远程特征源的领域接口：按 ID 拉取物品/用户的原始特征字典。
// 实现可以是 Feature Store（见 feast 包）、Redis Hash、HTTP 服务等。
type Source interface {
	// Name 返回特征源名称（用于日志/监控）
	Name() string

	// GetItemFeatures 获取物品特征
	GetItemFeatures(ctx context.Context, itemID string) (map[string]float64, error)

	// GetUserFeatures 获取用户特征
	GetUserFeatures(ctx context.Context, userID string) (map[string]float64, error)
}
