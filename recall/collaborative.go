// Package recall 提供混合推荐的候选来源：协同过滤模型契约与默认实现。
package recall

import (
	"context"

	"github.com/rushteam/recfusion/core"
)

// SourceName 写入 item "source" 标签的算法来源名。
const SourceName = "collaborative"

// CollaborativeModel 是协同过滤模型的契约。
// 混合层只依赖此接口；实现可以是本包的 ItemBasedCF，
// 也可以是离线训练结果的在线查表、或远程打分服务的客户端。
type CollaborativeModel interface {
	// Name 返回模型名称（用于日志/标签）
	Name() string

	// Fit 用交互矩阵训练/装载模型
	// interactions: userID -> {itemID: 强度}
	Fit(interactions map[string]map[string]float64) error

	// Recommend 为用户生成候选，分数与置信度均落在 [0,1]
	// excludedIDs 中的物品与用户已交互物品不出现在结果中
	Recommend(ctx context.Context, userID string, excludedIDs []string) ([]*core.Item, error)
}

// InteractionStore 是交互数据的存储接口，用于从 Redis/MySQL 等加载交互矩阵。
type InteractionStore interface {
	// GetAllInteractions 拉取全量交互矩阵：userID -> {itemID: 强度}
	GetAllInteractions(ctx context.Context) (map[string]map[string]float64, error)
}
