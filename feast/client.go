// Package feast 基于官方 Feast Go SDK 实现远程特征源，
// 作为 feature.Source 的基础设施层实现接入特征抽取与补全。
//
// 参考：https://github.com/feast-dev/feast
package feast

import (
	"context"
	"time"
)

// Client 是 Feast Feature Server 的客户端接口。
// 领域层只依赖在线特征读取；物化、注册等管理操作
// 属于特征平台侧，不在此接口内。
type Client interface {
	// GetOnlineFeatures 获取在线特征（用于实时推荐）
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端连接
	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求。
type GetOnlineFeaturesRequest struct {
	// Features 特征名称列表，例如 ["item_stats:ctr", "item_stats:price"]
	Features []string

	// EntityRows 实体行，例如 [{"item_id": "p1"}]
	EntityRows []map[string]interface{}

	// Project 项目名称（可选，缺省用客户端配置）
	Project string
}

// GetOnlineFeaturesResponse 获取在线特征响应。
type GetOnlineFeaturesResponse struct {
	// FeatureVectors 特征向量列表，每个元素对应一个实体行
	FeatureVectors []FeatureVector
}

// FeatureVector 单个实体的特征值集合。
type FeatureVector struct {
	// Values key 为特征名称
	Values map[string]interface{}

	// EntityRow 对应的实体行
	EntityRow map[string]interface{}
}

// ClientOption 客户端配置选项。
type ClientOption func(*ClientConfig)

// ClientConfig 客户端配置。
type ClientConfig struct {
	Endpoint string
	Project  string
	Timeout  time.Duration

	// Auth 认证信息，nil 表示无认证
	Auth *AuthConfig
}

// AuthConfig 认证配置。
type AuthConfig struct {
	// Type 认证类型，目前支持 "static"（静态 Token）
	Type string

	// Token static 认证的 Token
	Token string
}

// WithTimeout 配置选项：设置超时时间。
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithAuth 配置选项：设置认证信息。
func WithAuth(auth *AuthConfig) ClientOption {
	return func(c *ClientConfig) {
		c.Auth = auth
	}
}
