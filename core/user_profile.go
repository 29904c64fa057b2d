package core

import "time"

// UserProfile 是用户画像的核心抽象。
//
// 它不是某一个组件，而是：
//   - 被各推荐组件共享
//   - 驱动内容召回 / 混合融合 / 上下文调权
//   - 可以被 Label 打标、回写、持续演进
//
// 维度划分：
//
//	静态属性      冷启动 / 基础过滤
//	长期兴趣      内容/协同召回核心
//	短期行为      实时调权
//	实验桶        策略切换
type UserProfile struct {
	UserID string

	// 静态属性（冷启动 / 基础过滤）
	Gender   string // male / female / unknown
	Age      int
	Location string

	// 兴趣画像（长期）
	// key: category/tag，value: weight (0-1)
	Interests map[string]float64

	// 行为统计（短期）
	RecentClicks  []string
	RecentImpress []string

	// InteractionCount 累计交互次数，混合策略用它判断冷启动
	InteractionCount int

	// 控制与实验（策略切换）
	Buckets map[string]string

	// 元数据
	UpdateTime time.Time
}

// NewUserProfile 创建一个新的用户画像。
func NewUserProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:        userID,
		Interests:     make(map[string]float64),
		RecentClicks:  make([]string, 0),
		RecentImpress: make([]string, 0),
		Buckets:       make(map[string]string),
		UpdateTime:    time.Now(),
	}
}

// UpdateInterest 更新用户兴趣。
func (p *UserProfile) UpdateInterest(category string, weight float64) {
	if p.Interests == nil {
		p.Interests = make(map[string]float64)
	}
	p.Interests[category] = weight
	p.UpdateTime = time.Now()
}

// AddRecentClick 添加最近点击记录，去重并限制长度。
func (p *UserProfile) AddRecentClick(itemID string, maxSize int) {
	for _, id := range p.RecentClicks {
		if id == itemID {
			return
		}
	}
	p.RecentClicks = append(p.RecentClicks, itemID)
	if maxSize > 0 && len(p.RecentClicks) > maxSize {
		p.RecentClicks = p.RecentClicks[len(p.RecentClicks)-maxSize:]
	}
	p.InteractionCount++
	p.UpdateTime = time.Now()
}

// SetBucket 设置实验桶。
func (p *UserProfile) SetBucket(key, value string) {
	if p.Buckets == nil {
		p.Buckets = make(map[string]string)
	}
	p.Buckets[key] = value
}

// GetBucket 获取实验桶值。
func (p *UserProfile) GetBucket(key string) string {
	if p.Buckets == nil {
		return ""
	}
	return p.Buckets[key]
}

// HasInterest 检查用户是否有某个兴趣且权重不低于阈值。
func (p *UserProfile) HasInterest(category string, threshold float64) bool {
	if p.Interests == nil {
		return false
	}
	weight, ok := p.Interests[category]
	return ok && weight >= threshold
}
