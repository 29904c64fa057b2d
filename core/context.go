package core

import (
	"time"

	"github.com/rushteam/recfusion/pkg/utils"
)

// RecommendContext 承载用户/场景/实时信息，贯穿整个推荐链路透传。
// 各子上下文均为可选：为 nil 表示该维度信息缺失，上下文相关性计算时
// 缺失维度不参与打分（不计入分母，也不算作不匹配）。
type RecommendContext struct {
	UserID string
	Scene  string

	// User 是强类型用户画像
	User *UserProfile

	// 上下文维度（按请求提供，核心不做持久化）
	Time     *TimeContext
	Location *LocationContext
	Device   *DeviceContext
	Session  *SessionContext
	Weather  *WeatherContext
	Activity *ActivityContext

	// Labels 是用户级标签，可驱动整个链路行为
	// 例如：新用户、重度用户、价格敏感等
	Labels map[string]utils.Label

	// Params 请求级上下文参数，用于规则引擎与自定义扩展
	Params map[string]any
}

// TimeContext 时间维度：小时、星期、是否节假日/周末。
type TimeContext struct {
	Timestamp time.Time
	HourOfDay int    // 0-23
	DayOfWeek string // monday ... sunday
	IsWeekend bool
	IsHoliday bool
	Season    string // spring / summer / autumn / winter
}

// LocationContext 地理维度。
type LocationContext struct {
	Country  string
	Region   string
	City     string
	Timezone string
	// Indoor 表示用户当前是否室内场景（如门店内推荐）
	Indoor bool
}

// DeviceContext 设备维度。
type DeviceContext struct {
	Type       string // mobile / tablet / desktop / tv
	OS         string
	Browser    string
	ScreenSize string // small / medium / large
}

// SessionContext 会话维度：本次会话的即时行为信号。
type SessionContext struct {
	SessionID    string
	DurationSec  int64
	PageViews    int
	SearchQuery  string
	EntryChannel string // organic / push / ad / deeplink
}

// WeatherContext 天气维度。
type WeatherContext struct {
	Condition    string // sunny / rainy / snowy / cloudy
	TemperatureC float64
	Humidity     float64
}

// ActivityContext 近期行为维度：最近浏览/加购/收藏/购买。
// 用于"已购惩罚"与互补商品加权。
type ActivityContext struct {
	RecentViews     []string // 物品 ID，按时间倒序
	RecentPurchases []string
	CartItems       []string
	WishlistItems   []string
	// RecentCategories 最近浏览物品的类别集合
	RecentCategories []string
}

// NewRecommendContext 创建一个仅携带 UserID 的最小上下文。
func NewRecommendContext(userID string) *RecommendContext {
	return &RecommendContext{
		UserID: userID,
		Labels: make(map[string]utils.Label),
		Params: make(map[string]any),
	}
}

// HasContext 判断是否携带了任一上下文维度。
func (rctx *RecommendContext) HasContext() bool {
	if rctx == nil {
		return false
	}
	return rctx.Time != nil || rctx.Location != nil || rctx.Device != nil ||
		rctx.Session != nil || rctx.Weather != nil || rctx.Activity != nil
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
