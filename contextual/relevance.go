package contextual

import (
	"github.com/rushteam/recfusion/core"
	"github.com/rushteam/recfusion/pkg/conv"
)

// 各维度相关性函数约定：
//
//   - 返回 (score, ok)。ok 为 false 表示该维度在物品元数据或上下文中
//     缺失，不参与整体相关性的加权平均（既不算匹配也不算不匹配）。
//   - score 为子条件命中比例，范围 [0,1]；行为维度因已购惩罚可为负。
//   - 子条件同样遵循"双方都有才计入分母"的规则。
//
// 物品元数据键约定（Meta，扁平 map，列表值可为 []string 或 []any）：
//
//	time_of_day        morning / afternoon / evening / night 列表
//	weekend_suitable   bool
//	seasons            spring / summer / autumn / winter 列表
//	holiday_suitable   bool
//	countries          国家代码列表
//	indoor             bool
//	devices            mobile / tablet / desktop / tv 列表
//	weather_conditions sunny / rainy / snowy / cloudy 列表
//	min_temperature_c  数值
//	max_temperature_c  数值
//	complementary_to   互补物品 ID 列表

// 维度名，用作 Config.DimensionWeights 的 key
const (
	DimTime     = "time"
	DimLocation = "location"
	DimDevice   = "device"
	DimWeather  = "weather"
	DimActivity = "activity"
	DimInterest = "interest"
)

// recentPurchasePenalty 近期已购物品的相关性惩罚
const recentPurchasePenalty = -0.8

func timeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 22:
		return "evening"
	default:
		return "night"
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func metaStrings(meta map[string]any, key string) []string {
	if meta == nil {
		return nil
	}
	return conv.SliceAnyToString(meta[key])
}

func metaBool(meta map[string]any, key string) (bool, bool) {
	if meta == nil {
		return false, false
	}
	b, ok := meta[key].(bool)
	return b, ok
}

func metaFloat(meta map[string]any, key string) (float64, bool) {
	if meta == nil {
		return 0, false
	}
	v, ok := meta[key]
	if !ok {
		return 0, false
	}
	return conv.ToFloat64(v)
}

// timeRelevance 时间维度相关性。
func timeRelevance(item *core.Item, tctx *core.TimeContext) (float64, bool) {
	if tctx == nil {
		return 0, false
	}
	var matched, total float64

	if tods := metaStrings(item.Meta, "time_of_day"); len(tods) > 0 {
		total++
		if containsString(tods, timeOfDay(tctx.HourOfDay)) {
			matched++
		}
	}
	if wk, ok := metaBool(item.Meta, "weekend_suitable"); ok {
		total++
		if wk == tctx.IsWeekend {
			matched++
		}
	}
	if seasons := metaStrings(item.Meta, "seasons"); len(seasons) > 0 && tctx.Season != "" {
		total++
		if containsString(seasons, tctx.Season) {
			matched++
		}
	}
	if hol, ok := metaBool(item.Meta, "holiday_suitable"); ok && tctx.IsHoliday {
		total++
		if hol {
			matched++
		}
	}
	if total == 0 {
		return 0, false
	}
	return matched / total, true
}

// locationRelevance 地理维度相关性。
func locationRelevance(item *core.Item, lctx *core.LocationContext) (float64, bool) {
	if lctx == nil {
		return 0, false
	}
	var matched, total float64

	if countries := metaStrings(item.Meta, "countries"); len(countries) > 0 && lctx.Country != "" {
		total++
		if containsString(countries, lctx.Country) {
			matched++
		}
	}
	if indoor, ok := metaBool(item.Meta, "indoor"); ok {
		total++
		if indoor == lctx.Indoor {
			matched++
		}
	}
	if total == 0 {
		return 0, false
	}
	return matched / total, true
}

// deviceRelevance 设备维度相关性。
func deviceRelevance(item *core.Item, dctx *core.DeviceContext) (float64, bool) {
	if dctx == nil || dctx.Type == "" {
		return 0, false
	}
	devices := metaStrings(item.Meta, "devices")
	if len(devices) == 0 {
		return 0, false
	}
	if containsString(devices, dctx.Type) {
		return 1, true
	}
	return 0, true
}

// weatherRelevance 天气维度相关性。
func weatherRelevance(item *core.Item, wctx *core.WeatherContext) (float64, bool) {
	if wctx == nil {
		return 0, false
	}
	var matched, total float64

	if conds := metaStrings(item.Meta, "weather_conditions"); len(conds) > 0 && wctx.Condition != "" {
		total++
		if containsString(conds, wctx.Condition) {
			matched++
		}
	}
	minT, hasMin := metaFloat(item.Meta, "min_temperature_c")
	maxT, hasMax := metaFloat(item.Meta, "max_temperature_c")
	if hasMin || hasMax {
		total++
		inRange := true
		if hasMin && wctx.TemperatureC < minT {
			inRange = false
		}
		if hasMax && wctx.TemperatureC > maxT {
			inRange = false
		}
		if inRange {
			matched++
		}
	}
	if total == 0 {
		return 0, false
	}
	return matched / total, true
}

// interestRelevance 画像兴趣维度相关性：取物品类别在用户长期兴趣
// 中的权重，类别不在兴趣表中记 0。画像缺失或没有兴趣时不参与打分。
func interestRelevance(item *core.Item, user *core.UserProfile) (float64, bool) {
	if user == nil || len(user.Interests) == 0 {
		return 0, false
	}
	cat := item.Category()
	if cat == "" {
		return 0, false
	}
	w := user.Interests[cat]
	if w < 0 {
		w = 0
	} else if w > 1 {
		w = 1
	}
	return w, true
}

// activityRelevance 近期行为维度相关性。
// 近期已购的物品直接给惩罚分；否则按互补（购物车/心愿单）与
// 最近浏览类别重合度打分。
func activityRelevance(item *core.Item, actx *core.ActivityContext) (float64, bool) {
	if actx == nil {
		return 0, false
	}
	if containsString(actx.RecentPurchases, item.ID) {
		return recentPurchasePenalty, true
	}

	var matched, total float64

	if comp := metaStrings(item.Meta, "complementary_to"); len(comp) > 0 &&
		(len(actx.CartItems) > 0 || len(actx.WishlistItems) > 0) {
		total++
		for _, id := range comp {
			if containsString(actx.CartItems, id) || containsString(actx.WishlistItems, id) {
				matched++
				break
			}
		}
	}
	if cat := item.Category(); cat != "" && len(actx.RecentCategories) > 0 {
		total++
		if containsString(actx.RecentCategories, cat) {
			matched++
		}
	}
	if total == 0 {
		return 0, false
	}
	return matched / total, true
}
