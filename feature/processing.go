package feature

// Normalizer 是特征归一化/标准化接口。
type Normalizer interface {
	// Normalize 归一化特征字典
	Normalize(features map[string]float64) map[string]float64
	// NormalizeValueWithKey 归一化单个值（指定特征名）
	NormalizeValueWithKey(key string, value float64) float64
}

// MinMaxNormalizer Min-Max 归一化
// 公式: x' = (x - min) / (max - min)
// 特点: 将值缩放到 [0, 1] 区间；min == max 时返回 0（单点区间无信息量）。
type MinMaxNormalizer struct {
	Min map[string]float64 // 特征最小值
	Max map[string]float64 // 特征最大值
}

// NewMinMaxNormalizer 创建 Min-Max 归一化器。
func NewMinMaxNormalizer(min, max map[string]float64) *MinMaxNormalizer {
	return &MinMaxNormalizer{
		Min: min,
		Max: max,
	}
}

// Normalize 归一化特征字典。
func (n *MinMaxNormalizer) Normalize(features map[string]float64) map[string]float64 {
	normalized := make(map[string]float64, len(features))
	for k, v := range features {
		normalized[k] = n.NormalizeValueWithKey(k, v)
	}
	return normalized
}

// NormalizeValueWithKey 归一化单个值（指定特征名）。
func (n *MinMaxNormalizer) NormalizeValueWithKey(key string, value float64) float64 {
	minVal, okMin := n.Min[key]
	maxVal, okMax := n.Max[key]
	if !okMin || !okMax || maxVal <= minVal {
		return 0
	}
	x := (value - minVal) / (maxVal - minVal)
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

var _ Normalizer = (*MinMaxNormalizer)(nil)
