package feature

import "math"

// Cosine 计算两个等长稠密向量的余弦相似度。
// 维度不一致或任一向量为零向量时返回 0。
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Accumulate 将 src*weight 累加到 dst（dst 为空时分配）。
// 用于用户画像的加权平均向量构建。
func Accumulate(dst, src []float64, weight float64) []float64 {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make([]float64, len(src))
	}
	for i := range src {
		dst[i] += src[i] * weight
	}
	return dst
}

// Scale 向量整体缩放（原地）。
func Scale(vec []float64, factor float64) {
	for i := range vec {
		vec[i] *= factor
	}
}
