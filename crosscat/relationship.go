package crosscat

import "time"

// Method 标记一条类别关系的来源。
type Method string

const (
	MethodCollaborative Method = "collaborative" // 协同共现
	MethodSemantic      Method = "semantic"      // 语义相似
	MethodSequence      Method = "sequence"      // 购买序列
	MethodHybrid        Method = "hybrid"        // 共现与序列都发现了同一对
	MethodManual        Method = "manual"        // 人工配置，优先级最高
)

// CategoryRelationship 两个类别间的关联强度。
// Source / Target 恒为字典序（Source < Target），同一对类别只存一条。
type CategoryRelationship struct {
	Source        string
	Target        string
	Strength      float64 // [0,1]
	EvidenceCount int
	Method        Method
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// pairKey 返回字典序规范化后的 (source, target) 与存储键。
func pairKey(a, b string) (source, target, key string) {
	if a > b {
		a, b = b, a
	}
	return a, b, a + "|" + b
}

// Other 返回这条关系里 category 的对端类别；不相关时返回空串。
func (r *CategoryRelationship) Other(category string) string {
	switch category {
	case r.Source:
		return r.Target
	case r.Target:
		return r.Source
	}
	return ""
}
