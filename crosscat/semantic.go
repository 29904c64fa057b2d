package crosscat

import "github.com/rushteam/recfusion/feature"

// SemanticScorer 计算两个类别的语义相似度，作为关系发现的独立来源。
// 默认实现是词元 Jaccard；接入真实 NLP 能力时替换此接口即可。
type SemanticScorer interface {
	// Similarity 输入两个类别各自的产品文本（名称 + 描述），返回 [0,1] 相似度。
	Similarity(textsA, textsB []string) float64
}

// TokenJaccardScorer 基于产品文本词元集合的 Jaccard 相似度。
// 词元化复用特征抽取的 Tokenize（小写、非字母数字切分）。
type TokenJaccardScorer struct{}

var _ SemanticScorer = TokenJaccardScorer{}

func (TokenJaccardScorer) Similarity(textsA, textsB []string) float64 {
	setA := tokenSet(textsA)
	setB := tokenSet(textsB)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	var inter int
	for tok := range setA {
		if setB[tok] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func tokenSet(texts []string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range texts {
		for _, tok := range feature.Tokenize(t) {
			set[tok] = true
		}
	}
	return set
}
