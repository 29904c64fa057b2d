package feature

import (
	"math"
	"sort"
	"strings"

	"github.com/rushteam/recfusion/core"
)

// RawItem 是特征抽取的输入：物品 ID + 扁平字段映射。
// 字段值类型约定：
//   - 文本字段：string
//   - 类别字段：string 或 []string
//   - 数值字段：可转 float64 的数字
//   - 标签字段：[]string
type RawItem struct {
	ID     string
	Fields map[string]any
}

// ExtractorConfig 声明各字段归属的特征类型。
// 未声明的字段被忽略。
type ExtractorConfig struct {
	TextFields        []string
	CategoricalFields []string
	NumericalFields   []string
	TagFields         []string
}

// ItemVectors 是单个物品的四类特征向量。
// 同一个已 fit 的 Extractor 实例内，各类向量维度恒定。
type ItemVectors struct {
	Text        []float64 // TF-IDF，L2 归一化
	Categorical []float64 // one-hot（field=value 维度）
	Numerical   []float64 // min-max 归一化
	Tags        []float64 // 二值
}

// Extractor 把原始物品记录转成文本/类别/数值/标签特征向量。
//
// 生命周期：Fit 一次构建词表与归一化区间，之后只读；
// 需要反映新物品/新词时整体重新 Fit（不做增量更新）。
type Extractor struct {
	Config ExtractorConfig

	fitted bool

	// 文本空间
	textVocab map[string]int // token -> 维度下标
	idf       []float64
	textDim   int

	// 类别空间（"field=value" -> 维度下标）
	catVocab map[string]int
	catDim   int

	// 数值空间
	numFields []string // 排序后的字段名，决定维度顺序
	numNorm   *MinMaxNormalizer

	// 标签空间
	tagVocab map[string]int
	tagDim   int

	// 已 fit 物品的向量与原始字段
	vectors map[string]*ItemVectors
	raw     map[string]RawItem
	order   []string // fit 时的物品顺序，保证遍历确定性
}

// NewExtractor 创建特征抽取器。
func NewExtractor(cfg ExtractorConfig) *Extractor {
	return &Extractor{Config: cfg}
}

// Fit 扫描全部物品，构建各特征空间的词表/区间，并向量化每个物品。
func (e *Extractor) Fit(items []RawItem) error {
	if len(items) == 0 {
		return core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, "feature: no items to fit")
	}

	e.textVocab = make(map[string]int)
	e.catVocab = make(map[string]int)
	e.tagVocab = make(map[string]int)
	e.vectors = make(map[string]*ItemVectors, len(items))
	e.raw = make(map[string]RawItem, len(items))
	e.order = make([]string, 0, len(items))

	// 1. 文本：收集词表与文档频率
	df := make(map[string]int)
	for _, it := range items {
		seen := make(map[string]bool)
		for _, tok := range e.itemTokens(it) {
			if _, ok := e.textVocab[tok]; !ok {
				e.textVocab[tok] = len(e.textVocab)
			}
			if !seen[tok] {
				df[tok]++
				seen[tok] = true
			}
		}
	}
	e.textDim = len(e.textVocab)
	e.idf = make([]float64, e.textDim)
	n := float64(len(items))
	for tok, idx := range e.textVocab {
		// 平滑 IDF，保证恒为正
		e.idf[idx] = math.Log(n/(1.0+float64(df[tok]))) + 1.0
	}

	// 2. 类别：field=value 维度
	for _, it := range items {
		for _, v := range e.itemCategories(it) {
			if _, ok := e.catVocab[v]; !ok {
				e.catVocab[v] = len(e.catVocab)
			}
		}
	}
	e.catDim = len(e.catVocab)

	// 3. 数值：min/max 区间
	e.numFields = append([]string(nil), e.Config.NumericalFields...)
	sort.Strings(e.numFields)
	minVals := make(map[string]float64, len(e.numFields))
	maxVals := make(map[string]float64, len(e.numFields))
	for _, it := range items {
		for _, f := range e.numFields {
			v, ok := numericValue(it.Fields[f])
			if !ok {
				continue
			}
			if cur, seen := minVals[f]; !seen || v < cur {
				minVals[f] = v
			}
			if cur, seen := maxVals[f]; !seen || v > cur {
				maxVals[f] = v
			}
		}
	}
	e.numNorm = NewMinMaxNormalizer(minVals, maxVals)

	// 4. 标签：二值词表
	for _, it := range items {
		for _, tag := range e.itemTags(it) {
			if _, ok := e.tagVocab[tag]; !ok {
				e.tagVocab[tag] = len(e.tagVocab)
			}
		}
	}
	e.tagDim = len(e.tagVocab)

	// 5. 向量化全部物品
	for _, it := range items {
		e.vectors[it.ID] = e.transform(it)
		e.raw[it.ID] = it
		e.order = append(e.order, it.ID)
	}

	e.fitted = true
	return nil
}

// Fitted 返回是否已完成 Fit。
func (e *Extractor) Fitted() bool { return e.fitted }

// Vectors 返回已 fit 物品的特征向量；未知物品返回 nil。
func (e *Extractor) Vectors(itemID string) *ItemVectors {
	if e.vectors == nil {
		return nil
	}
	return e.vectors[itemID]
}

// Raw 返回已 fit 物品的原始记录。
func (e *Extractor) Raw(itemID string) (RawItem, bool) {
	it, ok := e.raw[itemID]
	return it, ok
}

// ItemIDs 返回 fit 时的物品顺序（确定性遍历用）。
func (e *Extractor) ItemIDs() []string { return e.order }

// Transform 用已 fit 的词表向量化一个新物品。OOV 的词/类别/标签落不进任何维度。
func (e *Extractor) Transform(it RawItem) *ItemVectors {
	if !e.fitted {
		return nil
	}
	return e.transform(it)
}

// Density 返回物品特征的致密度：四类向量非零单元占总维度的比例。
// 用于置信度计算：特征越稀疏的物品，同样的相似度分应当给更低置信度。
func (e *Extractor) Density(itemID string) float64 {
	vecs := e.Vectors(itemID)
	if vecs == nil {
		return 0
	}
	total := e.textDim + e.catDim + len(e.numFields) + e.tagDim
	if total == 0 {
		return 0
	}
	nonZero := 0
	for _, v := range [][]float64{vecs.Text, vecs.Categorical, vecs.Numerical, vecs.Tags} {
		for _, x := range v {
			if x != 0 {
				nonZero++
			}
		}
	}
	return float64(nonZero) / float64(total)
}

func (e *Extractor) transform(it RawItem) *ItemVectors {
	vecs := &ItemVectors{}

	// 文本：TF-IDF + L2 归一化
	if e.textDim > 0 {
		vec := make([]float64, e.textDim)
		toks := e.itemTokens(it)
		if len(toks) > 0 {
			counts := make(map[int]int)
			known := 0
			for _, tok := range toks {
				if idx, ok := e.textVocab[tok]; ok {
					counts[idx]++
					known++
				}
			}
			if known > 0 {
				for idx, c := range counts {
					tf := float64(c) / float64(known)
					vec[idx] = tf * e.idf[idx]
				}
				l2Normalize(vec)
			}
		}
		vecs.Text = vec
	}

	// 类别：one-hot
	if e.catDim > 0 {
		vec := make([]float64, e.catDim)
		for _, v := range e.itemCategories(it) {
			if idx, ok := e.catVocab[v]; ok {
				vec[idx] = 1.0
			}
		}
		vecs.Categorical = vec
	}

	// 数值：min-max
	if len(e.numFields) > 0 {
		vec := make([]float64, len(e.numFields))
		for i, f := range e.numFields {
			if v, ok := numericValue(it.Fields[f]); ok {
				vec[i] = e.numNorm.NormalizeValueWithKey(f, v)
			}
		}
		vecs.Numerical = vec
	}

	// 标签：二值
	if e.tagDim > 0 {
		vec := make([]float64, e.tagDim)
		for _, tag := range e.itemTags(it) {
			if idx, ok := e.tagVocab[tag]; ok {
				vec[idx] = 1.0
			}
		}
		vecs.Tags = vec
	}

	return vecs
}

func (e *Extractor) itemTokens(it RawItem) []string {
	var toks []string
	for _, f := range e.Config.TextFields {
		if s, ok := it.Fields[f].(string); ok {
			toks = append(toks, Tokenize(s)...)
		}
	}
	return toks
}

func (e *Extractor) itemCategories(it RawItem) []string {
	var vals []string
	for _, f := range e.Config.CategoricalFields {
		switch v := it.Fields[f].(type) {
		case string:
			if v != "" {
				vals = append(vals, f+"="+v)
			}
		case []string:
			for _, s := range v {
				if s != "" {
					vals = append(vals, f+"="+s)
				}
			}
		case []any:
			for _, raw := range v {
				if s, ok := raw.(string); ok && s != "" {
					vals = append(vals, f+"="+s)
				}
			}
		}
	}
	return vals
}

func (e *Extractor) itemTags(it RawItem) []string {
	var tags []string
	for _, f := range e.Config.TagFields {
		switch v := it.Fields[f].(type) {
		case []string:
			tags = append(tags, v...)
		case []any:
			for _, raw := range v {
				if s, ok := raw.(string); ok {
					tags = append(tags, s)
				}
			}
		case string:
			if v != "" {
				tags = append(tags, v)
			}
		}
	}
	return tags
}

// Tokenize 小写化并按非字母数字切分。
func Tokenize(s string) []string {
	s = strings.ToLower(s)
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}

func numericValue(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	default:
		return 0, false
	}
}

func l2Normalize(vec []float64) {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
}
