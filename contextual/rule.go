package contextual

import (
	"log/slog"

	"github.com/rushteam/recfusion/core"
	"github.com/rushteam/recfusion/pkg/dsl"
)

// Rule 是一条上下文规则：When 决定规则是否在当前上下文生效，
// ItemFilter 是物品谓词（pre/post filter 策略用于剔除），
// ScoreAdjustment 是命中后的加性分数调整（score_adjustment 策略用）。
//
// 表达式用 CEL 编写，变量为 item / label / ctx，见 pkg/dsl。
// 例如：
//
//	Rule{
//	  Name:            "rainy_indoor_boost",
//	  When:            `ctx.weather == "rainy"`,
//	  ItemFilter:      `label.category == "indoor"`,
//	  ScoreAdjustment: 0.15,
//	}
type Rule struct {
	Name string

	// When 上下文条件，为空表示始终生效
	When string

	// ItemFilter 物品谓词，为空表示匹配所有物品
	ItemFilter string

	// ScoreAdjustment 加性分数调整，可为负
	ScoreAdjustment float64

	whenPrg   *dsl.Program
	filterPrg *dsl.Program
}

// Compile 编译规则中的表达式，必须在使用前调用一次。
func (r *Rule) Compile() error {
	var err error
	if r.whenPrg, err = dsl.Compile(r.When); err != nil {
		return err
	}
	if r.filterPrg, err = dsl.Compile(r.ItemFilter); err != nil {
		return err
	}
	return nil
}

// CompileRules 批量编译，任一失败即返回错误。
func CompileRules(rules []*Rule) error {
	for _, r := range rules {
		if err := r.Compile(); err != nil {
			return core.NewDomainError(core.ModuleContextual, core.ErrorCodeInvalidInput,
				"rule "+r.Name+": "+err.Error())
		}
	}
	return nil
}

// active 判断规则在当前上下文是否生效。求值失败按不生效处理并记 warning。
func (r *Rule) active(rctx *core.RecommendContext, logger *slog.Logger) bool {
	ok, err := r.whenPrg.EvalItem(nil, rctx)
	if err != nil {
		logger.Warn("contextual: rule condition eval failed, skipping rule",
			"rule", r.Name, "err", err)
		return false
	}
	return ok
}

// matches 判断物品是否命中规则的 ItemFilter。
// 求值失败按"命中"处理（fail-soft：表达式错误不应把物品误杀）。
func (r *Rule) matches(item *core.Item, rctx *core.RecommendContext, logger *slog.Logger) bool {
	ok, err := r.filterPrg.EvalItem(item, rctx)
	if err != nil {
		logger.Warn("contextual: rule item filter eval failed, treating as match",
			"rule", r.Name, "item_id", item.ID, "err", err)
		return true
	}
	return ok
}
