// Package dsl 提供基于 CEL (Common Expression Language) 的规则表达式求值，
// 用于上下文规则的 item 过滤谓词与策略条件。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/recfusion/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量。
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("ctx", cel.DynType),
	)
}

// getCELEnv 获取或创建 CEL 环境。
func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

// Program 是一条已编译的规则表达式，可被并发复用。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：label.category == "electronics" / item.score > 0.7
//   - 逻辑：ctx.device_type == "mobile" && item.score > 0.5
//   - 包含："outdoor" in item.meta.suitable_for
//   - 存在性：label.category != null
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译一条规则表达式。表达式为空时返回 nil Program（恒为 true）。
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return nil, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// Expr 返回原始表达式文本。
func (p *Program) Expr() string {
	if p == nil {
		return ""
	}
	return p.expr
}

// EvalItem 对单个 item + 上下文求值，返回布尔结果。
// nil Program 恒为 true。对不存在 key 的直接访问 CEL 会报错，
// 规则作者应使用 `label.key != null` 检查存在性。
func (p *Program) EvalItem(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if p == nil {
		return true, nil
	}

	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据。
func buildInput(it *core.Item, rctx *core.RecommendContext) map[string]interface{} {
	labels := make(map[string]interface{})
	item := map[string]interface{}{}
	if it != nil {
		for k, v := range it.Labels {
			labels[k] = v.Value
		}
		item = map[string]interface{}{
			"id":       it.ID,
			"score":    it.Score,
			"features": it.Features,
			"meta":     it.Meta,
		}
	}

	ctxMap := map[string]interface{}{}
	if rctx != nil {
		ctxMap["user_id"] = rctx.UserID
		ctxMap["scene"] = rctx.Scene
		if rctx.Time != nil {
			ctxMap["hour_of_day"] = rctx.Time.HourOfDay
			ctxMap["day_of_week"] = rctx.Time.DayOfWeek
			ctxMap["is_weekend"] = rctx.Time.IsWeekend
			ctxMap["is_holiday"] = rctx.Time.IsHoliday
			ctxMap["season"] = rctx.Time.Season
		}
		if rctx.Device != nil {
			ctxMap["device_type"] = rctx.Device.Type
			ctxMap["os"] = rctx.Device.OS
			ctxMap["screen_size"] = rctx.Device.ScreenSize
		}
		if rctx.Location != nil {
			ctxMap["country"] = rctx.Location.Country
			ctxMap["region"] = rctx.Location.Region
			ctxMap["city"] = rctx.Location.City
		}
		if rctx.Weather != nil {
			ctxMap["weather"] = rctx.Weather.Condition
			ctxMap["temperature_c"] = rctx.Weather.TemperatureC
		}
		if rctx.Session != nil {
			ctxMap["session_page_views"] = rctx.Session.PageViews
			ctxMap["entry_channel"] = rctx.Session.EntryChannel
		}
		for k, v := range rctx.Params {
			ctxMap[k] = v
		}
	}

	return map[string]interface{}{
		"item":  item,
		"label": labels,
		"ctx":   ctxMap,
	}
}
