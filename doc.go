// Package recfusion 是一个混合推荐引擎（Recommendation Fusion）。
//
// 设计要点：
// - 多策略融合: 协同过滤与内容过滤按 weighted / switching / cascade / mixed 策略合成单一有序列表
// - 上下文感知: 时间/地理/设备/天气/近期行为维度与 CEL 规则对候选过滤或调权
// - Pipeline 可编排: 推荐逻辑也可通过 Node 串联（Recall → Filter → Recommend → ReRank → PostProcess）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
package recfusion

import "github.com/rushteam/recfusion/pipeline"

// 轻量 facade：便于用户直接 import "recfusion" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRecommend   = pipeline.KindRecommend
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
