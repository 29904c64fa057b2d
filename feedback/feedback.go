// Package feedback 定义推荐反馈事件模型与采集器。
// 采集到的事件是持续改进（improve 包）各检测器的输入。
package feedback

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/rushteam/recfusion/core"
)

// Type 反馈事件类型。
type Type string

const (
	TypeImpression Type = "impression" // 曝光
	TypeClick      Type = "click"      // 点击
	TypePurchase   Type = "purchase"   // 购买
	TypeRating     Type = "rating"     // 评分，Value 为分值
	TypeLike       Type = "like"
	TypeDislike    Type = "dislike"
)

// Event 单条反馈事件。
type Event struct {
	UserID    string    `json:"user_id"`
	ItemID    string    `json:"item_id"`
	Type      Type      `json:"type"`
	Value     float64   `json:"value,omitempty"` // rating 分值等
	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Collector 内存反馈采集器，可选地把事件镜像到 Store。
// Record 与 Events 可并发调用。
type Collector struct {
	// Store 可选持久化后端，写失败只记 warning 不影响采集
	Store core.Store

	// KeyPrefix 持久化键前缀，默认 "feedback"
	KeyPrefix string

	// Logger 可选；为 nil 时使用 slog.Default()
	Logger *slog.Logger

	mu     sync.RWMutex
	events []Event
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Collector) keyPrefix() string {
	if c.KeyPrefix != "" {
		return c.KeyPrefix
	}
	return "feedback"
}

// Record 记录一条事件。Timestamp 为零值时补当前时间。
func (c *Collector) Record(ctx context.Context, ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	c.mu.Lock()
	c.events = append(c.events, ev)
	n := len(c.events)
	c.mu.Unlock()

	if c.Store == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		c.logger().Warn("feedback: marshal event failed", "err", err)
		return
	}
	key := c.keyPrefix() + ":event:" + ev.UserID + ":" + ev.Timestamp.Format(time.RFC3339Nano)
	if err := c.Store.Set(ctx, key, data); err != nil {
		c.logger().Warn("feedback: persist event failed", "key", key, "err", err, "buffered", n)
	}
}

// Events 返回已采集事件的副本。
func (c *Collector) Events() []Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// EventsSince 返回 t 之后（含）的事件。
func (c *Collector) EventsSince(t time.Time) []Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Event
	for _, ev := range c.events {
		if !ev.Timestamp.Before(t) {
			out = append(out, ev)
		}
	}
	return out
}

// Reset 清空采集缓冲（如分析批次完成后）。
func (c *Collector) Reset() {
	c.mu.Lock()
	c.events = nil
	c.mu.Unlock()
}
