package store

// 此包只包含实现，接口定义在 core 包（core.Store / core.KeyValueStore）。
//
// 消费方：
//   - recall.StoreInteractionAdapter 读取交互矩阵（见 interactions.go 的写入布局）
//   - filter 包的黑名单/曝光过滤
//   - improve.Tracker 的建议持久化
//
// 示例：
//   var kv core.KeyValueStore = NewMemoryStore()
