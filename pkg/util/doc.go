// Package util 提供与业务无关的通用子包。
//
// 子包列表：
//   - xlru: 泛型 LRU 缓存，支持按条目 TTL 与惰性过期
package util
