// Package shortid 从输入字符串确定性地生成短链接标识。
//
// 生成算法：对输入的 UTF-8 字节计算 SHA-256，将 32 字节摘要按小端序
// 解释为无符号整数，转换为 base62（0-9A-Za-z，高位在前），取前 [MaxLength] 个字符。
// 相同输入总是得到相同输出，不依赖任何随机源。
package shortid

import (
	"crypto/sha256"
	"math/big"
	"slices"
)

// MaxLength 是生成标识的最大长度。
const MaxLength = 6

// alphabet 是 base62 字母表，按数值从小到大排列。
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

var base = big.NewInt(int64(len(alphabet)))

// Generator 将输入字符串映射为短标识。
// 实现必须是确定性的且并发安全。
type Generator interface {
	Generate(input string) string
}

// Func 将普通函数适配为 [Generator]。
type Func func(input string) string

// Generate 调用 f(input)。
func (f Func) Generate(input string) string {
	return f(input)
}

// SHA256 是基于 SHA-256 摘要的 [Generator]。零值可直接使用。
type SHA256 struct{}

// Generate 返回 input 的 base62 短标识，长度不超过 [MaxLength]。
func (SHA256) Generate(input string) string {
	sum := sha256.Sum256([]byte(input))

	// 摘要按小端序解释：big.Int.SetBytes 要求大端序，先反转。
	digest := sum[:]
	slices.Reverse(digest)
	n := new(big.Int).SetBytes(digest)

	return truncate(encode(n), MaxLength)
}

// encode 将非负整数编码为 base62，高位在前。
func encode(n *big.Int) string {
	if n.Sign() == 0 {
		return alphabet[:1]
	}

	// 256 位整数的 base62 表示最多 43 位。
	buf := make([]byte, 0, 43)
	q := new(big.Int).Set(n)
	r := new(big.Int)
	for q.Sign() > 0 {
		q.QuoRem(q, base, r)
		buf = append(buf, alphabet[r.Int64()])
	}
	slices.Reverse(buf)
	return string(buf)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var (
	_ Generator = SHA256{}
	_ Generator = Func(nil)
)
