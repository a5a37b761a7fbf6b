package keyenc

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"
)

const (
	// MaxTokenLen 限制 token 长度，不含编码器追加的文件后缀。
	MaxTokenLen = 200
	// HashCut 是超长 token 的截断位置，其后接 ',' 与 32 位十六进制摘要。
	HashCut = MaxTokenLen - 34

	hashDelimiter = ","
	markerTail    = ".expire"
	escapedDot    = "%2E"
)

// Encoder 将缓存 key 映射为文件 token。
type Encoder interface {
	Encode(key string) string
	EncodePrefix(prefix string) string
	// Literal 还原 Encode 针对保留文件名所做的额外转义，结果可直接与
	// EncodePrefix 的返回值做前缀比较。
	Literal(token string) string
}

// URL 是默认的无状态 Encoder。
type URL struct{}

// Encode 实现 Encoder。
func (URL) Encode(key string) string { return Encode(key) }

// EncodePrefix 实现 Encoder。
func (URL) EncodePrefix(prefix string) string { return EncodePrefix(prefix) }

// Literal 实现 Encoder。
func (URL) Literal(token string) string { return Literal(token) }

// 与 PHP urlencode 保持一致：'~' 也需要转义，':' 与 '/' 保留可读替换。
var readable = strings.NewReplacer("%3A", "@", "%2F", "=", "~", "%7E")

// Encode 返回 key 对应的文件 token。
func Encode(key string) string {
	token := escape(key)
	switch {
	case token == "":
		// 单独的 ',' 不会由转义或截断产生。
		token = hashDelimiter
	case token == ".":
		token = escapedDot
	case token == "..":
		token = escapedDot + escapedDot
	case strings.HasSuffix(token, markerTail):
		// 避免主文件与其他 key 的过期标记文件同名。
		cut := len(token) - len(markerTail)
		token = token[:cut] + escapedDot + token[cut+1:]
	}
	return truncate(token)
}

// EncodePrefix 返回以 prefix 开头的所有 key 共享的 token 前缀（双方均未截断时）。
// 比较对象应是 Literal(token)，而非 token 本身。
func EncodePrefix(prefix string) string {
	return truncate(escape(prefix))
}

// Literal 撤销 Encode 对保留 token 的额外转义。转义结果中字面量 '%' 总是
// 写作 "%25"，所以 "%2E" 只可能来自这里的改写，还原没有歧义。
func Literal(token string) string {
	switch {
	case token == hashDelimiter:
		return ""
	case token == escapedDot:
		return "."
	case token == escapedDot+escapedDot:
		return ".."
	case strings.HasSuffix(token, escapedDot+markerTail[1:]):
		return strings.TrimSuffix(token, escapedDot+markerTail[1:]) + markerTail
	}
	return token
}

func escape(s string) string {
	return readable.Replace(url.QueryEscape(s))
}

func truncate(token string) string {
	if len(token) <= MaxTokenLen {
		return token
	}
	sum := md5.Sum([]byte(token[HashCut:]))
	return token[:HashCut] + hashDelimiter + hex.EncodeToString(sum[:])
}
