package codec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrDecode 表示字节内容不是一条完整的条目。
var ErrDecode = errors.New("undecodable cache entry")

// Codec 负责单个 bin 的条目序列化。
type Codec interface {
	// Name 是配置中使用的编码名称。
	Name() string
	// Suffix 追加在文件 token 之后，构成主文件名。
	Suffix() string
	Encode(e *Entry) ([]byte, error)
	Decode(raw []byte) (*Entry, error)
}

// ByName 返回 name 对应的编码，空字符串选择 Plain。
func ByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PlainName:
		return Plain{}, nil
	case EmbeddedName:
		return Embedded{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

// Names 列出 ByName 接受的全部名称。
func Names() []string {
	return []string{PlainName, EmbeddedName}
}

const (
	PlainName    = "plain"
	EmbeddedName = "embedded"
)

// Plain 直接存储条目的 msgpack 形式。
type Plain struct{}

func (Plain) Name() string   { return PlainName }
func (Plain) Suffix() string { return "" }

func (Plain) Encode(e *Entry) ([]byte, error) {
	return e.MarshalMsg(nil)
}

func (Plain) Decode(raw []byte) (*Entry, error) {
	if len(raw) == 0 {
		return nil, ErrDecode
	}
	e := &Entry{}
	rest, err := e.UnmarshalMsg(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrDecode, len(rest))
	}
	return e, nil
}

var (
	embeddedHead = []byte("<?php $cache='")
	embeddedTail = []byte("';")
)

// Embedded 将 Plain 形式包装为脚本，宿主以代码方式加载缓存文件时可复用字节码
// 缓存。Base64 让引号与二进制内容不会出现在字符串字面量中。
type Embedded struct{}

func (Embedded) Name() string   { return EmbeddedName }
func (Embedded) Suffix() string { return ".php" }

func (Embedded) Encode(e *Entry) ([]byte, error) {
	inner, err := e.MarshalMsg(nil)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(embeddedHead)+base64.StdEncoding.EncodedLen(len(inner))+len(embeddedTail))
	out = append(out, embeddedHead...)
	out = base64.StdEncoding.AppendEncode(out, inner)
	out = append(out, embeddedTail...)
	return out, nil
}

func (Embedded) Decode(raw []byte) (*Entry, error) {
	if !bytes.HasPrefix(raw, embeddedHead) || !bytes.HasSuffix(raw, embeddedTail) ||
		len(raw) < len(embeddedHead)+len(embeddedTail) {
		return nil, ErrDecode
	}
	body := raw[len(embeddedHead) : len(raw)-len(embeddedTail)]
	inner, err := base64.StdEncoding.AppendDecode(nil, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return Plain{}.Decode(inner)
}
