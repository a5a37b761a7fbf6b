package codec

import "github.com/tinylib/msgp/msgp"

// 具有特殊含义的过期值，其余均为 Unix 时间戳。
const (
	// Permanent 永不过期，不生成过期标记文件。
	Permanent int64 = 0
	// Temporary 在下一次垃圾回收前保持有效。
	Temporary int64 = -1
)

// Entry 是一条持久化的缓存记录。
type Entry struct {
	// Key 是写入时使用的文件 token。
	Key     string
	Created int64
	Expire  int64
	Data    []byte
}

// Expired 判断带时间戳的条目在 now 时是否已过期；Permanent 与 Temporary
// 不会仅因时间而过期。
func (e *Entry) Expired(now int64) bool {
	return e.Expire > 0 && e.Expire < now
}

// MarshalMsg 将 e 的 msgpack 形式追加到 b。
func (e *Entry) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.Require(b, e.Msgsize())
	o = msgp.AppendMapHeader(o, 4)
	o = msgp.AppendString(o, "cid")
	o = msgp.AppendString(o, e.Key)
	o = msgp.AppendString(o, "created")
	o = msgp.AppendInt64(o, e.Created)
	o = msgp.AppendString(o, "expire")
	o = msgp.AppendInt64(o, e.Expire)
	o = msgp.AppendString(o, "data")
	o = msgp.AppendBytes(o, e.Data)
	return o, nil
}

// UnmarshalMsg 从 bts 头部解码 e，并返回剩余字节。
func (e *Entry) UnmarshalMsg(bts []byte) ([]byte, error) {
	sz, bts, err := msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return bts, msgp.WrapError(err)
	}
	var field []byte
	for ; sz > 0; sz-- {
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			return bts, msgp.WrapError(err)
		}
		switch msgp.UnsafeString(field) {
		case "cid":
			e.Key, bts, err = msgp.ReadStringBytes(bts)
		case "created":
			e.Created, bts, err = msgp.ReadInt64Bytes(bts)
		case "expire":
			e.Expire, bts, err = msgp.ReadInt64Bytes(bts)
		case "data":
			e.Data, bts, err = msgp.ReadBytesBytes(bts, nil)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return bts, msgp.WrapError(err, string(field))
		}
	}
	return bts, nil
}

// Msgsize 返回编码后大小的上界。
func (e *Entry) Msgsize() int {
	return 1 +
		4 + msgp.StringPrefixSize + len(e.Key) +
		8 + msgp.Int64Size +
		7 + msgp.Int64Size +
		5 + msgp.BytesPrefixSize + len(e.Data)
}
