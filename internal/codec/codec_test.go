package codec

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry() *Entry {
	return &Entry{
		Key:     "user@1",
		Created: 1700000000,
		Expire:  1700003600,
		Data:    []byte("it's binary\x00\xff'\"payload"),
	}
}

func TestCodecsRoundTrip(t *testing.T) {
	for _, c := range []Codec{Plain{}, Embedded{}} {
		t.Run(c.Name(), func(t *testing.T) {
			want := sampleEntry()
			raw, err := c.Encode(want)
			require.NoError(t, err)

			got, err := c.Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestCodecsRejectEveryTruncation(t *testing.T) {
	for _, c := range []Codec{Plain{}, Embedded{}} {
		t.Run(c.Name(), func(t *testing.T) {
			raw, err := c.Encode(sampleEntry())
			require.NoError(t, err)

			for n := 0; n < len(raw); n++ {
				_, err := c.Decode(raw[:n])
				require.Truef(t, errors.Is(err, ErrDecode), "prefix of %d bytes decoded: %v", n, err)
			}
		})
	}
}

func TestPlainRejectsTrailingBytes(t *testing.T) {
	raw, err := Plain{}.Encode(sampleEntry())
	require.NoError(t, err)

	_, err = Plain{}.Decode(append(raw, 0x01))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestEmbeddedLayout(t *testing.T) {
	e := sampleEntry()
	raw, err := Embedded{}.Encode(e)
	require.NoError(t, err)

	inner, err := Plain{}.Encode(e)
	require.NoError(t, err)

	want := "<?php $cache='" + base64.StdEncoding.EncodeToString(inner) + "';"
	assert.Equal(t, want, string(raw))
	assert.Equal(t, ".php", Embedded{}.Suffix())
	assert.Equal(t, "", Plain{}.Suffix())
}

func TestEmbeddedRejectsDamagedBody(t *testing.T) {
	cases := map[string]string{
		"not wrapped":  "plain text",
		"bad base64":   "<?php $cache='@@@@';",
		"bad inner":    "<?php $cache='" + base64.StdEncoding.EncodeToString([]byte("junk")) + "';",
		"overlap only": "<?php $cache=';",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Embedded{}.Decode([]byte(raw))
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestDecodeSkipsUnknownFields(t *testing.T) {
	e := sampleEntry()
	raw, err := e.MarshalMsg(nil)
	require.NoError(t, err)
	// Bump the map header from 4 to 5 and append an extra key/value pair.
	raw[0]++
	raw = append(raw, 0xa5, 'e', 'x', 't', 'r', 'a', 0xc3)

	got, err := Plain{}.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestExpired(t *testing.T) {
	now := int64(1000)
	assert.False(t, (&Entry{Expire: Permanent}).Expired(now))
	assert.False(t, (&Entry{Expire: Temporary}).Expired(now))
	assert.False(t, (&Entry{Expire: now}).Expired(now))
	assert.False(t, (&Entry{Expire: now + 1}).Expired(now))
	assert.True(t, (&Entry{Expire: now - 1}).Expired(now))
}

func TestByName(t *testing.T) {
	c, err := ByName("")
	require.NoError(t, err)
	assert.Equal(t, Plain{}, c)

	c, err = ByName(" Embedded ")
	require.NoError(t, err)
	assert.Equal(t, Embedded{}, c)

	_, err = ByName("gzip")
	assert.Error(t, err)
}
