package decode

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handshake struct {
	UserID  string            `json:"userId"`
	Version int               `json:"v"`
	Meta    map[string]any    `json:"meta"`
	Tags    []string          `json:"tags"`
	Extra   map[string]string `json:"extra"`
}

func TestDecodeQuery(t *testing.T) {
	q := url.Values{}
	q.Set("userId", "  u-1 ")
	q.Set("v", "3")
	q.Set("meta", `{"client":"web"}`)
	q.Add("tags", "a")
	q.Add("tags", "b")

	h, err := DecodeQuery[handshake](q)
	require.NoError(t, err)
	assert.Equal(t, "u-1", h.UserID)
	assert.Equal(t, 3, h.Version)
	assert.Equal(t, "web", h.Meta["client"])
	assert.Equal(t, []string{"a", "b"}, h.Tags)
}

func TestDecodeMapFloatToInt(t *testing.T) {
	h, err := DecodeMap[handshake](map[string]any{"v": float64(7)})
	require.NoError(t, err)
	assert.Equal(t, 7, h.Version)
}

func TestDecodeMapErrors(t *testing.T) {
	_, err := DecodeMap[handshake](nil)
	assert.Error(t, err)

	_, err = DecodeMap[handshake](map[string]any{"nope": 1}, Options{WeaklyTypedInput: true, ErrorUnused: true})
	assert.Error(t, err)
}
