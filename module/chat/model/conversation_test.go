package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPairKeyIsUnordered(t *testing.T) {
	assert.Equal(t, PairKey("b", "a"), PairKey("a", "b"))
	assert.Equal(t, "a:b", PairKey("b", "a"))
	assert.NotEqual(t, PairKey("a", "b"), PairKey("a", "c"))
	assert.Equal(t, "a:a", PairKey("a", "a"))
}

func TestMessageJSONShape(t *testing.T) {
	id := primitive.NewObjectID()
	m := Message{ID: id, SenderID: "A", ReceiverID: "B", Message: "hi", CreateTime: time.Unix(0, 0).UTC()}
	b, err := json.Marshal(m)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, id.Hex(), got["_id"])
	assert.Equal(t, "A", got["senderId"])
	assert.Equal(t, "B", got["receiverId"])
	assert.Equal(t, "hi", got["message"])
}
