package model

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ConvFieldID           = "_id"
	ConvFieldPairKey      = "pair_key"
	ConvFieldParticipants = "participants"
	ConvFieldMessageIDs   = "message_ids"
	ConvFieldCreateTime   = "create_time"
	ConvFieldUpdateTime   = "update_time"
)

// Conversation is the single thread between an unordered pair of users.
// MessageIDs is append-only and defines message order.
type Conversation struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	PairKey      string               `bson:"pair_key" json:"-"` // unique: sorted participants joined by ":"
	Participants []string             `bson:"participants" json:"participants"`
	MessageIDs   []primitive.ObjectID `bson:"message_ids" json:"messages"`
	CreateTime   time.Time            `bson:"create_time" json:"createdAt"`
	UpdateTime   time.Time            `bson:"update_time" json:"updatedAt"`
}

func (c *Conversation) GetTableName() string {
	return "conversation"
}

// PairKey is order independent: PairKey(a, b) == PairKey(b, a).
func PairKey(a, b string) string {
	p := Participants(a, b)
	return strings.Join(p, ":")
}

// Participants returns the pair sorted.
func Participants(a, b string) []string {
	p := []string{a, b}
	sort.Strings(p)
	return p
}
