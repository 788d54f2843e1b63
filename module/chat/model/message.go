package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MsgFieldID             = "_id"
	MsgFieldConversationID = "conversation_id"
)

// Message is immutable once stored.
type Message struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ConversationID primitive.ObjectID `bson:"conversation_id" json:"conversationId"`
	SenderID       string             `bson:"sender_id" json:"senderId"`
	ReceiverID     string             `bson:"receiver_id" json:"receiverId"`
	Message        string             `bson:"message" json:"message"`
	CreateTime     time.Time          `bson:"create_time" json:"createdAt"`
}

func (m *Message) GetTableName() string {
	return "message"
}
