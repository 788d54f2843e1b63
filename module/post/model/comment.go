package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	CommentFieldPost       = "post"
	CommentFieldCreateTime = "create_time"
)

type Comment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Text       string             `bson:"text" json:"text"`
	Author     string             `bson:"author" json:"author"` // user id
	PostID     primitive.ObjectID `bson:"post" json:"post"`
	CreateTime time.Time          `bson:"create_time" json:"createdAt"`
}

func (c *Comment) GetTableName() string {
	return "comment"
}
