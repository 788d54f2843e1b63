package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	FieldID         = "_id"
	FieldAuthor     = "author"
	FieldLikes      = "likes"
	FieldComments   = "comments"
	FieldCreateTime = "create_time"
	FieldUpdateTime = "update_time"
)

type Post struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Caption    string               `bson:"caption" json:"caption"`
	Image      string               `bson:"image" json:"image"`
	Author     string               `bson:"author" json:"author"` // user id
	Likes      []string             `bson:"likes" json:"likes"`   // user ids, set semantics
	Comments   []primitive.ObjectID `bson:"comments" json:"comments"`
	CreateTime time.Time            `bson:"create_time" json:"createdAt"`
	UpdateTime time.Time            `bson:"update_time" json:"updatedAt"`
}

func (p *Post) GetTableName() string {
	return "post"
}
