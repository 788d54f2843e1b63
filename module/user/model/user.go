package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	FieldID             = "_id"
	FieldUsername       = "username"
	FieldEmail          = "email"
	FieldProfilePicture = "profile_picture"
	FieldBio            = "bio"
	FieldGender         = "gender"
	FieldFollowers      = "followers"
	FieldFollowing      = "following"
	FieldPosts          = "posts"
	FieldBookmarks      = "bookmarks"
	FieldUpdateTime     = "update_time"
)

// User 用户主档；Password 只存 bcrypt 哈希，永不出现在响应里
type User struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Username       string               `bson:"username" json:"username"`
	Email          string               `bson:"email" json:"email"`
	Password       string               `bson:"password" json:"-"`
	ProfilePicture string               `bson:"profile_picture" json:"profilePicture"`
	Bio            string               `bson:"bio" json:"bio"`
	Gender         string               `bson:"gender,omitempty" json:"gender,omitempty"`
	Followers      []primitive.ObjectID `bson:"followers" json:"followers"`
	Following      []primitive.ObjectID `bson:"following" json:"following"`
	Posts          []primitive.ObjectID `bson:"posts" json:"posts"`
	Bookmarks      []primitive.ObjectID `bson:"bookmarks" json:"bookmarks"`
	CreateTime     time.Time            `bson:"create_time" json:"createdAt"`
	UpdateTime     time.Time            `bson:"update_time" json:"updatedAt"`
}

func (u *User) GetTableName() string {
	return "user"
}

// DisplayInfo 通知里携带的行为人信息
type DisplayInfo struct {
	ID             string `json:"_id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
}

func (u *User) Display() DisplayInfo {
	return DisplayInfo{ID: u.ID.Hex(), Username: u.Username, ProfilePicture: u.ProfilePicture}
}

// InitLists 新建文档时把数组字段写成 [] 而不是 null, 否则 $addToSet/$push 会失败
func (u *User) InitLists() {
	if u.Followers == nil {
		u.Followers = []primitive.ObjectID{}
	}
	if u.Following == nil {
		u.Following = []primitive.ObjectID{}
	}
	if u.Posts == nil {
		u.Posts = []primitive.ObjectID{}
	}
	if u.Bookmarks == nil {
		u.Bookmarks = []primitive.ObjectID{}
	}
}

// IsFollowing 是否已关注 target
func (u *User) IsFollowing(target primitive.ObjectID) bool {
	return containsID(u.Following, target)
}

func (u *User) HasBookmark(post primitive.ObjectID) bool {
	return containsID(u.Bookmarks, post)
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// ProfileUpdate 只更新非空字段
type ProfileUpdate struct {
	Bio            string
	Gender         string
	ProfilePicture string
}

func (p ProfileUpdate) Empty() bool {
	return p.Bio == "" && p.Gender == "" && p.ProfilePicture == ""
}
