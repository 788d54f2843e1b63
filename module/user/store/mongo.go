package store

import (
	"context"
	"time"

	"PSocial/data/database"
	"PSocial/data/database/mgo/mongoutil"
	"PSocial/logger"
	"PSocial/module/user/model"
	"PSocial/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type MongoRepo struct {
	coll *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{coll: database.Collection(db, &model.User{})}
}

func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: model.FieldEmail, Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: model.FieldUsername, Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "create_time", Value: -1}}},
	})
	return errs.WrapMsg(err, "create user indexes")
}

func (r *MongoRepo) Create(ctx context.Context, u *model.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	u.CreateTime, u.UpdateTime = now, now
	u.InitLists()
	if _, err := r.coll.InsertOne(ctx, u); err != nil {
		if mongoutil.IsDuplicateKey(err) {
			return errs.ErrDuplicateKey.WrapMsg("User already exists, try different email.")
		}
		return errs.WrapMsg(err, "insert user")
	}
	return nil
}

func (r *MongoRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{model.FieldEmail: email})
}

func (r *MongoRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return r.findOne(ctx, bson.M{model.FieldID: id})
}

func (r *MongoRepo) AddPost(ctx context.Context, id, postID primitive.ObjectID) error {
	return r.update(ctx, id, bson.M{"$push": bson.M{model.FieldPosts: postID}}, "link post to user")
}

func (r *MongoRepo) RemovePost(ctx context.Context, id, postID primitive.ObjectID) error {
	return r.update(ctx, id, bson.M{"$pull": bson.M{model.FieldPosts: postID}}, "unlink post from user")
}

func (r *MongoRepo) UpdateProfile(ctx context.Context, id primitive.ObjectID, up model.ProfileUpdate) (*model.User, error) {
	if up.Empty() {
		return r.FindByID(ctx, id)
	}
	set := bson.M{model.FieldUpdateTime: time.Now().UTC()}
	if up.Bio != "" {
		set[model.FieldBio] = up.Bio
	}
	if up.Gender != "" {
		set[model.FieldGender] = up.Gender
	}
	if up.ProfilePicture != "" {
		set[model.FieldProfilePicture] = up.ProfilePicture
	}
	var u model.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{model.FieldID: id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrRecordNotFound.WrapMsg("User not found, try again!")
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "update profile", "user", id.Hex())
	}
	return &u, nil
}

func (r *MongoRepo) Others(ctx context.Context, except primitive.ObjectID, limit int) ([]*model.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "create_time", Value: -1}}).
		SetProjection(bson.M{"password": 0})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.coll.Find(ctx, bson.M{model.FieldID: bson.M{"$ne": except}}, opts)
	if err != nil {
		return nil, errs.WrapMsg(err, "find users")
	}
	users := []*model.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, errs.WrapMsg(err, "decode users")
	}
	return users, nil
}

// Follow 先改自己的 following 再改对方的 followers; 第二步失败时撤销第一步
func (r *MongoRepo) Follow(ctx context.Context, actor, target primitive.ObjectID) error {
	return r.pair(ctx, "$addToSet", "$pull", actor, target)
}

func (r *MongoRepo) Unfollow(ctx context.Context, actor, target primitive.ObjectID) error {
	return r.pair(ctx, "$pull", "$addToSet", actor, target)
}

func (r *MongoRepo) pair(ctx context.Context, op, undo string, actor, target primitive.ObjectID) error {
	if err := r.update(ctx, actor, bson.M{op: bson.M{model.FieldFollowing: target}}, "update following"); err != nil {
		return err
	}
	err := r.update(ctx, target, bson.M{op: bson.M{model.FieldFollowers: actor}}, "update followers")
	if err == nil {
		return nil
	}
	if rerr := r.update(ctx, actor, bson.M{undo: bson.M{model.FieldFollowing: target}}, "revert following"); rerr != nil {
		logger.Error("[User] revert following failed",
			zap.String("actor", actor.Hex()), zap.String("target", target.Hex()), zap.Error(rerr))
	}
	return err
}

func (r *MongoRepo) AddBookmark(ctx context.Context, id, postID primitive.ObjectID) error {
	return r.update(ctx, id, bson.M{"$addToSet": bson.M{model.FieldBookmarks: postID}}, "add bookmark")
}

func (r *MongoRepo) RemoveBookmark(ctx context.Context, id, postID primitive.ObjectID) error {
	return r.update(ctx, id, bson.M{"$pull": bson.M{model.FieldBookmarks: postID}}, "remove bookmark")
}

func (r *MongoRepo) update(ctx context.Context, id primitive.ObjectID, update bson.M, what string) error {
	update["$set"] = bson.M{model.FieldUpdateTime: time.Now().UTC()}
	res, err := r.coll.UpdateOne(ctx, bson.M{model.FieldID: id}, update)
	if err != nil {
		return errs.WrapMsg(err, what, "user", id.Hex())
	}
	if res.MatchedCount == 0 {
		return errs.ErrRecordNotFound.WrapMsg("User not found, try again!")
	}
	return nil
}

func (r *MongoRepo) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var u model.User
	err := r.coll.FindOne(ctx, filter).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrRecordNotFound.WrapMsg("User not found, try again!")
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find user")
	}
	return &u, nil
}
