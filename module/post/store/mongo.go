package store

import (
	"context"
	"time"

	"PSocial/data/database"
	"PSocial/module/post/model"
	"PSocial/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepo struct {
	coll     *mongo.Collection
	comments *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{
		coll:     database.Collection(db, &model.Post{}),
		comments: database.Collection(db, &model.Comment{}),
	}
}

func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: model.FieldCreateTime, Value: -1}}},
		{Keys: bson.D{{Key: model.FieldAuthor, Value: 1}, {Key: model.FieldCreateTime, Value: -1}}},
	})
	if err != nil {
		return errs.WrapMsg(err, "create post indexes")
	}
	_, err = r.comments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: model.CommentFieldPost, Value: 1}, {Key: model.CommentFieldCreateTime, Value: 1}},
	})
	return errs.WrapMsg(err, "create comment indexes")
}

func (r *MongoRepo) Create(ctx context.Context, p *model.Post) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	p.CreateTime, p.UpdateTime = now, now
	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.Comments == nil {
		p.Comments = []primitive.ObjectID{}
	}
	_, err := r.coll.InsertOne(ctx, p)
	return errs.WrapMsg(err, "insert post")
}

func (r *MongoRepo) List(ctx context.Context) ([]*model.Post, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoRepo) ListByAuthor(ctx context.Context, author string) ([]*model.Post, error) {
	return r.find(ctx, bson.M{model.FieldAuthor: author})
}

func (r *MongoRepo) find(ctx context.Context, filter bson.M) ([]*model.Post, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: model.FieldCreateTime, Value: -1}}))
	if err != nil {
		return nil, errs.WrapMsg(err, "find posts")
	}
	posts := []*model.Post{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, errs.WrapMsg(err, "decode posts")
	}
	return posts, nil
}

func (r *MongoRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Post, error) {
	var p model.Post
	err := r.coll.FindOne(ctx, bson.M{model.FieldID: id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrRecordNotFound.WrapMsg("Post not found")
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find post")
	}
	return &p, nil
}

func (r *MongoRepo) AddLike(ctx context.Context, id primitive.ObjectID, user string) error {
	return r.updatePost(ctx, id, bson.M{"$addToSet": bson.M{model.FieldLikes: user}}, "update likes")
}

func (r *MongoRepo) RemoveLike(ctx context.Context, id primitive.ObjectID, user string) error {
	return r.updatePost(ctx, id, bson.M{"$pull": bson.M{model.FieldLikes: user}}, "update likes")
}

func (r *MongoRepo) updatePost(ctx context.Context, id primitive.ObjectID, update bson.M, what string) error {
	update["$set"] = bson.M{model.FieldUpdateTime: time.Now().UTC()}
	res, err := r.coll.UpdateOne(ctx, bson.M{model.FieldID: id}, update)
	if err != nil {
		return errs.WrapMsg(err, what, "post", id.Hex())
	}
	if res.MatchedCount == 0 {
		return errs.ErrRecordNotFound.WrapMsg("Post not found")
	}
	return nil
}

func (r *MongoRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{model.FieldID: id})
	if err != nil {
		return errs.WrapMsg(err, "delete post", "post", id.Hex())
	}
	if res.DeletedCount == 0 {
		return errs.ErrRecordNotFound.WrapMsg("Post not found!")
	}
	if _, err := r.comments.DeleteMany(ctx, bson.M{model.CommentFieldPost: id}); err != nil {
		return errs.WrapMsg(err, "delete comments", "post", id.Hex())
	}
	return nil
}

func (r *MongoRepo) AddComment(ctx context.Context, c *model.Comment) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.CreateTime = time.Now().UTC()
	if _, err := r.comments.InsertOne(ctx, c); err != nil {
		return errs.WrapMsg(err, "insert comment", "post", c.PostID.Hex())
	}
	return r.updatePost(ctx, c.PostID, bson.M{"$push": bson.M{model.FieldComments: c.ID}}, "link comment")
}

func (r *MongoRepo) Comments(ctx context.Context, postID primitive.ObjectID) ([]*model.Comment, error) {
	cur, err := r.comments.Find(ctx, bson.M{model.CommentFieldPost: postID},
		options.Find().SetSort(bson.D{{Key: model.CommentFieldCreateTime, Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errs.WrapMsg(err, "find comments", "post", postID.Hex())
	}
	out := []*model.Comment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.WrapMsg(err, "decode comments")
	}
	return out, nil
}
