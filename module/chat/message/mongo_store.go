package message

import (
	"context"
	"time"

	"PSocial/data/database"
	"PSocial/data/database/mgo/mongoutil"
	"PSocial/logger"
	"PSocial/module/chat/model"
	"PSocial/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const upsertRetries = 3

type MongoStore struct {
	convs *mongo.Collection
	msgs  *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		convs: database.Collection(db, &model.Conversation{}),
		msgs:  database.Collection(db, &model.Message{}),
	}
}

func ptr[T any](v T) *T { return &v }

// EnsureIndexes 建唯一索引 pair_key；并发首次会话依赖它收敛到同一条记录
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.convs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: model.ConvFieldPairKey, Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_pair_key"),
	})
	if err != nil {
		return errs.WrapMsg(err, "create conversation index")
	}
	_, err = s.msgs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: model.MsgFieldConversationID, Value: 1}},
	})
	if err != nil {
		return errs.WrapMsg(err, "create message index")
	}
	return nil
}

// FindOrCreate upserts with $setOnInsert so an existing conversation is never
// modified. Two concurrent upserts may both miss and race on insert; the loser
// gets E11000 and retries, which then matches the winner's document.
func (s *MongoStore) FindOrCreate(ctx context.Context, a, b string) (*model.Conversation, error) {
	key := model.PairKey(a, b)
	now := time.Now().UTC()
	update := bson.M{"$setOnInsert": bson.M{
		model.ConvFieldPairKey:      key,
		model.ConvFieldParticipants: model.Participants(a, b),
		model.ConvFieldMessageIDs:   bson.A{},
		model.ConvFieldCreateTime:   now,
		model.ConvFieldUpdateTime:   now,
	}}
	opts := &options.FindOneAndUpdateOptions{Upsert: ptr(true), ReturnDocument: ptr(options.After)}

	var conv model.Conversation
	err := retryOnDuplicate(upsertRetries, func(attempt int) error {
		if attempt > 0 {
			logger.Debug("[Chat] conversation upsert raced, retrying", zap.String("pair", key), zap.Int("attempt", attempt))
		}
		return s.convs.FindOneAndUpdate(ctx, bson.M{model.ConvFieldPairKey: key}, update, opts).Decode(&conv)
	})
	if err != nil {
		return nil, errs.WrapMsg(err, "find or create conversation", "pair", key)
	}
	return &conv, nil
}

// retryOnDuplicate 只对 E11000 重试, 其它错误直接返回
func retryOnDuplicate(attempts int, fn func(attempt int) error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(i); err == nil || !mongoutil.IsDuplicateKey(err) {
			return err
		}
	}
	return err
}

func (s *MongoStore) Find(ctx context.Context, a, b string) (*model.Conversation, bool, error) {
	var conv model.Conversation
	err := s.convs.FindOne(ctx, bson.M{model.ConvFieldPairKey: model.PairKey(a, b)}).Decode(&conv)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errs.WrapMsg(err, "find conversation")
	}
	return &conv, true, nil
}

// AppendMessage 先插入消息，再 $push 到会话；$push 保证并发追加不丢
func (s *MongoStore) AppendMessage(ctx context.Context, conv *model.Conversation, msg *model.Message) error {
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	if msg.CreateTime.IsZero() {
		msg.CreateTime = time.Now().UTC()
	}
	msg.ConversationID = conv.ID

	if _, err := s.msgs.InsertOne(ctx, msg); err != nil {
		return errs.WrapMsg(err, "insert message")
	}
	res, err := s.convs.UpdateOne(ctx,
		bson.M{model.ConvFieldID: conv.ID},
		bson.M{
			"$push": bson.M{model.ConvFieldMessageIDs: msg.ID},
			"$set":  bson.M{model.ConvFieldUpdateTime: msg.CreateTime},
		},
	)
	if err != nil {
		return errs.WrapMsg(err, "link message to conversation", "conv", conv.ID.Hex())
	}
	if res.MatchedCount == 0 {
		return errs.ErrRecordNotFound.WrapMsg("conversation " + conv.ID.Hex())
	}
	conv.MessageIDs = append(conv.MessageIDs, msg.ID)
	return nil
}

// Messages 按会话 message_ids 的顺序返回
func (s *MongoStore) Messages(ctx context.Context, conv *model.Conversation) ([]*model.Message, error) {
	ids, err := s.messageIDs(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Message{}, nil
	}

	cur, err := s.msgs.Find(ctx, bson.M{model.MsgFieldID: bson.M{"$in": ids}})
	if err != nil {
		return nil, errs.WrapMsg(err, "find messages")
	}
	var found []*model.Message
	if err := cur.All(ctx, &found); err != nil {
		return nil, errs.WrapMsg(err, "decode messages")
	}
	return orderByIDs(ids, found), nil
}

// messageIDs re-reads the list; a caller's copy may be stale.
func (s *MongoStore) messageIDs(ctx context.Context, id primitive.ObjectID) ([]primitive.ObjectID, error) {
	var doc struct {
		MessageIDs []primitive.ObjectID `bson:"message_ids"`
	}
	err := s.convs.FindOne(ctx, bson.M{model.ConvFieldID: id},
		options.FindOne().SetProjection(bson.M{model.ConvFieldMessageIDs: 1}),
	).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "load conversation", "conv", id.Hex())
	}
	return doc.MessageIDs, nil
}

func orderByIDs(ids []primitive.ObjectID, found []*model.Message) []*model.Message {
	byID := make(map[primitive.ObjectID]*model.Message, len(found))
	for _, m := range found {
		byID[m.ID] = m
	}
	out := make([]*model.Message, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			out = append(out, m)
		}
	}
	return out
}
