package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/MikeLinPlan/account-system/internal/core/domain"
)

const tokensCollection = "api_tokens"

type MongoTokenRepository struct {
	coll *mongo.Collection
}

func NewTokenRepository(db *mongo.Database) *MongoTokenRepository {
	return &MongoTokenRepository{coll: db.Collection(tokensCollection)}
}

type mongoToken struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	UserID         string             `bson:"user_id"`
	Key            string             `bson:"key"`
	Name           string             `bson:"name"`
	Status         int                `bson:"status"`
	RemainQuota    int64              `bson:"remain_quota"`
	UnlimitedQuota bool               `bson:"unlimited_quota"`
	CreatedTime    int64              `bson:"created_time"`
	AccessedTime   int64              `bson:"accessed_time"`
	ExpiredTime    int64              `bson:"expired_time"`
}

func toMongoToken(t *domain.APIToken) mongoToken {
	return mongoToken{
		UserID:         t.UserID,
		Key:            t.Key,
		Name:           t.Name,
		Status:         t.Status,
		RemainQuota:    t.RemainQuota,
		UnlimitedQuota: t.UnlimitedQuota,
		CreatedTime:    t.CreatedTime.Unix(),
		AccessedTime:   t.AccessedTime.Unix(),
		ExpiredTime:    t.ExpiredTime.Unix(),
	}
}

func (mt mongoToken) toDomain() *domain.APIToken {
	return &domain.APIToken{
		ID:             mt.ID.Hex(),
		UserID:         mt.UserID,
		Key:            mt.Key,
		Name:           mt.Name,
		Status:         mt.Status,
		RemainQuota:    mt.RemainQuota,
		UnlimitedQuota: mt.UnlimitedQuota,
		CreatedTime:    unixToTime(mt.CreatedTime),
		AccessedTime:   unixToTime(mt.AccessedTime),
		ExpiredTime:    unixToTime(mt.ExpiredTime),
	}
}

func (r *MongoTokenRepository) Create(ctx context.Context, token *domain.APIToken) (*domain.APIToken, error) {
	res, err := r.coll.InsertOne(ctx, toMongoToken(token))
	if err != nil {
		return nil, fmt.Errorf("insert token: %w", err)
	}
	created := *token
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *MongoTokenRepository) FindByID(ctx context.Context, id string) (*domain.APIToken, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrTokenNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoTokenRepository) FindByKey(ctx context.Context, key string) (*domain.APIToken, error) {
	if key == "" {
		return nil, domain.ErrTokenNotFound
	}
	return r.findOne(ctx, bson.M{"key": key})
}

func (r *MongoTokenRepository) findOne(ctx context.Context, filter bson.M) (*domain.APIToken, error) {
	var mt mongoToken
	if err := r.coll.FindOne(ctx, filter).Decode(&mt); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	return mt.toDomain(), nil
}

func (r *MongoTokenRepository) Update(ctx context.Context, token *domain.APIToken) error {
	oid, err := primitive.ObjectIDFromHex(token.ID)
	if err != nil {
		return domain.ErrTokenNotFound
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": toMongoToken(token)})
	if err != nil {
		return fmt.Errorf("update token: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTokenNotFound
	}
	return nil
}

func (r *MongoTokenRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrTokenNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTokenNotFound
	}
	return nil
}

func (r *MongoTokenRepository) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]*domain.APIToken, int64, error) {
	return r.paginated(ctx, bson.M{"user_id": userID}, page, pageSize)
}

func (r *MongoTokenRepository) SearchByUser(ctx context.Context, userID, keyword string, page, pageSize int) ([]*domain.APIToken, int64, error) {
	filter := bson.M{"user_id": userID}
	if keyword != "" {
		regex := primitive.Regex{Pattern: keyword, Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": regex},
			bson.M{"key": regex},
		}
	}
	return r.paginated(ctx, filter, page, pageSize)
}

func (r *MongoTokenRepository) paginated(ctx context.Context, filter bson.M, page, pageSize int) ([]*domain.APIToken, int64, error) {
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count tokens: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list tokens: %w", err)
	}
	defer cursor.Close(ctx)

	var tokens []*domain.APIToken
	for cursor.Next(ctx) {
		var mt mongoToken
		if err := cursor.Decode(&mt); err != nil {
			return nil, 0, fmt.Errorf("decode token: %w", err)
		}
		tokens = append(tokens, mt.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("list tokens: %w", err)
	}
	return tokens, total, nil
}
