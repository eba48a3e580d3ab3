package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"sourcing-marketplace-service/internal/model"
)

type MongoUserRepository struct {
	col *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{col: db.Collection("users")}
}

func (m *MongoUserRepository) Insert(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = newID()
	}
	_, err := m.col.InsertOne(ctx, u)
	return err
}

func (m *MongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var res model.User
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	return &res, err
}

func (m *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var res model.User
	err := m.col.FindOne(ctx, bson.M{"email": email}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	return &res, err
}

// FindAdmin devuelve la única identidad admin del sistema.
func (m *MongoUserRepository) FindAdmin(ctx context.Context) (*model.User, error) {
	var res model.User
	err := m.col.FindOne(ctx, bson.M{"role": model.RoleAdmin}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	return &res, err
}

func (m *MongoUserRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := m.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.User
	for cur.Next(ctx) {
		var v model.User
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}

func (m *MongoUserRepository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"isBlocked": blocked}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoUserRepository) UpdateProfile(ctx context.Context, id string, p model.UserProfile) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"profile": p}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoUserRepository) UpdatePreferences(ctx context.Context, id string, p model.UserPreferences) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"preferences": p}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
