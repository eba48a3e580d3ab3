package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"sourcing-marketplace-service/internal/model"
)

// Ledger append-only: se inserta y se lee, nunca se actualiza ni borra.
type MongoTransactionRepository struct {
	col *mongo.Collection
}

func NewMongoTransactionRepository(db *mongo.Database) *MongoTransactionRepository {
	return &MongoTransactionRepository{col: db.Collection("transactions")}
}

func (m *MongoTransactionRepository) Insert(ctx context.Context, t *model.Transaction) error {
	if t.ID == "" {
		t.ID = newID()
	}
	_, err := m.col.InsertOne(ctx, t)
	return err
}

func (m *MongoTransactionRepository) FindByUserID(ctx context.Context, userID string) ([]*model.Transaction, error) {
	return m.find(ctx, bson.M{"userId": userID})
}

func (m *MongoTransactionRepository) FindAll(ctx context.Context) ([]*model.Transaction, error) {
	return m.find(ctx, bson.M{})
}

func (m *MongoTransactionRepository) find(ctx context.Context, filter bson.M) ([]*model.Transaction, error) {
	cur, err := m.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.Transaction
	for cur.Next(ctx) {
		var v model.Transaction
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}
