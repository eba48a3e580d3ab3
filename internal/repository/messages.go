package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sourcing-marketplace-service/internal/model"
)

// Los mensajes viven en su propia colección keyed por conversationId
// (Mongo no tiene sub-colecciones). Solo se consultan a través de la conversación.
type MongoMessageRepository struct {
	col *mongo.Collection
}

func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{col: db.Collection("messages")}
}

func (m *MongoMessageRepository) Insert(ctx context.Context, msg *model.Message) error {
	if msg.ID == "" {
		msg.ID = newID()
	}
	_, err := m.col.InsertOne(ctx, msg)
	return err
}

func (m *MongoMessageRepository) FindByConversation(ctx context.Context, conversationID string) ([]*model.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cur, err := m.col.Find(ctx, bson.M{"conversationId": conversationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.Message
	for cur.Next(ctx) {
		var v model.Message
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}
