package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"sourcing-marketplace-service/internal/model"
)

type MongoConversationRepository struct {
	col *mongo.Collection
}

func NewMongoConversationRepository(db *mongo.Database) *MongoConversationRepository {
	return &MongoConversationRepository{col: db.Collection("conversations")}
}

func (m *MongoConversationRepository) Insert(ctx context.Context, c *model.Conversation) error {
	_, err := m.col.InsertOne(ctx, c)
	return err
}

func (m *MongoConversationRepository) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	var res model.Conversation
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	return &res, err
}

// FindByIDs trae un lote de conversaciones con $in. El troceo a 30 ids
// por consulta lo hace el agregador, acá no se limita.
func (m *MongoConversationRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Conversation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := m.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.Conversation
	for cur.Next(ctx) {
		var v model.Conversation
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}

// ApplyMessage actualiza el preview y suma 1 al contador del destinatario.
// El $inc es atómico a nivel documento: dos senders concurrentes no se pisan.
func (m *MongoConversationRepository) ApplyMessage(ctx context.Context, id, preview string, ts time.Time, recipient model.Role) error {
	counter := "unreadCount.user"
	if recipient == model.RoleAdmin {
		counter = "unreadCount.admin"
	}
	update := bson.M{
		"$set": bson.M{
			"lastMessage":          preview,
			"lastMessageTimestamp": ts,
		},
		"$inc": bson.M{counter: 1},
	}
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetUnread pone en cero el contador del rol que acaba de leer.
func (m *MongoConversationRepository) ResetUnread(ctx context.Context, id string, role model.Role) error {
	counter := "unreadCount.user"
	if role == model.RoleAdmin {
		counter = "unreadCount.admin"
	}
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{counter: 0}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
