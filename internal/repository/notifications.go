package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"sourcing-marketplace-service/internal/model"
)

type MongoNotificationRepository struct {
	col *mongo.Collection
}

func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{col: db.Collection("notifications")}
}

func (m *MongoNotificationRepository) Insert(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = newID()
	}
	_, err := m.col.InsertOne(ctx, n)
	return err
}

// FindByUserID trae el buzón sin ordenar; el feed ordena client-side
// para no exigir un índice compuesto.
func (m *MongoNotificationRepository) FindByUserID(ctx context.Context, userID string) ([]*model.Notification, error) {
	cur, err := m.col.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.Notification
	for cur.Next(ctx) {
		var v model.Notification
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}

// MarkRead es idempotente: marcar read una notificación ya leída no falla.
func (m *MongoNotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	res, err := m.col.UpdateOne(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead marca en un solo batch todo lo no leído del usuario.
// Notificaciones creadas en paralelo pueden quedar afuera, no hay locking.
func (m *MongoNotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	_, err := m.col.UpdateMany(ctx,
		bson.M{"userId": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}})
	return err
}
