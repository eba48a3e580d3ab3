package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"sourcing-marketplace-service/internal/model"
)

// Mongo implementation
type MongoOrderRepository struct {
	col *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{col: db.Collection("orders")}
}

func (m *MongoOrderRepository) Insert(ctx context.Context, o *model.Order) error {
	if o.ID == "" {
		o.ID = newID()
	}
	_, err := m.col.InsertOne(ctx, o)
	return err
}

func (m *MongoOrderRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	var res model.Order
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	return &res, err
}

func (m *MongoOrderRepository) FindAll(ctx context.Context) ([]*model.Order, error) {
	return m.find(ctx, bson.M{})
}

func (m *MongoOrderRepository) FindByUserID(ctx context.Context, userID string) ([]*model.Order, error) {
	return m.find(ctx, bson.M{"userId": userID})
}

func (m *MongoOrderRepository) find(ctx context.Context, filter bson.M) ([]*model.Order, error) {
	cur, err := m.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.Order
	for cur.Next(ctx) {
		var v model.Order
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}

func (m *MongoOrderRepository) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyQuote escribe los cuatro montos y el país de origen juntos.
// Es el único camino por el que los campos financieros dejan de ser nil.
func (m *MongoOrderRepository) ApplyQuote(ctx context.Context, id string, q model.Quote) error {
	update := bson.M{"$set": bson.M{
		"productCost":    q.ProductCost,
		"sourcingFee":    q.SourcingFee,
		"shippingFee":    q.ShippingFee,
		"totalAmount":    q.TotalAmount,
		"sourcedCountry": q.SourcedCountry,
	}}
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoOrderRepository) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
