package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"sourcing-marketplace-service/internal/model"
)

// Métodos de pago del cliente. El tipo nunca se actualiza: solo nickname y detalles.
type MongoPaymentMethodRepository struct {
	col *mongo.Collection
}

func NewMongoPaymentMethodRepository(db *mongo.Database) *MongoPaymentMethodRepository {
	return &MongoPaymentMethodRepository{col: db.Collection("paymentMethods")}
}

func (m *MongoPaymentMethodRepository) Insert(ctx context.Context, pm *model.PaymentMethod) error {
	if pm.ID == "" {
		pm.ID = newID()
	}
	_, err := m.col.InsertOne(ctx, pm)
	return err
}

func (m *MongoPaymentMethodRepository) FindByID(ctx context.Context, id string) (*model.PaymentMethod, error) {
	var res model.PaymentMethod
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	return &res, err
}

func (m *MongoPaymentMethodRepository) FindByUserID(ctx context.Context, userID string) ([]*model.PaymentMethod, error) {
	cur, err := m.col.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.PaymentMethod
	for cur.Next(ctx) {
		var v model.PaymentMethod
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}

func (m *MongoPaymentMethodRepository) Update(ctx context.Context, id, nickname string, details model.MethodDetails) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"nickname": nickname, "details": details}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoPaymentMethodRepository) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Métodos de cobro del admin. Mismo contrato, otra colección y otro dueño.
type MongoPayoutMethodRepository struct {
	col *mongo.Collection
}

func NewMongoPayoutMethodRepository(db *mongo.Database) *MongoPayoutMethodRepository {
	return &MongoPayoutMethodRepository{col: db.Collection("payoutMethods")}
}

func (m *MongoPayoutMethodRepository) Insert(ctx context.Context, pm *model.PayoutMethod) error {
	if pm.ID == "" {
		pm.ID = newID()
	}
	_, err := m.col.InsertOne(ctx, pm)
	return err
}

func (m *MongoPayoutMethodRepository) FindByID(ctx context.Context, id string) (*model.PayoutMethod, error) {
	var res model.PayoutMethod
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	return &res, err
}

func (m *MongoPayoutMethodRepository) FindByAdminID(ctx context.Context, adminID string) ([]*model.PayoutMethod, error) {
	cur, err := m.col.Find(ctx, bson.M{"adminId": adminID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.PayoutMethod
	for cur.Next(ctx) {
		var v model.PayoutMethod
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}

func (m *MongoPayoutMethodRepository) Update(ctx context.Context, id, nickname string, details model.MethodDetails) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"nickname": nickname, "details": details}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoPayoutMethodRepository) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
