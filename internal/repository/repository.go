package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrNotFound = errors.New("documento no encontrado")

// newID genera ids string (hex de ObjectID). Usamos _id string porque la
// conversación comparte el id de su orden y los deep links lo llevan en la URL.
func newID() string {
	return primitive.NewObjectID().Hex()
}

// TxnRunner corre una función dentro de una transacción multi-documento.
// Todo lo que se escriba con el ctx que recibe fn se aplica junto o no se aplica.
type TxnRunner struct {
	client *mongo.Client
}

func NewTxnRunner(client *mongo.Client) *TxnRunner {
	return &TxnRunner{client: client}
}

func (t *TxnRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
