package stream

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Watcher abre un change stream por colección y re-publica cada cambio
// en el hub. Si el stream se corta, se reabre después de una pausa.
type Watcher struct {
	db  *mongo.Database
	hub *Hub
}

func NewWatcher(db *mongo.Database, hub *Hub) *Watcher {
	return &Watcher{db: db, hub: hub}
}

func (w *Watcher) Run(ctx context.Context) {
	for _, topic := range []string{TopicOrders, TopicConversations, TopicMessages, TopicNotifications} {
		go w.watchCollection(ctx, topic)
	}
}

func (w *Watcher) watchCollection(ctx context.Context, topic string) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := w.consume(ctx, topic); err != nil {
			log.Printf("change stream de %s cortado: %v (reintento en 5s)", topic, err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func (w *Watcher) consume(ctx context.Context, topic string) error {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	cs, err := w.db.Collection(topic).Watch(ctx, mongo.Pipeline{}, opts)
	if err != nil {
		return err
	}
	defer cs.Close(ctx)

	for cs.Next(ctx) {
		w.hub.Publish(topic, toEvent(topic, cs.Current))
	}
	return cs.Err()
}

// toEvent extrae del change event lo que necesitan los filtros por
// suscriptor. Los _id son strings en todas las colecciones.
func toEvent(topic string, raw bson.Raw) Event {
	ev := Event{Collection: topic}

	if v, err := raw.LookupErr("operationType"); err == nil {
		if s, ok := v.StringValueOK(); ok {
			ev.Operation = s
		}
	}
	if v, err := raw.LookupErr("documentKey", "_id"); err == nil {
		if s, ok := v.StringValueOK(); ok {
			ev.DocumentID = s
		}
	}
	if v, err := raw.LookupErr("fullDocument", "userId"); err == nil {
		if s, ok := v.StringValueOK(); ok {
			ev.UserID = s
		}
	}
	if v, err := raw.LookupErr("fullDocument", "conversationId"); err == nil {
		if s, ok := v.StringValueOK(); ok {
			ev.ConversationID = s
		}
	}
	return ev
}
