package rabbit

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"sourcing-marketplace-service/internal/model"
)

const statusExchange = "order_status_events"

// Publisher emite los eventos de dominio hacia otros micros interesados
// (facturación externa, analítica). Es fire-and-forget: un fallo se
// loguea y no frena la operación que lo originó.
type Publisher struct {
	ch *amqp091.Channel
}

func NewPublisher(ch *amqp091.Channel) (*Publisher, error) {
	err := ch.ExchangeDeclare(
		statusExchange,
		"fanout",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{ch: ch}, nil
}

type statusEventMessage struct {
	CorrelationID string `json:"correlation_id"`
	Exchange      string `json:"exchange"`
	RoutingKey    string `json:"routing_key"`
	Message       struct {
		OrderID        string  `json:"orderId"`
		UserID         string  `json:"userId"`
		Status         string  `json:"status"`
		PreviousStatus string  `json:"previousStatus,omitempty"`
		TotalAmount    float64 `json:"totalAmount,omitempty"`
	} `json:"message"`
}

func (p *Publisher) OrderCreated(o *model.Order) {
	p.publish(o, "")
}

func (p *Publisher) OrderStatusChanged(o *model.Order, previous model.OrderStatus) {
	p.publish(o, previous)
}

func (p *Publisher) publish(o *model.Order, previous model.OrderStatus) {
	var event statusEventMessage
	event.CorrelationID = uuid.NewString()
	event.Exchange = statusExchange
	event.Message.OrderID = o.ID
	event.Message.UserID = o.UserID
	event.Message.Status = string(o.Status)
	event.Message.PreviousStatus = string(previous)
	if o.TotalAmount != nil {
		event.Message.TotalAmount = *o.TotalAmount
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Println("❌ Error serializando evento de estado:", err)
		return
	}

	err = p.ch.Publish(
		statusExchange,
		"", // fanout ignora routing key
		false,
		false,
		amqp091.Publishing{
			ContentType:   "application/json",
			CorrelationId: event.CorrelationID,
			Body:          body,
		},
	)
	if err != nil {
		log.Println("❌ Error publicando evento de estado:", err)
		return
	}

	log.Printf("✔ Evento publicado: orden %s → %s", o.ID, o.Status)
}
