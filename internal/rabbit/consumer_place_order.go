package rabbit

import (
	"context"
	"encoding/json"
	"log"

	"sourcing-marketplace-service/internal/auth"
	"sourcing-marketplace-service/internal/dto"
	"sourcing-marketplace-service/internal/model"
	"sourcing-marketplace-service/internal/service"
)

// PlaceOrderConsumer permite que otros sistemas (p.ej. un portal externo
// de compras) inyecten pedidos de sourcing por Rabbit en vez de HTTP.
type PlaceOrderConsumer struct {
	Service *service.OrderService
}

func NewPlaceOrderConsumer(s *service.OrderService) *PlaceOrderConsumer {
	return &PlaceOrderConsumer{Service: s}
}

type PlacedOrderMessage struct {
	CorrelationID string `json:"correlation_id"`
	Exchange      string `json:"exchange"`
	RoutingKey    string `json:"routing_key"`
	Message       struct {
		UserID string                 `json:"userId"`
		Order  dto.CreateOrderRequest `json:"order"`
	} `json:"message"`
}

func (c *PlaceOrderConsumer) Handle(msg []byte) error {

	log.Println("[Rabbit] Evento recibido: place_order")

	var event PlacedOrderMessage
	if err := json.Unmarshal(msg, &event); err != nil {
		log.Println("Error parseando mensaje:", err)
		return err
	}

	// El mensaje viene de un sistema confiable: el userId del payload es
	// la identidad del dueño del pedido. El servicio valida el resto.
	order, err := c.Service.CreateOrder(
		context.Background(),
		auth.Identity{UserID: event.Message.UserID, Role: model.RoleUser},
		event.Message.Order,
	)

	if err != nil {
		log.Println("❌ Error creando pedido de sourcing:", err)
		return err
	}

	log.Println("✔ Pedido de sourcing creado vía Rabbit:", order.ID)
	return nil
}
