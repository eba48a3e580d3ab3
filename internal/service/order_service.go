package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"sourcing-marketplace-service/internal/auth"
	"sourcing-marketplace-service/internal/dto"
	"sourcing-marketplace-service/internal/model"
	"sourcing-marketplace-service/internal/repository"
)

// Estados finales: una vez acá no hay más transiciones.
var finalStates = map[model.OrderStatus]bool{
	model.StatusCancelled: true,
	model.StatusDelivered: true,
}

// Umbral y alícuotas del sourcing fee. El borde exacto de 500 cae en el
// tramo alto (la condición es estrictamente < 500).
const (
	sourcingFeeThreshold = 500.0
	sourcingFeeLowPct    = 0.05
	sourcingFeeHighPct   = 0.10
)

type OrderService struct {
	orders   OrderRepository
	convs    ConversationRepository
	msgs     MessageRepository
	users    UserRepository
	notifs   NotificationRepository
	ledger   TransactionRepository
	payments PaymentMethodRepository
	txn      Txn
	events   EventPublisher
}

func NewOrderService(
	orders OrderRepository,
	convs ConversationRepository,
	msgs MessageRepository,
	users UserRepository,
	notifs NotificationRepository,
	ledger TransactionRepository,
	payments PaymentMethodRepository,
	txn Txn,
	events EventPublisher,
) *OrderService {
	return &OrderService{
		orders:   orders,
		convs:    convs,
		msgs:     msgs,
		users:    users,
		notifs:   notifs,
		ledger:   ledger,
		payments: payments,
		txn:      txn,
		events:   events,
	}
}

// ComputeQuote aplica la política de pricing: fee del 5% por debajo de 500
// de costo total de producto, 10% desde 500 inclusive. Todo redondeado a centavos.
func ComputeQuote(productCostPerUnit float64, quantity int, shippingFee float64, sourcedCountry string) model.Quote {
	totalProductCost := round2(productCostPerUnit * float64(quantity))

	pct := sourcingFeeLowPct
	if totalProductCost >= sourcingFeeThreshold {
		pct = sourcingFeeHighPct
	}
	fee := round2(totalProductCost * pct)

	return model.Quote{
		ProductCost:    totalProductCost,
		SourcingFee:    fee,
		ShippingFee:    round2(shippingFee),
		TotalAmount:    round2(totalProductCost + fee + shippingFee),
		SourcedCountry: sourcedCountry,
	}
}

// CreateOrder crea la orden en estado Sourcing junto con su conversación
// (mismo id), un mensaje de sistema inicial y la notificación al admin.
// Todo en un solo batch atómico.
func (s *OrderService) CreateOrder(ctx context.Context, caller auth.Identity, req dto.CreateOrderRequest) (*model.Order, error) {
	if caller.UserID == "" {
		return nil, ErrAuthRequired
	}
	if err := validateOrderRequest(req); err != nil {
		return nil, err
	}

	// Buscamos al admin antes del batch. Si todavía no existe, la orden
	// se crea igual, solo que sin notificación.
	admin, err := s.users.FindAdmin(ctx)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	order := &model.Order{
		UserID:          caller.UserID,
		ProductName:     req.ProductName,
		Category:        req.Category,
		Specifications:  req.Specifications,
		ProductLink:     req.ProductLink,
		ReferenceImage:  req.ReferenceImage,
		Quantity:        req.Quantity,
		TargetPrice:     req.TargetPrice,
		City:            req.City,
		PhoneNumber:     req.PhoneNumber,
		DeliveryAddress: req.DeliveryAddress,
		CreatedAt:       now,
		Status:          model.StatusSourcing,
	}

	initial := fmt.Sprintf("Order created for %s.", order.ProductName)

	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.orders.Insert(ctx, order); err != nil {
			return err
		}

		conv := &model.Conversation{
			ID:                   order.ID,
			UserID:               order.UserID,
			OrderID:              order.ID,
			LastMessage:          initial,
			LastMessageTimestamp: now,
			UnreadCount:          model.UnreadCount{Admin: 1},
		}
		if err := s.convs.Insert(ctx, conv); err != nil {
			return err
		}

		msg := &model.Message{
			ConversationID: order.ID,
			SenderID:       "system",
			SenderName:     "System",
			Type:           model.MessageText,
			Text:           initial,
			Timestamp:      now,
		}
		if err := s.msgs.Insert(ctx, msg); err != nil {
			return err
		}

		if admin != nil {
			return s.notifs.Insert(ctx, &model.Notification{
				UserID:    admin.ID,
				OrderID:   order.ID,
				Title:     "New Order Submitted",
				Message:   fmt.Sprintf("%s (x%d)", order.ProductName, order.Quantity),
				Href:      "/admin/orders/" + order.ID,
				CreatedAt: now,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.OrderCreated(order)
	}
	return order, nil
}

// CreateQuote calcula y confirma la cotización. Deja la orden exactamente
// en Quote Ready, nunca salta estados.
func (s *OrderService) CreateQuote(ctx context.Context, caller auth.Identity, orderID string, req dto.CreateQuoteRequest) (*model.Order, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if req.ProductCostPerUnit == nil || *req.ProductCostPerUnit <= 0 ||
		req.ShippingFee == nil || *req.ShippingFee < 0 || req.SourcedCountry == "" {
		return nil, fmt.Errorf("%w: la cotización requiere costo unitario, flete y país", ErrValidation)
	}

	order, err := s.loadForTransition(ctx, orderID, model.StatusSourcing)
	if err != nil {
		return nil, err
	}

	quote := ComputeQuote(*req.ProductCostPerUnit, order.Quantity, *req.ShippingFee, req.SourcedCountry)

	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.orders.ApplyQuote(ctx, orderID, quote); err != nil {
			return err
		}
		if err := s.orders.UpdateStatus(ctx, orderID, model.StatusQuoteReady); err != nil {
			return err
		}
		return s.notifyStatus(ctx, order, model.StatusQuoteReady, caller)
	})
	if err != nil {
		return nil, err
	}

	previous := order.Status
	order.Status = model.StatusQuoteReady
	order.ProductCost = &quote.ProductCost
	order.SourcingFee = &quote.SourcingFee
	order.ShippingFee = &quote.ShippingFee
	order.TotalAmount = &quote.TotalAmount
	order.SourcedCountry = quote.SourcedCountry

	if s.events != nil {
		s.events.OrderStatusChanged(order, previous)
	}
	return order, nil
}

// MakePayment confirma el pago con un método guardado. En un solo batch:
// estado a Payment Confirmed + asiento negativo en el ledger.
func (s *OrderService) MakePayment(ctx context.Context, caller auth.Identity, orderID, paymentMethodID string) error {
	if caller.IsAdmin() {
		return ErrForbidden
	}
	if paymentMethodID == "" {
		return fmt.Errorf("%w: no se seleccionó método de pago", ErrPaymentRejected)
	}

	order, err := s.loadForTransition(ctx, orderID, model.StatusQuoteReady)
	if err != nil {
		return err
	}
	if order.UserID != caller.UserID {
		return ErrForbidden
	}
	if !order.Quoted() {
		return fmt.Errorf("%w: la orden no tiene monto total", ErrPaymentRejected)
	}

	method, err := s.payments.FindByID(ctx, paymentMethodID)
	if err != nil {
		return err
	}
	if method.UserID != caller.UserID {
		return ErrForbidden
	}

	return s.applyStatus(ctx, order, model.StatusPaymentConfirmed, caller, func(ctx context.Context) error {
		return s.ledger.Insert(ctx, &model.Transaction{
			UserID:      caller.UserID,
			Type:        model.TransactionPayment,
			Amount:      -*order.TotalAmount,
			CreatedAt:   time.Now().UTC(),
			Description: "Payment for Order #" + shortID(order.ID),
			OrderID:     order.ID,
		})
	})
}

// ArrangeCashPayment deja la orden en Payment Pending. Todavía no hay
// asiento en el ledger: la confirmación es un paso aparte del admin.
func (s *OrderService) ArrangeCashPayment(ctx context.Context, caller auth.Identity, orderID string) error {
	if caller.IsAdmin() {
		return ErrForbidden
	}
	order, err := s.loadForTransition(ctx, orderID, model.StatusQuoteReady)
	if err != nil {
		return err
	}
	if order.UserID != caller.UserID {
		return ErrForbidden
	}
	return s.applyStatus(ctx, order, model.StatusPaymentPending, caller, nil)
}

// ConfirmCashPayment registra el pago en efectivo recibido y confirma.
func (s *OrderService) ConfirmCashPayment(ctx context.Context, caller auth.Identity, orderID string) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	order, err := s.loadForTransition(ctx, orderID, model.StatusPaymentPending)
	if err != nil {
		return err
	}
	if !order.Quoted() {
		return fmt.Errorf("%w: la orden no tiene monto total", ErrPaymentRejected)
	}
	return s.applyStatus(ctx, order, model.StatusPaymentConfirmed, caller, func(ctx context.Context) error {
		return s.ledger.Insert(ctx, &model.Transaction{
			UserID:      order.UserID,
			Type:        model.TransactionPayment,
			Amount:      -*order.TotalAmount,
			CreatedAt:   time.Now().UTC(),
			Description: "Cash Payment for Order #" + shortID(order.ID),
			OrderID:     order.ID,
		})
	})
}

func (s *OrderService) AdvanceShipment(ctx context.Context, caller auth.Identity, orderID string) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	order, err := s.loadForTransition(ctx, orderID, model.StatusPaymentConfirmed)
	if err != nil {
		return err
	}
	return s.applyStatus(ctx, order, model.StatusShipped, caller, nil)
}

func (s *OrderService) MarkDelivered(ctx context.Context, caller auth.Identity, orderID string) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	order, err := s.loadForTransition(ctx, orderID, model.StatusShipped)
	if err != nil {
		return err
	}
	return s.applyStatus(ctx, order, model.StatusDelivered, caller, nil)
}

// CancelOrder: solo el dueño, y solo antes de pagar. Cancelled es terminal.
// El chequeo se hace acá, en el borde de mutación, no en la UI.
func (s *OrderService) CancelOrder(ctx context.Context, caller auth.Identity, orderID string) error {
	if caller.IsAdmin() {
		return ErrForbidden
	}
	order, err := s.loadForTransition(ctx, orderID, model.StatusSourcing, model.StatusQuoteReady)
	if err != nil {
		return err
	}
	if order.UserID != caller.UserID {
		return ErrForbidden
	}
	return s.applyStatus(ctx, order, model.StatusCancelled, caller, nil)
}

// DeleteOrder borra la orden pre-cotización. La conversación queda huérfana
// a propósito (mismo comportamiento del sistema original); se deja rastro en el log.
func (s *OrderService) DeleteOrder(ctx context.Context, caller auth.Identity, orderID string) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !caller.IsAdmin() && order.UserID != caller.UserID {
		return ErrForbidden
	}
	if order.Status != model.StatusSourcing {
		return ErrInvalidTransition
	}
	if err := s.orders.Delete(ctx, orderID); err != nil {
		return err
	}
	log.Printf("orden %s eliminada; la conversación %s queda huérfana", orderID, orderID)
	return nil
}

// BlockUser prende o apaga el acceso de un cliente.
func (s *OrderService) BlockUser(ctx context.Context, caller auth.Identity, userID string, blocked bool) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	return s.users.SetBlocked(ctx, userID, blocked)
}

// loadForTransition trae la orden y valida la precondición de estado.
func (s *OrderService) loadForTransition(ctx context.Context, orderID string, allowedFrom ...model.OrderStatus) (*model.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if finalStates[order.Status] {
		return nil, ErrFinalState
	}
	for _, from := range allowedFrom {
		if order.Status == from {
			return order, nil
		}
	}
	return nil, ErrInvalidTransition
}

// applyStatus hace la transición + notificación a la contraparte (+ extra,
// p.ej. el asiento del ledger) en un solo batch, y después publica el evento.
func (s *OrderService) applyStatus(ctx context.Context, order *model.Order, to model.OrderStatus, actor auth.Identity, extra func(ctx context.Context) error) error {
	err := s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.orders.UpdateStatus(ctx, order.ID, to); err != nil {
			return err
		}
		if extra != nil {
			if err := extra(ctx); err != nil {
				return err
			}
		}
		return s.notifyStatus(ctx, order, to, actor)
	})
	if err != nil {
		return err
	}

	previous := order.Status
	order.Status = to
	if s.events != nil {
		s.events.OrderStatusChanged(order, previous)
	}
	return nil
}

// notifyStatus crea la notificación para la contraparte del actor, con el
// deep link según el rol del destinatario.
func (s *OrderService) notifyStatus(ctx context.Context, order *model.Order, to model.OrderStatus, actor auth.Identity) error {
	n := &model.Notification{
		OrderID:   order.ID,
		Title:     fmt.Sprintf("Order Status Updated: %s", to),
		CreatedAt: time.Now().UTC(),
	}

	if actor.IsAdmin() {
		n.UserID = order.UserID
		n.Message = fmt.Sprintf("Your order for %q is now %s.", order.ProductName, to)
		n.Href = "/dashboard/orders/" + order.ID
	} else {
		admin, err := s.users.FindAdmin(ctx)
		if errors.Is(err, repository.ErrNotFound) {
			return nil // sin admin no hay a quién avisar
		}
		if err != nil {
			return err
		}
		n.UserID = admin.ID
		n.Message = fmt.Sprintf("Order for %q is now %s.", order.ProductName, to)
		n.Href = "/admin/orders/" + order.ID
	}

	return s.notifs.Insert(ctx, n)
}

func validateOrderRequest(req dto.CreateOrderRequest) error {
	switch {
	case req.ProductName == "":
		return fmt.Errorf("%w: falta productName", ErrValidation)
	case req.Category == "":
		return fmt.Errorf("%w: falta category", ErrValidation)
	case req.Specifications == "":
		return fmt.Errorf("%w: falta specifications", ErrValidation)
	case req.Quantity < 1:
		return fmt.Errorf("%w: quantity debe ser >= 1", ErrValidation)
	case req.City == "":
		return fmt.Errorf("%w: falta city", ErrValidation)
	case req.PhoneNumber == "":
		return fmt.Errorf("%w: falta phoneNumber", ErrValidation)
	case req.DeliveryAddress == "":
		return fmt.Errorf("%w: falta deliveryAddress", ErrValidation)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 6 {
		return id[:6]
	}
	return id
}
