package service

import (
	"context"
	"errors"
	"testing"

	"sourcing-marketplace-service/internal/auth"
	"sourcing-marketplace-service/internal/dto"
	"sourcing-marketplace-service/internal/model"
)

var (
	adminIdent = auth.Identity{UserID: "admin-1", Name: "Mahir", Email: "mahir@gmail.com", Role: model.RoleAdmin}
	userIdent  = auth.Identity{UserID: "user-1", Name: "Ayaan", Email: "ayaan@example.com", Role: model.RoleUser}
)

func seedUsers(f *fixture) {
	f.addUser("admin-1", "Mahir", "mahir@gmail.com", model.RoleAdmin)
	f.addUser("user-1", "Ayaan", "ayaan@example.com", model.RoleUser)
}

func validOrderRequest() dto.CreateOrderRequest {
	return dto.CreateOrderRequest{
		ProductName:     "Solar Panels",
		Category:        "Electronics",
		Specifications:  "400W monocrystalline",
		Quantity:        50,
		City:            "Mogadishu",
		PhoneNumber:     "+252611234567",
		DeliveryAddress: "Warehouse 4, Industrial Road",
	}
}

func seedOrder(t *testing.T, f *fixture, status model.OrderStatus) *model.Order {
	t.Helper()
	svc := f.orderService()
	order, err := svc.CreateOrder(context.Background(), userIdent, validOrderRequest())
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if status != model.StatusSourcing {
		if err := f.orders.UpdateStatus(context.Background(), order.ID, status); err != nil {
			t.Fatalf("UpdateStatus: %v", err)
		}
		order.Status = status
	}
	return order
}

func TestComputeQuoteFeeTiers(t *testing.T) {
	cases := []struct {
		name        string
		perUnit     float64
		quantity    int
		shipping    float64
		wantFee     float64
		wantTotal   float64
		wantProduct float64
	}{
		{"tramo bajo 5%", 10, 49, 20, 24.50, 534.50, 490},
		{"borde exacto 500 cae en 10%", 10, 50, 100, 50, 650, 500},
		{"tramo alto 10%", 25, 100, 75, 250, 2825, 2500},
		{"flete cero es válido", 4, 10, 0, 2, 42, 40},
		{"redondeo a centavos", 3.333, 3, 1, 0.5, 11.5, 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := ComputeQuote(tc.perUnit, tc.quantity, tc.shipping, "China")
			if q.ProductCost != tc.wantProduct {
				t.Errorf("ProductCost = %v, esperado %v", q.ProductCost, tc.wantProduct)
			}
			if q.SourcingFee != tc.wantFee {
				t.Errorf("SourcingFee = %v, esperado %v", q.SourcingFee, tc.wantFee)
			}
			if q.TotalAmount != tc.wantTotal {
				t.Errorf("TotalAmount = %v, esperado %v", q.TotalAmount, tc.wantTotal)
			}
			if q.SourcedCountry != "China" {
				t.Errorf("SourcedCountry = %q", q.SourcedCountry)
			}
		})
	}
}

func TestCreateOrderSeedsConversationAndNotifiesAdmin(t *testing.T) {
	f := newFixture()
	seedUsers(f)
	svc := f.orderService()

	order, err := svc.CreateOrder(context.Background(), userIdent, validOrderRequest())
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.Status != model.StatusSourcing {
		t.Errorf("status = %q, esperado Sourcing", order.Status)
	}
	if order.Quoted() {
		t.Error("una orden nueva no puede tener cotización")
	}

	conv, ok := f.store.convs[order.ID]
	if !ok {
		t.Fatal("la conversación tiene que compartir el id de la orden")
	}
	if conv.UnreadCount.Admin != 1 || conv.UnreadCount.User != 0 {
		t.Errorf("unread = %+v, esperado admin=1 user=0", conv.UnreadCount)
	}
	if conv.LastMessage != "Order created for Solar Panels." {
		t.Errorf("preview = %q", conv.LastMessage)
	}

	msgs, _ := f.msgs.FindByConversation(context.Background(), order.ID)
	if len(msgs) != 1 || msgs[0].SenderID != "system" {
		t.Fatalf("esperado un solo mensaje de sistema, hay %d", len(msgs))
	}

	notifs, _ := f.notifs.FindByUserID(context.Background(), "admin-1")
	if len(notifs) != 1 {
		t.Fatalf("esperada una notificación al admin, hay %d", len(notifs))
	}
	if notifs[0].Href != "/admin/orders/"+order.ID {
		t.Errorf("href = %q", notifs[0].Href)
	}

	if len(f.events.created) != 1 || f.events.created[0] != order.ID {
		t.Errorf("evento OrderCreated no publicado: %v", f.events.created)
	}
}

func TestCreateOrderWithoutAdminStillSucceeds(t *testing.T) {
	f := newFixture()
	f.addUser("user-1", "Ayaan", "ayaan@example.com", model.RoleUser)
	svc := f.orderService()

	order, err := svc.CreateOrder(context.Background(), userIdent, validOrderRequest())
	if err != nil {
		t.Fatalf("CreateOrder sin admin registrado: %v", err)
	}
	if len(f.store.notifs) != 0 {
		t.Error("sin admin no tiene que haber notificación")
	}
	if _, ok := f.store.convs[order.ID]; !ok {
		t.Error("la conversación se crea igual")
	}
}

func TestCreateOrderRollsBackWholeBatch(t *testing.T) {
	f := newFixture()
	seedUsers(f)
	f.notifs.insertErr = errBoom
	svc := f.orderService()

	_, err := svc.CreateOrder(context.Background(), userIdent, validOrderRequest())
	if !errors.Is(err, errBoom) {
		t.Fatalf("esperado errBoom, vino %v", err)
	}

	if len(f.store.orders) != 0 || len(f.store.convs) != 0 || len(f.store.msgs) != 0 {
		t.Error("el batch falló: no puede quedar ningún documento escrito")
	}
	if len(f.events.created) != 0 {
		t.Error("no se publica evento si el batch falló")
	}
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture()
	seedUsers(f)
	svc := f.orderService()

	req := validOrderRequest()
	req.Quantity = 0
	if _, err := svc.CreateOrder(context.Background(), userIdent, req); !errors.Is(err, ErrValidation) {
		t.Errorf("quantity=0 tiene que fallar validación, vino %v", err)
	}

	if _, err := svc.CreateOrder(context.Background(), auth.Identity{}, validOrderRequest()); !errors.Is(err, ErrAuthRequired) {
		t.Errorf("sin identidad tiene que fallar auth, vino %v", err)
	}
}

func TestCreateQuoteLandsExactlyOnQuoteReady(t *testing.T) {
	f := newFixture()
	seedUsers(f)
	svc := f.orderService()
	order := seedOrder(t, f, model.StatusSourcing)

	perUnit, shipping := 10.0, 100.0
	got, err := svc.CreateQuote(context.Background(), adminIdent, order.ID, dto.CreateQuoteRequest{
		ProductCostPerUnit: &perUnit,
		ShippingFee:        &shipping,
		SourcedCountry:     "China",
	})
	if err != nil {
		t.Fatalf("CreateQuote: %v", err)
	}

	if got.Status != model.StatusQuoteReady {
		t.Errorf("status = %q, esperado Quote Ready", got.Status)
	}
	if !got.Quoted() {
		t.Fatal("los cuatro campos financieros tienen que quedar seteados juntos")
	}
	// 50 unidades a $10 = $500 de producto, justo en el tramo del 10%.
	if *got.ProductCost != 500 || *got.SourcingFee != 50 || *got.ShippingFee != 100 || *got.TotalAmount != 650 {
		t.Errorf("desglose = %v/%v/%v/%v, esperado 500/50/100/650",
			*got.ProductCost, *got.SourcingFee, *got.ShippingFee, *got.TotalAmount)
	}

	stored := f.store.orders[order.ID]
	if stored.Status != model.StatusQuoteReady || !stored.Quoted() {
		t.Error("el documento persistido tiene que reflejar la cotización")
	}

	notifs, _ := f.notifs.FindByUserID(context.Background(), "user-1")
	if len(notifs) != 1 || notifs[0].Href != "/dashboard/orders/"+order.ID {
		t.Fatalf("esperada notificación al cliente con deep link de dashboard: %+v", notifs)
	}

	if len(f.events.changes) != 1 || f.events.changes[0].previous != model.StatusSourcing {
		t.Errorf("evento de cambio de estado: %+v", f.events.changes)
	}
}

func TestCreateQuoteGuards(t *testing.T) {
	f := newFixture()
	seedUsers(f)
	svc := f.orderService()
	order := seedOrder(t, f, model.StatusSourcing)

	perUnit, shipping := 10.0, 5.0
	req := dto.CreateQuoteRequest{ProductCostPerUnit: &perUnit, ShippingFee: &shipping, SourcedCountry: "Turkey"}

	if _, err := svc.CreateQuote(context.Background(), userIdent, order.ID, req); !errors.Is(err, ErrForbidden) {
		t.Errorf("solo el admin cotiza, vino %v", err)
	}

	if _, err := svc.CreateQuote(context.Background(), adminIdent, order.ID, dto.CreateQuoteRequest{}); !errors.Is(err, ErrValidation) {
		t.Errorf("cotización incompleta tiene que fallar validación, vino %v", err)
	}

	f.orders.UpdateStatus(context.Background(), order.ID, model.StatusShipped)
	if _, err := svc.CreateQuote(context.Background(), adminIdent, order.ID, req); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("cotizar fuera de Sourcing es transición inválida, vino %v", err)
	}
}

func TestMakePaymentWritesLedgerAtomically(t *testing.T) {
	f := newFixture()
	seedUsers(f)
	svc := f.orderService()
	order := seedOrder(t, f, model.StatusSourcing)

	perUnit, shipping := 10.0, 100.0
	if _, err := svc.CreateQuote(context.Background(), adminIdent, order.ID, dto.CreateQuoteRequest{
		ProductCostPerUnit: &perUnit, ShippingFee: &shipping, SourcedCountry: "China",
	}); err != nil {
		t.Fatalf("CreateQuote: %v", err)
	}

	method := &model.PaymentMethod{UserID: "user-1", Type: model.MethodEVCPlus, Nickname: "Mi EVC"}
	f.payments.Insert(context.Background(), method)

	if err := svc.MakePayment(context.Background(), userIdent, order.ID, method.ID); err != nil {
		t.Fatalf("MakePayment: %v", err)
	}

	if f.store.orders[order.ID].Status != model.StatusPaymentConfirmed {
		t.Errorf("status = %q, esperado Payment Confirmed", f.store.orders[order.ID].Status)
	}

	txs, _ := f.ledger.FindByUserID(context.Background(), "user-1")
	if len(txs) != 1 {
		t.Fatalf("esperado un asiento, hay %d", len(txs))
	}
	if txs[0].Amount != -650 {
		t.Errorf("monto = %v, esperado -650 (negativo desde el pagador)", txs[0].Amount)
	}
	if txs[0].Type != model.TransactionPayment || txs[0].OrderID != order.ID {
		t.Errorf("asiento = %+v", txs[0])
	}
}

func TestMakePaymentGuards(t *testing.T) {
	f := newFixture()
	seedUsers(f)
	f.addUser("user-2", "Bashir", "bashir@example.com", model.RoleUser)
	svc := f.orderService()
	order := seedOrder(t, f, model.StatusSourcing)

	// Todavía en Sourcing: no hay cotización que pagar.
	method := &model.PaymentMethod{UserID: "user-1", Type: model.MethodWaafi}
	f.payments.Insert(context.Background(), method)
	if err := svc.MakePayment(context.Background(), userIdent, order.ID, method.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("pagar sin cotización es transición inválida, vino %v", err)
	}

	perUnit, shipping := 10.0, 100.0
	svc.CreateQuote(context.Background(), adminIdent, order.ID, dto.CreateQuoteRequest{
		ProductCostPerUnit: &perUnit, ShippingFee: &shipping, SourcedCountry: "China",
	})

	if err := svc.MakePayment(context.Background(), userIdent, order.ID, ""); !errors.Is(err, ErrPaymentRejected) {
		t.Errorf("sin método seleccionado se rechaza, vino %v", err)
	}

	other := &model.PaymentMethod{UserID: "user-2", Type: model.MethodEVCPlus}
	f.payments.Insert(context.Background(), other)
	if err := svc.MakePayment(context.Background(), userIdent, order.ID, other.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("método ajeno es forbidden, vino %v", err)
	}

	if err := svc.MakePayment(context.Background(), adminIdent, order.ID, method.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("el admin no paga órdenes, vino %v", err)
	}

	if len(f.store.txs) != 0 {
		t.Error("ningún intento rechazado puede dejar asientos en el ledger")
	}
}

func TestCashPaymentFlow(t *testing.T) {
	f := newFixture()
	seedUsers(f)
	svc := f.orderService()
	order := seedOrder(t, f, model.StatusSourcing)

	perUnit, shipping := 20.0, 30.0
	svc.CreateQuote(context.Background(), adminIdent, order.ID, dto.CreateQuoteRequest{
		ProductCostPerUnit: &perUnit, ShippingFee: &shipping, SourcedCountry: "UAE",
	})

	if err := svc.ArrangeCashPayment(context.Background(), userIdent, order.ID); err != nil {
		t.Fatalf("ArrangeCashPayment: %v", err)
	}
	if f.store.orders[order.ID].Status != model.StatusPaymentPending {
		t.Fatalf("status = %q, esperado Payment Pending", f.store.orders[order.ID].Status)
	}
	if len(f.store.txs) != 0 {
		t.Fatal("acordar efectivo no asienta nada todavía")
	}

	if err := svc.ConfirmCashPayment(context.Background(), userIdent, order.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("solo el admin confirma efectivo, vino %v", err)
	}
	if err := svc.ConfirmCashPayment(context.Background(), adminIdent, order.ID); err != nil {
		t.Fatalf("ConfirmCashPayment: %v", err)
	}

	if f.store.orders[order.ID].Status != model.StatusPaymentConfirmed {
		t.Errorf("status = %q, esperado Payment Confirmed", f.store.orders[order.ID].Status)
	}
	txs, _ := f.ledger.FindByUserID(context.Background(), "user-1")
	if len(txs) != 1 || txs[0].Amount != -1050 {
		t.Fatalf("asiento de efectivo: %+v", txs)
	}
}

func TestShipmentProgression(t *testing.T) {
	f := newFixture()
	seedUsers(f)
	svc := f.orderService()
	order := seedOrder(t, f, model.StatusPaymentConfirmed)

	if err := svc.MarkDelivered(context.Background(), adminIdent, order.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("no se puede entregar sin enviar, vino %v", err)
	}

	if err := svc.AdvanceShipment(context.Background(), adminIdent, order.ID); err != nil {
		t.Fatalf("AdvanceShipment: %v", err)
	}
	if err := svc.MarkDelivered(context.Background(), adminIdent, order.ID); err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}

	// Delivered es final: nada más puede moverla.
	if err := svc.AdvanceShipment(context.Background(), adminIdent, order.ID); !errors.Is(err, ErrFinalState) {
		t.Errorf("orden entregada es final, vino %v", err)
	}
}

func TestCancelOrder(t *testing.T) {
	f := newFixture()
	seedUsers(f)
	svc := f.orderService()

	t.Run("desde Sourcing", func(t *testing.T) {
		order := seedOrder(t, f, model.StatusSourcing)
		if err := svc.CancelOrder(context.Background(), userIdent, order.ID); err != nil {
			t.Fatalf("CancelOrder: %v", err)
		}
		if f.store.orders[order.ID].Status != model.StatusCancelled {
			t.Error("la orden tiene que quedar Cancelled")
		}
		// Cancelled también es final.
		if err := svc.CancelOrder(context.Background(), userIdent, order.ID); !errors.Is(err, ErrFinalState) {
			t.Errorf("cancelar dos veces: %v", err)
		}
	})

	t.Run("después de pagar ya no", func(t *testing.T) {
		order := seedOrder(t, f, model.StatusPaymentConfirmed)
		if err := svc.CancelOrder(context.Background(), userIdent, order.ID); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("cancelar pagada: %v", err)
		}
	})

	t.Run("solo el dueño", func(t *testing.T) {
		order := seedOrder(t, f, model.StatusSourcing)
		other := auth.Identity{UserID: "user-2", Role: model.RoleUser}
		if err := svc.CancelOrder(context.Background(), other, order.ID); !errors.Is(err, ErrForbidden) {
			t.Errorf("cancelar ajena: %v", err)
		}
		if err := svc.CancelOrder(context.Background(), adminIdent, order.ID); !errors.Is(err, ErrForbidden) {
			t.Errorf("el admin no cancela por el cliente: %v", err)
		}
	})
}

func TestDeleteOrderOnlyPreQuote(t *testing.T) {
	f := newFixture()
	seedUsers(f)
	svc := f.orderService()

	order := seedOrder(t, f, model.StatusSourcing)
	if err := svc.DeleteOrder(context.Background(), userIdent, order.ID); err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}
	if _, ok := f.store.orders[order.ID]; ok {
		t.Error("la orden tiene que desaparecer")
	}
	// La conversación queda huérfana a propósito.
	if _, ok := f.store.convs[order.ID]; !ok {
		t.Error("la conversación no se borra en cascada")
	}

	quoted := seedOrder(t, f, model.StatusQuoteReady)
	if err := svc.DeleteOrder(context.Background(), userIdent, quoted.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("borrar cotizada: %v", err)
	}
}

func TestBlockUser(t *testing.T) {
	f := newFixture()
	seedUsers(f)
	svc := f.orderService()

	if err := svc.BlockUser(context.Background(), userIdent, "user-1", true); !errors.Is(err, ErrForbidden) {
		t.Errorf("bloquear requiere admin, vino %v", err)
	}
	if err := svc.BlockUser(context.Background(), adminIdent, "user-1", true); err != nil {
		t.Fatalf("BlockUser: %v", err)
	}
	if !f.store.users["user-1"].IsBlocked {
		t.Error("el usuario tiene que quedar bloqueado")
	}
	if err := svc.BlockUser(context.Background(), adminIdent, "user-1", false); err != nil {
		t.Fatalf("desbloquear: %v", err)
	}
	if f.store.users["user-1"].IsBlocked {
		t.Error("el usuario tiene que quedar desbloqueado")
	}
}

func TestStatusChangeRollsBackWithNotification(t *testing.T) {
	f := newFixture()
	seedUsers(f)
	svc := f.orderService()
	order := seedOrder(t, f, model.StatusPaymentConfirmed)

	f.notifs.insertErr = errBoom
	err := svc.AdvanceShipment(context.Background(), adminIdent, order.ID)
	if !errors.Is(err, errBoom) {
		t.Fatalf("esperado errBoom, vino %v", err)
	}

	if f.store.orders[order.ID].Status != model.StatusPaymentConfirmed {
		t.Error("si la notificación falla, el estado no puede haber cambiado")
	}
	if len(f.events.changes) != 0 {
		t.Error("no se publica evento de un batch volteado")
	}
}

func TestRound2(t *testing.T) {
	if got := round2(10.006); got != 10.01 {
		t.Errorf("round2(10.006) = %v", got)
	}
	if got := round2(10.004); got != 10.0 {
		t.Errorf("round2(10.004) = %v", got)
	}
}
