package service

import (
	"context"
	"log"
	"sort"
	"time"

	"sourcing-marketplace-service/internal/auth"
	"sourcing-marketplace-service/internal/model"
)

// Límite de cardinalidad de la consulta $in del store de respaldo.
const maxInQuerySize = 30

// ListEnriched produce la lista de órdenes que el caller puede ver (admin:
// todas, cliente: las propias), cada una con el snapshot del perfil del
// dueño y la metadata de su conversación. El join se hace en lotes de a 30
// ids y un sub-fetch fallido degrada: la orden sale igual, sin enriquecer.
func (s *OrderService) ListEnriched(ctx context.Context, caller auth.Identity) ([]model.EnrichedOrder, error) {
	if caller.UserID == "" {
		return nil, ErrAuthRequired
	}

	var (
		raw []*model.Order
		err error
	)
	if caller.IsAdmin() {
		raw, err = s.orders.FindAll(ctx)
	} else {
		raw, err = s.orders.FindByUserID(ctx, caller.UserID)
	}
	if err != nil {
		return nil, err
	}

	usersByID := s.fetchUsers(ctx, distinctUserIDs(raw))

	orderIDs := make([]string, 0, len(raw))
	for _, o := range raw {
		orderIDs = append(orderIDs, o.ID)
	}
	convsByID := s.fetchConversations(ctx, orderIDs)

	enriched := make([]model.EnrichedOrder, 0, len(raw))
	for _, o := range raw {
		e := model.EnrichedOrder{Order: *o}
		if u, ok := usersByID[o.UserID]; ok {
			e.CustomerName = u.FullName
			e.CustomerEmail = u.Email
			e.CustomerAvatar = u.Profile.Avatar
			e.IsBlocked = u.IsBlocked
		}
		if c, ok := convsByID[o.ID]; ok {
			e.Conversation = c
		}
		enriched = append(enriched, e)
	}

	sortEnriched(enriched, caller.Role)
	return enriched, nil
}

// GetEnriched resuelve una sola orden con el mismo join que la lista.
func (s *OrderService) GetEnriched(ctx context.Context, caller auth.Identity, orderID string) (*model.EnrichedOrder, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && order.UserID != caller.UserID {
		return nil, ErrForbidden
	}

	e := &model.EnrichedOrder{Order: *order}
	if u, ok := s.fetchUsers(ctx, []string{order.UserID})[order.UserID]; ok {
		e.CustomerName = u.FullName
		e.CustomerEmail = u.Email
		e.CustomerAvatar = u.Profile.Avatar
		e.IsBlocked = u.IsBlocked
	}
	if c, ok := s.fetchConversations(ctx, []string{order.ID})[order.ID]; ok {
		e.Conversation = c
	}
	return e, nil
}

// Customers arma el roll-up por cliente que muestra el panel del admin.
func (s *OrderService) Customers(ctx context.Context, caller auth.Identity) ([]model.Customer, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	enriched, err := s.ListEnriched(ctx, caller)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*model.Customer)
	var order []string
	for _, e := range enriched {
		if e.UserID == "" || e.CustomerName == "" {
			continue
		}
		if c, ok := byID[e.UserID]; ok {
			c.OrderCount++
			continue
		}
		email := e.CustomerEmail
		if email == "" {
			email = "N/A"
		}
		byID[e.UserID] = &model.Customer{
			UserID:     e.UserID,
			Name:       e.CustomerName,
			Email:      email,
			Avatar:     e.CustomerAvatar,
			IsBlocked:  e.IsBlocked,
			OrderCount: 1,
		}
		order = append(order, e.UserID)
	}

	out := make([]model.Customer, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

// fetchUsers trae los perfiles en lotes. Un lote fallido se loguea y se
// sigue: el enriquecimiento es best-effort.
func (s *OrderService) fetchUsers(ctx context.Context, ids []string) map[string]*model.User {
	out := make(map[string]*model.User, len(ids))
	for _, chunk := range chunkIDs(ids, maxInQuerySize) {
		users, err := s.users.FindByIDs(ctx, chunk)
		if err != nil {
			log.Printf("error trayendo usuarios para enriquecer órdenes: %v", err)
			continue
		}
		for _, u := range users {
			out[u.ID] = u
		}
	}
	return out
}

func (s *OrderService) fetchConversations(ctx context.Context, ids []string) map[string]*model.Conversation {
	out := make(map[string]*model.Conversation, len(ids))
	for _, chunk := range chunkIDs(ids, maxInQuerySize) {
		convs, err := s.convs.FindByIDs(ctx, chunk)
		if err != nil {
			log.Printf("error trayendo conversaciones para enriquecer órdenes: %v", err)
			continue
		}
		for _, c := range convs {
			out[c.ID] = c
		}
	}
	return out
}

// sortEnriched ordena con no-leídos primero y después por actividad más
// reciente (último mensaje, o creación de la orden si nunca hubo mensajes).
// Es estable y se reaplica en cada refresh, no solo en la carga inicial.
func sortEnriched(orders []model.EnrichedOrder, role model.Role) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]

		aUnread := unreadFor(a, role)
		bUnread := unreadFor(b, role)
		if aUnread > 0 && bUnread == 0 {
			return true
		}
		if aUnread == 0 && bUnread > 0 {
			return false
		}

		return activityTime(a).After(activityTime(b))
	})
}

func unreadFor(e model.EnrichedOrder, role model.Role) int {
	if e.Conversation == nil {
		return 0
	}
	return e.Conversation.UnreadCount.Counter(role)
}

func activityTime(e model.EnrichedOrder) time.Time {
	if e.Conversation != nil && !e.Conversation.LastMessageTimestamp.IsZero() {
		return e.Conversation.LastMessageTimestamp
	}
	return e.CreatedAt
}

func distinctUserIDs(orders []*model.Order) []string {
	seen := make(map[string]bool, len(orders))
	var out []string
	for _, o := range orders {
		if o.UserID == "" || seen[o.UserID] {
			continue
		}
		seen[o.UserID] = true
		out = append(out, o.UserID)
	}
	return out
}

func chunkIDs(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
