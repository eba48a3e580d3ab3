package service

import (
	"context"
	"sort"

	"sourcing-marketplace-service/internal/auth"
	"sourcing-marketplace-service/internal/model"
)

type NotificationService struct {
	notifs NotificationRepository
}

func NewNotificationService(notifs NotificationRepository) *NotificationService {
	return &NotificationService{notifs: notifs}
}

// List devuelve el buzón del caller, más reciente primero. El orden se
// resuelve acá porque la consulta de respaldo no lo garantiza.
func (s *NotificationService) List(ctx context.Context, caller auth.Identity) ([]*model.Notification, error) {
	if caller.UserID == "" {
		return nil, ErrAuthRequired
	}
	out, err := s.notifs.FindByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// UnreadCount es el número del badge.
func (s *NotificationService) UnreadCount(ctx context.Context, caller auth.Identity) (int, error) {
	all, err := s.List(ctx, caller)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range all {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

// MarkAsRead es idempotente: marcar dos veces la misma notificación deja
// read=true las dos veces y no da error.
func (s *NotificationService) MarkAsRead(ctx context.Context, caller auth.Identity, id string) error {
	if caller.UserID == "" {
		return ErrAuthRequired
	}
	return s.notifs.MarkRead(ctx, id, caller.UserID)
}

// MarkAllAsRead marca todo lo no leído en un solo batch. Lo creado en
// paralelo durante el batch puede quedar afuera; no hay versionado.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, caller auth.Identity) error {
	if caller.UserID == "" {
		return ErrAuthRequired
	}
	return s.notifs.MarkAllRead(ctx, caller.UserID)
}
