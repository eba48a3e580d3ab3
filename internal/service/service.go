package service

import (
	"context"
	"errors"
	"io"
	"math"
	"time"

	"sourcing-marketplace-service/internal/model"
)

// Interfaces que debe implementar repository

type OrderRepository interface {
	Insert(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	FindAll(ctx context.Context) ([]*model.Order, error)
	FindByUserID(ctx context.Context, userID string) ([]*model.Order, error)
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error
	ApplyQuote(ctx context.Context, id string, q model.Quote) error
	Delete(ctx context.Context, id string) error
}

type ConversationRepository interface {
	Insert(ctx context.Context, c *model.Conversation) error
	FindByID(ctx context.Context, id string) (*model.Conversation, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.Conversation, error)
	ApplyMessage(ctx context.Context, id, preview string, ts time.Time, recipient model.Role) error
	ResetUnread(ctx context.Context, id string, role model.Role) error
}

type MessageRepository interface {
	Insert(ctx context.Context, m *model.Message) error
	FindByConversation(ctx context.Context, conversationID string) ([]*model.Message, error)
}

type UserRepository interface {
	Insert(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindAdmin(ctx context.Context) (*model.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.User, error)
	SetBlocked(ctx context.Context, id string, blocked bool) error
	UpdateProfile(ctx context.Context, id string, p model.UserProfile) error
	UpdatePreferences(ctx context.Context, id string, p model.UserPreferences) error
}

type NotificationRepository interface {
	Insert(ctx context.Context, n *model.Notification) error
	FindByUserID(ctx context.Context, userID string) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

type PaymentMethodRepository interface {
	Insert(ctx context.Context, pm *model.PaymentMethod) error
	FindByID(ctx context.Context, id string) (*model.PaymentMethod, error)
	FindByUserID(ctx context.Context, userID string) ([]*model.PaymentMethod, error)
	Update(ctx context.Context, id, nickname string, details model.MethodDetails) error
	Delete(ctx context.Context, id string) error
}

type PayoutMethodRepository interface {
	Insert(ctx context.Context, pm *model.PayoutMethod) error
	FindByID(ctx context.Context, id string) (*model.PayoutMethod, error)
	FindByAdminID(ctx context.Context, adminID string) ([]*model.PayoutMethod, error)
	Update(ctx context.Context, id, nickname string, details model.MethodDetails) error
	Delete(ctx context.Context, id string) error
}

type TransactionRepository interface {
	Insert(ctx context.Context, t *model.Transaction) error
	FindByUserID(ctx context.Context, userID string) ([]*model.Transaction, error)
	FindAll(ctx context.Context) ([]*model.Transaction, error)
}

// Txn agrupa escrituras multi-documento: se aplican todas o ninguna.
type Txn interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// BlobStore guarda adjuntos del chat y devuelve la URL pública.
type BlobStore interface {
	Save(ctx context.Context, conversationID, fileName string, r io.Reader) (string, error)
}

// EventPublisher emite eventos de dominio hacia Rabbit. Fire-and-forget:
// un broker caído no puede voltear una escritura ya confirmada.
type EventPublisher interface {
	OrderCreated(o *model.Order)
	OrderStatusChanged(o *model.Order, previous model.OrderStatus)
}

// Errores de negocio exportados (los usa el controller)
var (
	ErrAuthRequired       = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidTransition  = errors.New("transición de estado inválida")
	ErrFinalState         = errors.New("no se puede cambiar el estado de una orden en estado final")
	ErrValidation         = errors.New("datos inválidos")
	ErrPaymentRejected    = errors.New("pago rechazado")
	ErrUploadFailed       = errors.New("falló la subida del archivo")
	ErrEmailTaken         = errors.New("el email ya está registrado")
	ErrInvalidCredentials = errors.New("credenciales inválidas")
	ErrAccountBlocked     = errors.New("cuenta bloqueada")
)

// round2 redondea a centavos. Los montos del quote no pueden arrastrar
// más de dos decimales.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
