package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"sourcing-marketplace-service/internal/auth"
	"sourcing-marketplace-service/internal/model"
	"sourcing-marketplace-service/internal/repository"
)

// FileUpload es el adjunto todavía sin subir. El blob se sube ANTES de
// tocar el store de documentos: si la subida falla no queda estado a medias.
type FileUpload struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

type MessageService struct {
	convs  ConversationRepository
	msgs   MessageRepository
	users  UserRepository
	notifs NotificationRepository
	txn    Txn
	blobs  BlobStore
}

func NewMessageService(
	convs ConversationRepository,
	msgs MessageRepository,
	users UserRepository,
	notifs NotificationRepository,
	txn Txn,
	blobs BlobStore,
) *MessageService {
	return &MessageService{
		convs:  convs,
		msgs:   msgs,
		users:  users,
		notifs: notifs,
		txn:    txn,
		blobs:  blobs,
	}
}

// List devuelve los mensajes del hilo en orden cronológico. Efecto lateral
// de la lectura: si el contador del rol del caller es > 0 se resetea a cero.
// El chequeo nonzero garantiza que el reset dispare una sola vez por
// transición, no en cada re-render.
func (s *MessageService) List(ctx context.Context, caller auth.Identity, conversationID string) ([]*model.Message, error) {
	conv, err := s.convs.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && conv.UserID != caller.UserID {
		return nil, ErrForbidden
	}

	messages, err := s.msgs.FindByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if conv.UnreadCount.Counter(caller.Role) > 0 {
		if err := s.convs.ResetUnread(ctx, conversationID, caller.Role); err != nil {
			// La lectura no falla por no poder marcar leído.
			log.Printf("no se pudo marcar leída la conversación %s: %v", conversationID, err)
		}
	}

	return messages, nil
}

// Send agrega un mensaje de texto o con adjunto. Exactamente uno de los dos.
// Mensaje + preview/contador de la conversación + notificación a la
// contraparte van en un solo batch atómico: nunca puede quedar el mensaje
// guardado sin el contador actualizado.
func (s *MessageService) Send(ctx context.Context, caller auth.Identity, conversationID, text string, file *FileUpload) (*model.Message, error) {
	if caller.UserID == "" {
		return nil, ErrAuthRequired
	}
	if (text == "") == (file == nil) {
		return nil, fmt.Errorf("%w: el mensaje lleva texto o adjunto, exactamente uno", ErrValidation)
	}

	conv, err := s.convs.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && conv.UserID != caller.UserID {
		return nil, ErrForbidden
	}

	now := time.Now().UTC()
	msg := &model.Message{
		ConversationID: conversationID,
		SenderID:       caller.UserID,
		SenderName:     senderName(caller),
		Timestamp:      now,
	}

	var preview string
	if file != nil {
		url, err := s.blobs.Save(ctx, conversationID, file.Name, file.Reader)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		msg.Type = model.MessageFile
		msg.FileURL = url
		msg.FileName = file.Name
		msg.FileType = file.ContentType
		preview = "Sent an attachment: " + file.Name
	} else {
		msg.Type = model.MessageText
		msg.Text = text
		preview = text
	}

	recipientID, recipientRole, err := s.counterparty(ctx, caller, conv)
	if err != nil {
		return nil, err
	}

	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.msgs.Insert(ctx, msg); err != nil {
			return err
		}
		if err := s.convs.ApplyMessage(ctx, conversationID, preview, now, recipientRole); err != nil {
			return err
		}
		if recipientID == "" {
			return nil
		}
		return s.notifs.Insert(ctx, &model.Notification{
			UserID:    recipientID,
			OrderID:   conversationID,
			Title:     "New Message",
			Message:   fmt.Sprintf("You have a new message about order #%s...", shortID(conversationID)),
			Href:      messageHref(recipientRole, conversationID),
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	return msg, nil
}

// counterparty resuelve destinatario y rol del otro lado del hilo.
func (s *MessageService) counterparty(ctx context.Context, caller auth.Identity, conv *model.Conversation) (string, model.Role, error) {
	if caller.IsAdmin() {
		return conv.UserID, model.RoleUser, nil
	}
	admin, err := s.users.FindAdmin(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		// Sin admin el contador igual se incrementa; solo no hay notificación.
		return "", model.RoleAdmin, nil
	}
	if err != nil {
		return "", model.RoleAdmin, err
	}
	return admin.ID, model.RoleAdmin, nil
}

func messageHref(recipient model.Role, conversationID string) string {
	if recipient == model.RoleAdmin {
		return "/admin/messages/" + conversationID
	}
	return "/dashboard/messages/" + conversationID
}

func senderName(caller auth.Identity) string {
	if caller.Name != "" {
		return caller.Name
	}
	if caller.Email != "" {
		return caller.Email
	}
	return "Anonymous"
}
