package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"sourcing-marketplace-service/internal/auth"
	"sourcing-marketplace-service/internal/dto"
	"sourcing-marketplace-service/internal/model"
)

var validMethodTypes = map[model.MethodType]bool{
	model.MethodEVCPlus:     true,
	model.MethodWaafi:       true,
	model.MethodEDahab:      true,
	model.MethodBankAccount: true,
}

type BillingService struct {
	payments PaymentMethodRepository
	payouts  PayoutMethodRepository
	ledger   TransactionRepository
}

func NewBillingService(payments PaymentMethodRepository, payouts PayoutMethodRepository, ledger TransactionRepository) *BillingService {
	return &BillingService{payments: payments, payouts: payouts, ledger: ledger}
}

// validateMethod chequea tipo y detalles según sea banco o mobile money.
func validateMethod(t model.MethodType, d model.MethodDetails) error {
	if !validMethodTypes[t] {
		return fmt.Errorf("%w: tipo de método desconocido %q", ErrValidation, t)
	}
	if t == model.MethodBankAccount {
		if d.AccountHolderName == "" || d.AccountNumber == "" || d.BankName == "" {
			return fmt.Errorf("%w: cuenta bancaria incompleta", ErrValidation)
		}
		return nil
	}
	if d.PhoneNumber == "" {
		return fmt.Errorf("%w: falta phoneNumber", ErrValidation)
	}
	return nil
}

// --- Métodos de pago del cliente ---

func (s *BillingService) AddPaymentMethod(ctx context.Context, caller auth.Identity, req dto.CreateMethodRequest) (*model.PaymentMethod, error) {
	if caller.UserID == "" {
		return nil, ErrAuthRequired
	}
	details := req.Details.ToModel()
	if err := validateMethod(req.Type, details); err != nil {
		return nil, err
	}
	pm := &model.PaymentMethod{
		UserID:    caller.UserID,
		Nickname:  req.Nickname,
		Type:      req.Type,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.payments.Insert(ctx, pm); err != nil {
		return nil, err
	}
	return pm, nil
}

func (s *BillingService) ListPaymentMethods(ctx context.Context, caller auth.Identity) ([]*model.PaymentMethod, error) {
	if caller.UserID == "" {
		return nil, ErrAuthRequired
	}
	return s.payments.FindByUserID(ctx, caller.UserID)
}

// UpdatePaymentMethod edita nickname y detalles; el tipo es inmutable.
func (s *BillingService) UpdatePaymentMethod(ctx context.Context, caller auth.Identity, id string, req dto.UpdateMethodRequest) error {
	pm, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if pm.UserID != caller.UserID {
		return ErrForbidden
	}
	details := req.Details.ToModel()
	if err := validateMethod(pm.Type, details); err != nil {
		return err
	}
	return s.payments.Update(ctx, id, req.Nickname, details)
}

// DeletePaymentMethod borra sin cascada: las transacciones ya emitidas
// conservan su propio snapshot de descripción y monto.
func (s *BillingService) DeletePaymentMethod(ctx context.Context, caller auth.Identity, id string) error {
	pm, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if pm.UserID != caller.UserID {
		return ErrForbidden
	}
	return s.payments.Delete(ctx, id)
}

// --- Métodos de cobro del admin ---

func (s *BillingService) AddPayoutMethod(ctx context.Context, caller auth.Identity, req dto.CreateMethodRequest) (*model.PayoutMethod, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	details := req.Details.ToModel()
	if err := validateMethod(req.Type, details); err != nil {
		return nil, err
	}
	pm := &model.PayoutMethod{
		AdminID:   caller.UserID,
		Nickname:  req.Nickname,
		Type:      req.Type,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.payouts.Insert(ctx, pm); err != nil {
		return nil, err
	}
	return pm, nil
}

func (s *BillingService) ListPayoutMethods(ctx context.Context, caller auth.Identity) ([]*model.PayoutMethod, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.payouts.FindByAdminID(ctx, caller.UserID)
}

func (s *BillingService) UpdatePayoutMethod(ctx context.Context, caller auth.Identity, id string, req dto.UpdateMethodRequest) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	pm, err := s.payouts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	details := req.Details.ToModel()
	if err := validateMethod(pm.Type, details); err != nil {
		return err
	}
	return s.payouts.Update(ctx, id, req.Nickname, details)
}

func (s *BillingService) DeletePayoutMethod(ctx context.Context, caller auth.Identity, id string) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	if _, err := s.payouts.FindByID(ctx, id); err != nil {
		return err
	}
	return s.payouts.Delete(ctx, id)
}

// --- Ledger ---

// ListTransactions: el cliente ve lo suyo; con forAdmin un admin ve todo.
// Un no-admin que pide forAdmin recibe lista vacía, no error (comportamiento
// heredado del sistema original). Orden: más reciente primero, resuelto acá.
func (s *BillingService) ListTransactions(ctx context.Context, caller auth.Identity, forAdmin bool) ([]*model.Transaction, error) {
	if caller.UserID == "" {
		return nil, ErrAuthRequired
	}

	var (
		out []*model.Transaction
		err error
	)
	switch {
	case forAdmin && caller.IsAdmin():
		out, err = s.ledger.FindAll(ctx)
	case forAdmin:
		return []*model.Transaction{}, nil
	default:
		out, err = s.ledger.FindByUserID(ctx, caller.UserID)
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
