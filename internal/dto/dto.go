// dto.go
package dto

import "sourcing-marketplace-service/internal/model"

// --- Auth ---

type SignupRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// --- Users ---

type UpdateProfileRequest struct {
	CompanyName   string `json:"companyName"`
	Avatar        string `json:"avatar"`
	Industry      string `json:"industry"`
	Country       string `json:"country"`
	City          string `json:"city"`
	EmployeeCount string `json:"employeeCount"`
}

type UpdatePreferencesRequest struct {
	Categories []string `json:"categories"`
}

type BlockUserRequest struct {
	IsBlocked *bool `json:"isBlocked" binding:"required"`
}

// --- Orders ---

type CreateOrderRequest struct {
	ProductName     string   `json:"productName" binding:"required"`
	Category        string   `json:"category" binding:"required"`
	Specifications  string   `json:"specifications" binding:"required"`
	ProductLink     string   `json:"productLink"`
	ReferenceImage  string   `json:"referenceImage"`
	Quantity        int      `json:"quantity" binding:"required,min=1"`
	TargetPrice     *float64 `json:"targetPrice"`
	City            string   `json:"city" binding:"required"`
	PhoneNumber     string   `json:"phoneNumber" binding:"required"`
	DeliveryAddress string   `json:"deliveryAddress" binding:"required"`
}

// El costo va por unidad; el servicio lo multiplica por la cantidad de la orden.
// Punteros para distinguir "no vino" de cero (un flete de 0 es válido).
type CreateQuoteRequest struct {
	ProductCostPerUnit *float64 `json:"productCostPerUnit" binding:"required"`
	ShippingFee        *float64 `json:"shippingFee" binding:"required"`
	SourcedCountry     string   `json:"sourcedCountry" binding:"required"`
}

type MakePaymentRequest struct {
	PaymentMethodID string `json:"paymentMethodId" binding:"required"`
}

// --- Mensajería ---

// Para adjuntos el request llega como multipart con campo "file";
// este DTO cubre el camino de texto.
type SendMessageRequest struct {
	Text string `json:"text"`
}

// --- Billing ---

type MethodDetailsDTO struct {
	PhoneNumber       string `json:"phoneNumber"`
	AccountHolderName string `json:"accountHolderName"`
	AccountNumber     string `json:"accountNumber"`
	BankName          string `json:"bankName"`
}

type CreateMethodRequest struct {
	Nickname string           `json:"nickname" binding:"required"`
	Type     model.MethodType `json:"type" binding:"required"`
	Details  MethodDetailsDTO `json:"details"`
}

// El tipo no se puede editar después de creado; por eso no aparece acá.
type UpdateMethodRequest struct {
	Nickname string           `json:"nickname" binding:"required"`
	Details  MethodDetailsDTO `json:"details"`
}

func (d MethodDetailsDTO) ToModel() model.MethodDetails {
	return model.MethodDetails{
		PhoneNumber:       d.PhoneNumber,
		AccountHolderName: d.AccountHolderName,
		AccountNumber:     d.AccountNumber,
		BankName:          d.BankName,
	}
}
