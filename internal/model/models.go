// models.go
package model

import "time"

// Roles resueltos una sola vez al emitir el token (no se compara el email en los handlers).
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Estados del ciclo de vida de una orden. Los valores literales son contrato
// persistido, no se traducen ni se renombran.
type OrderStatus string

const (
	StatusSourcing         OrderStatus = "Sourcing"
	StatusQuoteReady       OrderStatus = "Quote Ready"
	StatusPaymentPending   OrderStatus = "Payment Pending"
	StatusPaymentConfirmed OrderStatus = "Payment Confirmed"
	StatusShipped          OrderStatus = "Shipped"
	StatusDelivered        OrderStatus = "Delivered"
	StatusCancelled        OrderStatus = "Cancelled"
)

// Order es una solicitud de sourcing de un cliente.
// Los campos financieros quedan en nil hasta que el admin confirma una cotización;
// ApplyQuote es el único camino de escritura y los setea todos juntos.
type Order struct {
	ID              string      `bson:"_id" json:"id"`
	UserID          string      `bson:"userId" json:"userId"`
	ProductName     string      `bson:"productName" json:"productName"`
	Category        string      `bson:"category" json:"category"`
	Specifications  string      `bson:"specifications" json:"specifications"`
	ProductLink     string      `bson:"productLink,omitempty" json:"productLink,omitempty"`
	ReferenceImage  string      `bson:"referenceImage,omitempty" json:"referenceImage,omitempty"`
	Quantity        int         `bson:"quantity" json:"quantity"`
	TargetPrice     *float64    `bson:"targetPrice,omitempty" json:"targetPrice,omitempty"`
	City            string      `bson:"city" json:"city"`
	PhoneNumber     string      `bson:"phoneNumber" json:"phoneNumber"`
	DeliveryAddress string      `bson:"deliveryAddress" json:"deliveryAddress"`
	CreatedAt       time.Time   `bson:"createdAt" json:"createdAt"`
	Status          OrderStatus `bson:"status" json:"status"`

	// Financieros (nil hasta Quote Ready)
	ProductCost    *float64 `bson:"productCost,omitempty" json:"productCost,omitempty"`
	SourcingFee    *float64 `bson:"sourcingFee,omitempty" json:"sourcingFee,omitempty"`
	ShippingFee    *float64 `bson:"shippingFee,omitempty" json:"shippingFee,omitempty"`
	TotalAmount    *float64 `bson:"totalAmount,omitempty" json:"totalAmount,omitempty"`
	SourcedCountry string   `bson:"sourcedCountry,omitempty" json:"sourcedCountry,omitempty"`
}

// Quoted indica si la orden ya tiene cotización confirmada.
func (o *Order) Quoted() bool {
	return o.ProductCost != nil && o.SourcingFee != nil && o.ShippingFee != nil && o.TotalAmount != nil
}

// Quote es el desglose que fija los cuatro campos financieros de una orden.
// Invariante: TotalAmount = ProductCost + SourcingFee + ShippingFee.
type Quote struct {
	ProductCost    float64 `json:"productCost"`
	SourcingFee    float64 `json:"sourcingFee"`
	ShippingFee    float64 `json:"shippingFee"`
	TotalAmount    float64 `json:"totalAmount"`
	SourcedCountry string  `json:"sourcedCountry"`
}

// UnreadCount lleva los no-leídos por rol. Se incrementa con $inc, nunca
// con read-modify-write, para no perder updates con senders concurrentes.
type UnreadCount struct {
	User  int `bson:"user" json:"user"`
	Admin int `bson:"admin" json:"admin"`
}

// Counter devuelve el contador que corresponde al rol.
func (u UnreadCount) Counter(role Role) int {
	if role == RoleAdmin {
		return u.Admin
	}
	return u.User
}

// Conversation es el hilo de chat 1:1 con una orden. Comparte el id de la orden.
type Conversation struct {
	ID                   string      `bson:"_id" json:"id"`
	UserID               string      `bson:"userId" json:"userId"`
	OrderID              string      `bson:"orderId" json:"orderId"`
	LastMessage          string      `bson:"lastMessage" json:"lastMessage"`
	LastMessageTimestamp time.Time   `bson:"lastMessageTimestamp" json:"lastMessageTimestamp"`
	UnreadCount          UnreadCount `bson:"unreadCount" json:"unreadCount"`
}

type MessageType string

const (
	MessageText MessageType = "text"
	MessageFile MessageType = "file"
)

// Message es inmutable una vez creado. Ordenado por timestamp ascendente.
type Message struct {
	ID             string      `bson:"_id" json:"id"`
	ConversationID string      `bson:"conversationId" json:"conversationId"`
	SenderID       string      `bson:"senderId" json:"senderId"`
	SenderName     string      `bson:"senderName" json:"senderName"`
	Type           MessageType `bson:"type" json:"type"`
	Text           string      `bson:"text,omitempty" json:"text,omitempty"`
	FileURL        string      `bson:"fileUrl,omitempty" json:"fileUrl,omitempty"`
	FileName       string      `bson:"fileName,omitempty" json:"fileName,omitempty"`
	FileType       string      `bson:"fileType,omitempty" json:"fileType,omitempty"`
	Timestamp      time.Time   `bson:"timestamp" json:"timestamp"`
}

// Notification solo muta para pasar read a true.
type Notification struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"userId" json:"userId"`
	OrderID   string    `bson:"orderId" json:"orderId"`
	Title     string    `bson:"title" json:"title"`
	Message   string    `bson:"message" json:"message"`
	Href      string    `bson:"href" json:"href"`
	Read      bool      `bson:"read" json:"read"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Tipos de método de pago/cobro soportados.
type MethodType string

const (
	MethodEVCPlus     MethodType = "EVC Plus"
	MethodWaafi       MethodType = "Waafi"
	MethodEDahab      MethodType = "E-Dahab"
	MethodBankAccount MethodType = "Bank Account"
)

// MethodDetails cubre cuenta bancaria o mobile money según el tipo.
type MethodDetails struct {
	PhoneNumber       string `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	AccountHolderName string `bson:"accountHolderName,omitempty" json:"accountHolderName,omitempty"`
	AccountNumber     string `bson:"accountNumber,omitempty" json:"accountNumber,omitempty"`
	BankName          string `bson:"bankName,omitempty" json:"bankName,omitempty"`
}

// PaymentMethod pertenece a un cliente. El tipo es inmutable después de crear.
type PaymentMethod struct {
	ID        string        `bson:"_id" json:"id"`
	UserID    string        `bson:"userId" json:"userId"`
	Nickname  string        `bson:"nickname" json:"nickname"`
	Type      MethodType    `bson:"type" json:"type"`
	Details   MethodDetails `bson:"details" json:"details"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
}

// PayoutMethod pertenece al admin.
type PayoutMethod struct {
	ID        string        `bson:"_id" json:"id"`
	AdminID   string        `bson:"adminId" json:"adminId"`
	Nickname  string        `bson:"nickname" json:"nickname"`
	Type      MethodType    `bson:"type" json:"type"`
	Details   MethodDetails `bson:"details" json:"details"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
}

type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionPayment    TransactionType = "payment"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionFee        TransactionType = "fee"
)

// Transaction es un asiento append-only del ledger. Los pagos se registran
// con monto negativo desde la perspectiva del pagador.
type Transaction struct {
	ID          string          `bson:"_id" json:"id"`
	UserID      string          `bson:"userId" json:"userId"`
	Type        TransactionType `bson:"type" json:"type"`
	Amount      float64         `bson:"amount" json:"amount"`
	CreatedAt   time.Time       `bson:"createdAt" json:"createdAt"`
	Description string          `bson:"description" json:"description"`
	OrderID     string          `bson:"orderId,omitempty" json:"orderId,omitempty"`
}

// UserProfile son los datos de onboarding de la empresa.
type UserProfile struct {
	CompanyName   string `bson:"companyName,omitempty" json:"companyName,omitempty"`
	Avatar        string `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Industry      string `bson:"industry,omitempty" json:"industry,omitempty"`
	Country       string `bson:"country,omitempty" json:"country,omitempty"`
	City          string `bson:"city,omitempty" json:"city,omitempty"`
	EmployeeCount string `bson:"employeeCount,omitempty" json:"employeeCount,omitempty"`
}

type UserPreferences struct {
	Categories []string `bson:"categories,omitempty" json:"categories,omitempty"`
}

type User struct {
	ID           string          `bson:"_id" json:"id"`
	FullName     string          `bson:"fullName" json:"fullName"`
	Email        string          `bson:"email" json:"email"`
	PasswordHash string          `bson:"passwordHash" json:"-"`
	Role         Role            `bson:"role" json:"role"`
	Profile      UserProfile     `bson:"profile" json:"profile"`
	Preferences  UserPreferences `bson:"preferences" json:"preferences"`
	IsBlocked    bool            `bson:"isBlocked" json:"isBlocked"`
	CreatedAt    time.Time       `bson:"createdAt" json:"createdAt"`
}

// EnrichedOrder es el view model que consumen todas las páginas: la orden
// más el snapshot del perfil del cliente y la metadata de su conversación.
// Un join fallido degrada a campos vacíos, nunca descarta la orden.
type EnrichedOrder struct {
	Order
	CustomerName   string        `json:"customerName,omitempty"`
	CustomerEmail  string        `json:"customerEmail,omitempty"`
	CustomerAvatar string        `json:"customerAvatar,omitempty"`
	IsBlocked      bool          `json:"isBlocked,omitempty"`
	Conversation   *Conversation `json:"conversation,omitempty"`
}

// Customer es el roll-up por cliente que ve el admin.
type Customer struct {
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Avatar     string `json:"avatar,omitempty"`
	IsBlocked  bool   `json:"isBlocked"`
	OrderCount int    `json:"orderCount"`
}
