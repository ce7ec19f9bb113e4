package models

import "time"

// Transaction types.
const (
	TransactionAuthorization = "Authorization"
	TransactionCharge        = "Charge"
)

// Transaction states.
const (
	TransactionInitial = "Initial"
	TransactionPending = "Pending"
	TransactionSuccess = "Success"
	TransactionFailure = "Failure"
)

// Interface codes written to PaymentRecord.InterfaceCode.
const (
	InterfaceCodePending = "Pending"
	InterfaceCodePaid    = "Paid"
	InterfaceCodeFailed  = "Failed"
)

// Polled payment statuses.
const (
	StatusPending = "Pending"
	StatusSuccess = "Success"
	StatusFailure = "Failure"
)

// Money is an amount in minor units of CurrencyCode.
type Money struct {
	CentAmount   int64  `gorm:"column:cent_amount" json:"centAmount"`
	CurrencyCode string `gorm:"column:currency_code;size:3" json:"currencyCode"`
}

// PaymentRecord maps to the `payments` table. It is created Pending before
// the gateway redirect and gets exactly one terminal transaction.
// InterfaceID holds the gateway txn_secret issued for this payment; a
// return callback must carry the same value.
type PaymentRecord struct {
	ID               string        `gorm:"column:id;primaryKey;size:64" json:"id"`
	CartID           string        `gorm:"column:cart_id;size:64;index" json:"cartId"`
	PaymentInterface string        `gorm:"column:payment_interface;size:64" json:"paymentInterface"`
	Method           string        `gorm:"column:method;size:64" json:"method"`
	InterfaceCode    string        `gorm:"column:interface_code;size:64" json:"interfaceCode"`
	InterfaceText    string        `gorm:"column:interface_text;size:255" json:"interfaceText"`
	InterfaceID      string        `gorm:"column:interface_id;size:255" json:"-"`
	AmountPlanned    Money         `gorm:"embedded;embeddedPrefix:amount_" json:"amountPlanned"`
	Version          int64         `gorm:"column:version;not null;default:1" json:"version"`
	Transactions     []Transaction `gorm:"foreignKey:PaymentID;references:ID" json:"transactions"`
	CreatedAt        time.Time     `gorm:"column:created_at;index" json:"createdAt"`
	UpdatedAt        time.Time     `gorm:"column:updated_at" json:"updatedAt"`
}

func (PaymentRecord) TableName() string {
	return "payments"
}

// TerminalTransaction returns the first transaction in a terminal state, or nil.
func (p *PaymentRecord) TerminalTransaction() *Transaction {
	for i := range p.Transactions {
		if p.Transactions[i].IsTerminal() {
			return &p.Transactions[i]
		}
	}
	return nil
}

// Status reports the polled status derived from the terminal transaction.
func (p *PaymentRecord) Status() string {
	tx := p.TerminalTransaction()
	switch {
	case tx == nil:
		return StatusPending
	case tx.State == TransactionSuccess:
		return StatusSuccess
	default:
		return StatusFailure
	}
}

// Transaction maps to the `payment_transactions` table.
type Transaction struct {
	ID            uint      `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	PaymentID     string    `gorm:"column:payment_id;size:64;index" json:"-"`
	Type          string    `gorm:"column:type;size:32" json:"type"`
	State         string    `gorm:"column:state;size:32" json:"state"`
	Amount        Money     `gorm:"embedded;embeddedPrefix:amount_" json:"amount"`
	InteractionID string    `gorm:"column:interaction_id;size:255" json:"interactionId"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"timestamp"`
}

func (Transaction) TableName() string {
	return "payment_transactions"
}

// IsTerminal reports whether the transaction reached Success or Failure.
func (t Transaction) IsTerminal() bool {
	return t.State == TransactionSuccess || t.State == TransactionFailure
}

// GatewayCallback archives the verified parameters of a gateway redirect.
type GatewayCallback struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	TID       string    `gorm:"column:tid;size:64;uniqueIndex" json:"tid"`
	PaymentID string    `gorm:"column:payment_id;size:64;index" json:"paymentId"`
	Status    string    `gorm:"column:status;size:32" json:"status"`
	Payload   string    `gorm:"column:payload;type:text" json:"payload"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (GatewayCallback) TableName() string {
	return "gateway_callbacks"
}

// Cart is the subset of a commerce cart the processor needs.
type Cart struct {
	ID          string `json:"id"`
	Version     int64  `json:"version"`
	TotalPrice  Money  `json:"totalPrice"`
	CustomerID  string `json:"customerId,omitempty"`
	AnonymousID string `json:"anonymousId,omitempty"`
}
