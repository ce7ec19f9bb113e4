package commerce

import "time"

type Money struct {
	Type           string `json:"type,omitempty"`
	CurrencyCode   string `json:"currencyCode"`
	CentAmount     int64  `json:"centAmount"`
	FractionDigits int    `json:"fractionDigits,omitempty"`
}

type Reference struct {
	TypeID string `json:"typeId"`
	ID     string `json:"id"`
}

type PaymentMethodInfo struct {
	PaymentInterface string `json:"paymentInterface,omitempty"`
	Method           string `json:"method,omitempty"`
}

type PaymentStatus struct {
	InterfaceCode string `json:"interfaceCode,omitempty"`
	InterfaceText string `json:"interfaceText,omitempty"`
}

type Transaction struct {
	ID            string     `json:"id,omitempty"`
	Timestamp     *time.Time `json:"timestamp,omitempty"`
	Type          string     `json:"type"`
	State         string     `json:"state"`
	Amount        Money      `json:"amount"`
	InteractionID string     `json:"interactionId,omitempty"`
}

type PaymentPage struct {
	Limit   int       `json:"limit"`
	Count   int       `json:"count"`
	Results []Payment `json:"results"`
}

type Payment struct {
	ID                string            `json:"id"`
	Version           int64             `json:"version"`
	Key               string            `json:"key,omitempty"`
	InterfaceID       string            `json:"interfaceId,omitempty"`
	AmountPlanned     Money             `json:"amountPlanned"`
	PaymentMethodInfo PaymentMethodInfo `json:"paymentMethodInfo"`
	PaymentStatus     PaymentStatus     `json:"paymentStatus"`
	Transactions      []Transaction     `json:"transactions"`
	CreatedAt         time.Time         `json:"createdAt"`
	LastModifiedAt    time.Time         `json:"lastModifiedAt"`
}

type PaymentDraft struct {
	Key               string            `json:"key,omitempty"`
	AmountPlanned     Money             `json:"amountPlanned"`
	PaymentMethodInfo PaymentMethodInfo `json:"paymentMethodInfo"`
	PaymentStatus     PaymentStatus     `json:"paymentStatus"`
	Customer          *Reference        `json:"customer,omitempty"`
	AnonymousID       string            `json:"anonymousId,omitempty"`
}

// TaxedPrice only carries the gross total used as a price fallback.
type TaxedPrice struct {
	TotalGross Money `json:"totalGross"`
}

type Cart struct {
	ID          string      `json:"id"`
	Version     int64       `json:"version"`
	CustomerID  string      `json:"customerId,omitempty"`
	AnonymousID string      `json:"anonymousId,omitempty"`
	TotalPrice  Money       `json:"totalPrice"`
	TaxedPrice  *TaxedPrice `json:"taxedPrice,omitempty"`
}

// UpdateAction is one entry of an update request's actions array.
type UpdateAction map[string]interface{}

type updateRequest struct {
	Version int64          `json:"version"`
	Actions []UpdateAction `json:"actions"`
}

// AddTransaction builds an addTransaction action.
func AddTransaction(tx Transaction) UpdateAction {
	return UpdateAction{"action": "addTransaction", "transaction": tx}
}

// ChangeInterfaceCode builds a setStatusInterfaceCode action.
func ChangeInterfaceCode(code string) UpdateAction {
	return UpdateAction{"action": "setStatusInterfaceCode", "interfaceCode": code}
}

// SetInterfaceID builds a setInterfaceId action.
func SetInterfaceID(id string) UpdateAction {
	return UpdateAction{"action": "setInterfaceId", "interfaceId": id}
}
