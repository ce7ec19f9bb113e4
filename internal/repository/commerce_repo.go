package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"paybridge/internal/models"
	"paybridge/internal/pkg/commerce"
)

// CommercePaymentRepository stores payments as commercetools payment resources.
type CommercePaymentRepository struct {
	client *commerce.Client
}

func NewCommercePaymentRepository(client *commerce.Client) *CommercePaymentRepository {
	return &CommercePaymentRepository{client: client}
}

func (r *CommercePaymentRepository) Create(ctx context.Context, p *models.PaymentRecord) error {
	prepareNew(p)
	draft := commerce.PaymentDraft{
		Key:           p.ID,
		AmountPlanned: toCommerceMoney(p.AmountPlanned),
		PaymentMethodInfo: commerce.PaymentMethodInfo{
			PaymentInterface: p.PaymentInterface,
			Method:           p.Method,
		},
		PaymentStatus: commerce.PaymentStatus{
			InterfaceCode: p.InterfaceCode,
			InterfaceText: p.InterfaceText,
		},
	}
	created, err := r.client.CreatePayment(ctx, draft)
	if err != nil {
		return mapCommerceErr(err)
	}
	*p = *fromCommercePayment(created, p.CartID)
	return nil
}

func (r *CommercePaymentRepository) FindByID(ctx context.Context, id string) (*models.PaymentRecord, error) {
	p, err := r.client.GetPayment(ctx, id)
	if err != nil {
		return nil, mapCommerceErr(err)
	}
	return fromCommercePayment(p, ""), nil
}

func (r *CommercePaymentRepository) AppendTransaction(ctx context.Context, id string, version int64, tx models.Transaction) (*models.PaymentRecord, error) {
	actions := []commerce.UpdateAction{commerce.AddTransaction(commerce.Transaction{
		Type:          tx.Type,
		State:         tx.State,
		Amount:        toCommerceMoney(tx.Amount),
		InteractionID: tx.InteractionID,
	})}
	if code := interfaceCodeFor(tx); code != "" {
		actions = append(actions, commerce.ChangeInterfaceCode(code))
	}

	p, err := r.client.UpdatePayment(ctx, id, version, actions...)
	if err != nil {
		return nil, mapCommerceErr(err)
	}
	return fromCommercePayment(p, ""), nil
}

func (r *CommercePaymentRepository) SetInterfaceID(ctx context.Context, id string, version int64, interfaceID string) (*models.PaymentRecord, error) {
	p, err := r.client.UpdatePayment(ctx, id, version, commerce.SetInterfaceID(interfaceID))
	if err != nil {
		return nil, mapCommerceErr(err)
	}
	return fromCommercePayment(p, ""), nil
}

func (r *CommercePaymentRepository) FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.PaymentRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	where := fmt.Sprintf(`paymentStatus(interfaceCode=%q) and createdAt < %q`,
		models.InterfaceCodePending, cutoff.UTC().Format(time.RFC3339))
	found, err := r.client.QueryPayments(ctx, where, limit)
	if err != nil {
		return nil, mapCommerceErr(err)
	}
	out := make([]models.PaymentRecord, 0, len(found))
	for i := range found {
		out = append(out, *fromCommercePayment(&found[i], ""))
	}
	return out, nil
}

// CommerceCartRepository reads carts and attaches payments to them.
type CommerceCartRepository struct {
	client *commerce.Client
}

func NewCommerceCartRepository(client *commerce.Client) *CommerceCartRepository {
	return &CommerceCartRepository{client: client}
}

// FindCart returns the cart priced by its total, falling back to the taxed gross.
func (r *CommerceCartRepository) FindCart(ctx context.Context, cartID string) (*models.Cart, error) {
	c, err := r.client.GetCart(ctx, cartID)
	if err != nil {
		return nil, mapCommerceErr(err)
	}
	price := c.TotalPrice
	if price.CentAmount == 0 && c.TaxedPrice != nil {
		price = c.TaxedPrice.TotalGross
	}
	return &models.Cart{
		ID:          c.ID,
		Version:     c.Version,
		TotalPrice:  models.Money{CentAmount: price.CentAmount, CurrencyCode: price.CurrencyCode},
		CustomerID:  c.CustomerID,
		AnonymousID: c.AnonymousID,
	}, nil
}

func (r *CommerceCartRepository) AttachPayment(ctx context.Context, cart *models.Cart, paymentID string) error {
	_, err := r.client.AddPaymentToCart(ctx, cart.ID, cart.Version, paymentID)
	return mapCommerceErr(err)
}

func mapCommerceErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, commerce.ErrNotFound):
		return ErrRecordNotFound
	case errors.Is(err, commerce.ErrConcurrentModification):
		return ErrVersionConflict
	}
	return err
}

func toCommerceMoney(m models.Money) commerce.Money {
	return commerce.Money{Type: "centPrecision", CentAmount: m.CentAmount, CurrencyCode: m.CurrencyCode}
}

func fromCommercePayment(p *commerce.Payment, cartID string) *models.PaymentRecord {
	rec := &models.PaymentRecord{
		ID:               p.ID,
		CartID:           cartID,
		PaymentInterface: p.PaymentMethodInfo.PaymentInterface,
		Method:           p.PaymentMethodInfo.Method,
		InterfaceCode:    p.PaymentStatus.InterfaceCode,
		InterfaceText:    p.PaymentStatus.InterfaceText,
		InterfaceID:      p.InterfaceID,
		AmountPlanned:    models.Money{CentAmount: p.AmountPlanned.CentAmount, CurrencyCode: p.AmountPlanned.CurrencyCode},
		Version:          p.Version,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.LastModifiedAt,
	}
	for _, tx := range p.Transactions {
		t := models.Transaction{
			PaymentID:     p.ID,
			Type:          tx.Type,
			State:         tx.State,
			Amount:        models.Money{CentAmount: tx.Amount.CentAmount, CurrencyCode: tx.Amount.CurrencyCode},
			InteractionID: tx.InteractionID,
		}
		if tx.Timestamp != nil {
			t.CreatedAt = *tx.Timestamp
		}
		rec.Transactions = append(rec.Transactions, t)
	}
	return rec
}
