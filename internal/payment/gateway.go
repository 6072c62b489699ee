// Package payment talks to the hosted payment page provider: creating Snap
// transactions at checkout and interpreting its HTTP notifications.
package payment

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/config"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

var ErrGatewayRejected = errors.New("payment gateway rejected the transaction")

type Customer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

type Item struct {
	ID       string
	Name     string
	Price    int64
	Quantity int
}

// TransactionRequest describes one order to be paid. GrossAmount must equal
// the sum of Price*Quantity over Items.
type TransactionRequest struct {
	OrderNumber string
	GrossAmount int64
	Customer    Customer
	Items       []Item
}

// Transaction is what the storefront hands to the browser to open the
// payment page.
type Transaction struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

type Gateway interface {
	CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error)
}

type SnapGateway struct {
	client snap.Client
}

func NewSnapGateway(cfg config.PaymentConfig) *SnapGateway {
	env := midtrans.Sandbox
	if cfg.Production {
		env = midtrans.Production
	}

	g := &SnapGateway{}
	g.client.New(cfg.ServerKey, env)
	return g
}

func (g *SnapGateway) CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, mErr := g.client.CreateTransaction(buildSnapRequest(req))
	if mErr != nil {
		return nil, fmt.Errorf("%w: %s", ErrGatewayRejected, mErr.Message)
	}
	if resp == nil || resp.Token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrGatewayRejected)
	}

	return &Transaction{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

func buildSnapRequest(req TransactionRequest) *snap.Request {
	items := make([]midtrans.ItemDetails, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, midtrans.ItemDetails{
			ID:    it.ID,
			Name:  truncate(it.Name, 50),
			Price: it.Price,
			Qty:   int32(it.Quantity),
		})
	}

	return &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderNumber,
			GrossAmt: req.GrossAmount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.Customer.FirstName,
			LName: req.Customer.LastName,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		Items: &items,
	}
}

// truncate keeps item names inside the provider's 50 character limit.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
