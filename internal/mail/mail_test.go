package mail

import (
	"context"
	"strings"
	"testing"

	"storefront/internal/config"
	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_PicksMailerFromConfig(t *testing.T) {
	assert.IsType(t, &LogMailer{}, New(config.MailConfig{Enabled: false}, zap.NewNop()))
	assert.IsType(t, &SMTPMailer{}, New(config.MailConfig{Enabled: true, Host: "smtp.example.com", Port: 587}, zap.NewNop()))
}

func TestLogMailer_LogsMessage(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := NewLogMailer(zap.New(core))

	require.NoError(t, m.Send(context.Background(), Message{To: "a@example.com", Subject: "Hi", Body: "body"}))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "a@example.com", entries[0].ContextMap()["to"])
	assert.Equal(t, "Hi", entries[0].ContextMap()["subject"])
}

func TestSMTPMailer_RejectsBadAddresses(t *testing.T) {
	m := NewSMTPMailer(config.MailConfig{Host: "smtp.example.com", Port: 587, From: "shop@example.com"})

	_, err := m.buildMessage(Message{To: "not-an-address", Subject: "x"})
	assert.Error(t, err)

	msg, err := m.buildMessage(Message{To: "a@example.com", Subject: "x", Body: "y"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, msg.GetGenHeader(gomail.HeaderSubject))

	bad := NewSMTPMailer(config.MailConfig{From: "nope"})
	_, err = bad.buildMessage(Message{To: "a@example.com"})
	assert.Error(t, err)
}

func TestTemplates(t *testing.T) {
	user := &domain.User{Email: "jane@example.com", FirstName: "Jane", LastName: "Doe"}

	welcome, err := WelcomeMessage(user)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", welcome.To)
	assert.Contains(t, welcome.Body, "Hi Jane Doe,")

	pid := uuid.New()
	order := &domain.Order{
		OrderNumber: "ORD-20260101-ABCDEFGH",
		Total:       1500000,
		Shipping:    domain.ShippingAddress{Recipient: "Jane", Line1: "1 Main St", City: "Bandung", Province: "West Java", PostalCode: "40111"},
		Items: []domain.OrderItem{
			{ProductID: &pid, ProductName: "Serum", Quantity: 2, UnitPrice: 750000, Subtotal: 1500000},
		},
	}

	confirm, err := OrderConfirmationMessage(user, order)
	require.NoError(t, err)
	assert.Contains(t, confirm.Subject, order.OrderNumber)
	assert.Contains(t, confirm.Body, "- Serum x2  Rp 1.500.000")
	assert.Contains(t, confirm.Body, "Total: Rp 1.500.000")
	assert.False(t, strings.Contains(confirm.Body, "<no value>"))
}

func TestFormatMoney(t *testing.T) {
	cases := map[int64]string{
		0:       "Rp 0",
		999:     "Rp 999",
		1000:    "Rp 1.000",
		1234567: "Rp 1.234.567",
		-250000: "-Rp 250.000",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatMoney(in))
	}
}
