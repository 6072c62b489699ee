package mail

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"storefront/internal/domain"
)

var templates = template.Must(template.New("mail").Funcs(template.FuncMap{
	"money": FormatMoney,
}).Parse(`
{{define "welcome"}}Hi {{.Name}},

Welcome to {{.Store}}. Your account {{.Email}} is ready, happy shopping.
{{end}}
{{define "order_confirmation"}}Hi {{.Name}},

We received the payment for order {{.Order.OrderNumber}}.

{{range .Order.Items}}- {{.ProductName}} x{{.Quantity}}  {{money .Subtotal}}
{{end}}
Total: {{money .Order.Total}}

Shipping to:
{{.Order.Shipping.Recipient}}, {{.Order.Shipping.Line1}}{{if .Order.Shipping.Line2}}, {{.Order.Shipping.Line2}}{{end}}
{{.Order.Shipping.City}}, {{.Order.Shipping.Province}} {{.Order.Shipping.PostalCode}}
{{end}}
`))

// StoreName appears in greetings.
const StoreName = "the store"

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s mail: %w", name, err)
	}
	return strings.TrimSpace(buf.String()) + "\n", nil
}

func WelcomeMessage(user *domain.User) (Message, error) {
	body, err := render("welcome", map[string]string{
		"Name":  user.FullName(),
		"Email": user.Email,
		"Store": StoreName,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: user.Email, Subject: "Welcome to " + StoreName, Body: body}, nil
}

func OrderConfirmationMessage(user *domain.User, order *domain.Order) (Message, error) {
	body, err := render("order_confirmation", map[string]any{
		"Name":  user.FullName(),
		"Order": order,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      user.Email,
		Subject: "Payment received for order " + order.OrderNumber,
		Body:    body,
	}, nil
}

// FormatMoney groups thousands with dots: 1500000 -> "Rp 1.500.000".
func FormatMoney(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return sign + "Rp " + b.String()
}
