package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/shop-backend/pkg/db/models"
	"github.com/angelmondragon/shop-backend/pkg/mailer"
)

// OrderNotifier emails customers about their orders.
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, user *models.User, order *models.Order) error
}

type orderNotifier struct {
	mail mailer.Mailer
	from string
}

func NewOrderNotifier(mail mailer.Mailer, from string) (OrderNotifier, error) {
	if mail == nil {
		return nil, fmt.Errorf("mailer required")
	}
	return &orderNotifier{mail: mail, from: from}, nil
}

// OrderPlaced sends the confirmation for a freshly created order.
func (n *orderNotifier) OrderPlaced(ctx context.Context, user *models.User, order *models.Order) error {
	if user == nil || order == nil {
		return fmt.Errorf("user and order required")
	}
	return n.mail.Send(ctx, mailer.Message{
		From:    n.from,
		To:      []string{user.Email},
		Subject: fmt.Sprintf("Order #%s confirmation", order.ID),
		Body:    orderPlacedBody(user, order),
	})
}

func orderPlacedBody(user *models.User, order *models.Order) string {
	name := user.Username
	if name == "" {
		name = user.Email
	}
	status := "awaiting payment"
	if order.Paid {
		status = "paid"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hello, %s!\n\n", name)
	fmt.Fprintf(&b, "Your order #%s has been placed.\n", order.ID)
	fmt.Fprintf(&b, "Total: %s %s\n", order.TotalPrice.StringFixed(2), order.Currency)
	fmt.Fprintf(&b, "Status: %s\n\n", status)
	b.WriteString("Thank you for shopping with us!\n")
	return b.String()
}
