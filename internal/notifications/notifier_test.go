package notifications

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shop-backend/pkg/db/models"
	"github.com/angelmondragon/shop-backend/pkg/mailer"
)

type captureMailer struct {
	sent []mailer.Message
}

func (c *captureMailer) Send(ctx context.Context, msg mailer.Message) error {
	c.sent = append(c.sent, msg)
	return nil
}

func TestOrderPlacedBody(t *testing.T) {
	capture := &captureMailer{}
	n, err := NewOrderNotifier(capture, "shop@example.com")
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	user := &models.User{Email: "ann@example.com", Username: "ann"}
	order := &models.Order{ID: uuid.New(), TotalPrice: decimal.RequireFromString("85"), Currency: "EUR", Paid: true}
	if err := n.OrderPlaced(context.Background(), user, order); err != nil {
		t.Fatalf("order placed: %v", err)
	}

	if len(capture.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(capture.sent))
	}
	msg := capture.sent[0]
	if msg.To[0] != "ann@example.com" || msg.From != "shop@example.com" {
		t.Fatalf("unexpected envelope %+v", msg)
	}
	for _, want := range []string{"Hello, ann!", order.ID.String(), "85.00 EUR", "Status: paid"} {
		if !strings.Contains(msg.Body, want) {
			t.Fatalf("body missing %q: %s", want, msg.Body)
		}
	}
}

func TestOrderPlacedAwaitingPayment(t *testing.T) {
	capture := &captureMailer{}
	n, _ := NewOrderNotifier(capture, "")
	user := &models.User{Email: "bob@example.com"}
	order := &models.Order{ID: uuid.New(), TotalPrice: decimal.RequireFromString("1.5"), Currency: "USD"}
	if err := n.OrderPlaced(context.Background(), user, order); err != nil {
		t.Fatalf("order placed: %v", err)
	}
	body := capture.sent[0].Body
	if !strings.Contains(body, "Hello, bob@example.com!") || !strings.Contains(body, "awaiting payment") {
		t.Fatalf("unexpected body: %s", body)
	}
}
