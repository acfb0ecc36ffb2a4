package promos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/shop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shop-backend/pkg/errors"
)

type promoFinder interface {
	FindByCode(ctx context.Context, code string) (*models.PromoCode, error)
}

// Service resolves promo codes a customer may attach to a cart.
type Service interface {
	FindActive(ctx context.Context, code string) (*models.PromoCode, error)
}

type service struct {
	repo          promoFinder
	enforceExpiry bool
	now           func() time.Time
}

// NewService builds the promo lookup. When enforceExpiry is set, codes past their
// valid_until are treated as unknown.
func NewService(repo promoFinder, enforceExpiry bool) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promo repository required")
	}
	return &service{repo: repo, enforceExpiry: enforceExpiry, now: time.Now}, nil
}

func (s *service) FindActive(ctx context.Context, code string) (*models.PromoCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code is required")
	}

	promo, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodePromoNotFound, "promo code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promo code")
	}
	if !promo.Active {
		return nil, pkgerrors.New(pkgerrors.CodePromoNotFound, "promo code not found")
	}
	if s.enforceExpiry && promo.Expired(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodePromoNotFound, "promo code expired")
	}
	return promo, nil
}
