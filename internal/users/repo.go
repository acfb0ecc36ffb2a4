package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shop-backend/pkg/db/models"
)

// Repository is the gorm-backed store for shop accounts. Lookups return
// gorm.ErrRecordNotFound for unknown users.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to tx; a nil tx keeps the current handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create stores the account with its email lower-cased.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.Email = normalizeEmail(user.Email)
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail matches case-insensitively so accounts created before
// normalisation still log in.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.take(ctx, "LOWER(email) = ?", normalizeEmail(email))
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.take(ctx, "id = ?", id)
}

func (r *Repository) take(ctx context.Context, cond string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(cond, arg).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Taken lists which of email and username already belong to an account,
// using the JSON field names of the registration form.
func (r *Repository) Taken(ctx context.Context, email, username string) ([]string, error) {
	var rows []models.User
	err := r.db.WithContext(ctx).
		Select("email", "username").
		Where("LOWER(email) = ? OR username = ?", normalizeEmail(email), username).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	var fields []string
	emailTaken, usernameTaken := false, false
	for _, u := range rows {
		emailTaken = emailTaken || strings.EqualFold(u.Email, email)
		usernameTaken = usernameTaken || u.Username == username
	}
	if emailTaken {
		fields = append(fields, "email")
	}
	if usernameTaken {
		fields = append(fields, "username")
	}
	return fields, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
