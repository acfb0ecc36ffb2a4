package models

import "github.com/google/uuid"

// assignID fills a zero primary key before insert. Postgres also defaults ids via
// gen_random_uuid(); sqlite does not.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model, in foreign key order, for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Category{},
		&Product{},
		&PromoCode{},
		&Address{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
	}
}
