package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
		{code: CodeInsufficientStock, status: http.StatusBadRequest, publicMsg: "not enough stock", detailsOK: true},
		{code: CodePromoNotFound, status: http.StatusNotFound, publicMsg: "promo code not found"},
		{code: CodeAddressNotFound, status: http.StatusNotFound, publicMsg: "address not found"},
		{code: CodeProductNotFound, status: http.StatusNotFound, publicMsg: "product not found"},
		{code: CodeOrderNotFound, status: http.StatusNotFound, publicMsg: "order not found"},
		{code: CodeMinimumAmount, status: http.StatusBadRequest, publicMsg: "order total is below the minimum amount", detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeInsufficientStock, stdErrors.New("stock 1 < 3"), "reserve stock")
	d := Dump(err)
	if d.Code != CodeInsufficientStock {
		t.Fatalf("expected code in dump, got %s", d.Code)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %d", len(d.Chain))
	}
	if IsUniqueViolation(err) {
		t.Fatalf("plain error is not a unique violation")
	}
}

func TestConstraintViolations(t *testing.T) {
	pgUnique := fmt.Errorf("insert user: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	if !IsUniqueViolation(pgUnique) || IsForeignKeyViolation(pgUnique) {
		t.Fatalf("pgx unique violation misclassified")
	}
	if d := Dump(pgUnique); d.PGConstraint != "users_email_key" || d.PGCode != "23505" {
		t.Fatalf("expected pg fields in dump, got %+v", d)
	}

	pqFK := &pq.Error{Code: "23503", Constraint: "products_category_id_fkey"}
	if !IsForeignKeyViolation(pqFK) || IsUniqueViolation(pqFK) {
		t.Fatalf("pq foreign key violation misclassified")
	}
	if d := Dump(pqFK); d.PGConstraint != "products_category_id_fkey" {
		t.Fatalf("expected pq constraint in dump, got %+v", d)
	}

	liteCheck := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintCheck}
	if !IsCheckViolation(liteCheck) || IsUniqueViolation(liteCheck) {
		t.Fatalf("sqlite check violation misclassified")
	}

	if !IsUniqueViolation(stdErrors.New("UNIQUE constraint failed: users.username")) {
		t.Fatalf("expected sqlite unique message to be detected")
	}
	if IsUniqueViolation(nil) || IsCheckViolation(nil) {
		t.Fatalf("nil is not a violation")
	}
}

func TestCodeMatching(t *testing.T) {
	err := fmt.Errorf("checkout: %w", Newf(CodeInsufficientStock, "only %d left", 2))
	if !HasCode(err, CodeInsufficientStock) {
		t.Fatalf("expected code match through wrapping")
	}
	if HasCode(err, CodeMinimumAmount) {
		t.Fatalf("unexpected code match")
	}
	if !stdErrors.Is(err, New(CodeInsufficientStock, "")) {
		t.Fatalf("errors.Is should compare codes")
	}
	if got := As(err).Message(); got != "only 2 left" {
		t.Fatalf("unexpected message %q", got)
	}
	wrapped := Wrap(CodeDependency, stdErrors.New("dial tcp"), "create payment intent")
	if wrapped.Error() != "DEPENDENCY_ERROR: create payment intent: dial tcp" {
		t.Fatalf("unexpected error text %q", wrapped.Error())
	}
}
