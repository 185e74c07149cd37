package receipt

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/wmsexpress/backend/internal/domain/shared"
	"github.com/wmsexpress/backend/internal/domain/warehouse"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// FieldError describes one invalid field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when an edit or move request is rejected.
// It matches shared.ErrValidation with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the domain error so handlers map it to a 400
func (e *ValidationError) Unwrap() error {
	return shared.NewDomainError(shared.ErrValidation.Code, e.Error())
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func collect(err error, into *ValidationError) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		into.add(fe.Field(), fieldMessage(fe))
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

// ValidateEdit normalizes an edited detail and checks it.
// Employee ID is required after trimming and clearing the hazmat flag drops the hazmat number.
// The returned detail is a copy; nothing is persisted.
func ValidateEdit(receiptID string, edit Detail) (*Detail, error) {
	d := edit
	d.ReceiptID = receiptID
	d.normalize()

	verr := &ValidationError{}
	if err := collect(getValidator().Struct(&d), verr); err != nil {
		return nil, err
	}
	measures := []struct {
		field string
		value decimal.Decimal
	}{
		{"length", d.Length},
		{"width", d.Width},
		{"height", d.Height},
		{"weight", d.Weight},
	}
	for _, m := range measures {
		if m.value.IsNegative() {
			verr.add(m.field, "must be greater than or equal to 0")
		}
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return &d, nil
}

// MoveRequest moves a purchase order's stock to a new location
type MoveRequest struct {
	ClientID      int    `json:"client_id" validate:"gt=0"`
	PurchaseOrder string `json:"purchase_order" validate:"required"`
	Location      string `json:"location" validate:"required"`
	EmployeeID    string `json:"employee_id" validate:"required"`
}

// ValidateMove trims and checks a move request against the catalog.
// The purchase order must belong to the selected client.
func ValidateMove(catalog *warehouse.Catalog, req MoveRequest) (*MoveRequest, error) {
	m := req
	m.PurchaseOrder = warehouse.NormalizeQuery(m.PurchaseOrder)
	m.Location = strings.TrimSpace(m.Location)
	m.EmployeeID = strings.TrimSpace(m.EmployeeID)

	verr := &ValidationError{}
	if err := collect(getValidator().Struct(&m), verr); err != nil {
		return nil, err
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	client, ok := catalog.Client(m.ClientID)
	if !ok {
		return nil, shared.NewDomainError(shared.ErrNotFound.Code, fmt.Sprintf("client %d not found", m.ClientID))
	}
	if !client.OwnsPurchaseOrder(m.PurchaseOrder) {
		return nil, shared.NewDomainError(shared.ErrBusinessRule.Code,
			fmt.Sprintf("purchase order %s does not belong to %s", m.PurchaseOrder, client.Name))
	}
	return &m, nil
}
