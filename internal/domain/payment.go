package domain

import "fmt"

// PaymentMethod is how an operator recorded payment for an admin-created membership.
type PaymentMethod string

const (
	PaymentMethodCash              PaymentMethod = "cash"
	PaymentMethodCheck             PaymentMethod = "check"
	PaymentMethodCreditCardInvoice PaymentMethod = "credit_card_invoice"
	PaymentMethodComplimentary     PaymentMethod = "complimentary"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch p := PaymentMethod(s); p {
	case PaymentMethodCash, PaymentMethodCheck, PaymentMethodCreditCardInvoice, PaymentMethodComplimentary:
		return p, nil
	default:
		return "", fmt.Errorf("unknown payment method %q", s)
	}
}

// InitialStatus is the payment status a new membership starts in.
// Invoiced memberships stay pending until the invoice is paid.
func (p PaymentMethod) InitialStatus() PaymentStatus {
	switch p {
	case PaymentMethodCreditCardInvoice:
		return PaymentStatusPending
	case PaymentMethodCash, PaymentMethodCheck, PaymentMethodComplimentary:
		return PaymentStatusPaid
	default:
		return PaymentStatusPending
	}
}

// Billing is the contact the invoice and receipt are addressed to.
type Billing struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Address    string
	City       string
	State      string
	PostalCode string
	Country    string
}
