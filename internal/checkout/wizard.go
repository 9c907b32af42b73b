// Package checkout implements the client-side checkout wizard state machine.
// It is a pure in-memory helper; nothing here touches persistence.
package checkout

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	domain "github.com/shoppie-mart/api/internal/domain"
)

// Step identifies a wizard step.
type Step int

const (
	// StepShipping collects the delivery address.
	StepShipping Step = iota + 1
	// StepPayment selects the payment method.
	StepPayment
	// StepReview shows the final summary before placing the order.
	StepReview
)

// String returns the lowercase step name.
func (s Step) String() string {
	switch s {
	case StepShipping:
		return "shipping"
	case StepPayment:
		return "payment"
	case StepReview:
		return "review"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// PaymentMethods lists the methods the payment step accepts.
var PaymentMethods = []string{"card", "upi", "cod"}

var (
	// ErrInvalidInput indicates a step rejected its input.
	ErrInvalidInput = errors.New("checkout: invalid input")
	// ErrAlreadyAtReview indicates Next was called on the final step.
	ErrAlreadyAtReview = errors.New("checkout: already at review step")
)

// Wizard walks a buyer through shipping, payment, and review in order. The
// zero value starts at the shipping step.
type Wizard struct {
	step     Step
	shipping domain.ShippingAddress
	payment  string
}

// NewWizard returns a wizard positioned at the shipping step.
func NewWizard() *Wizard {
	return &Wizard{step: StepShipping}
}

// Step reports the current step.
func (w *Wizard) Step() Step {
	if w.step == 0 {
		return StepShipping
	}
	return w.step
}

// ShippingAddress returns the address captured so far.
func (w *Wizard) ShippingAddress() domain.ShippingAddress {
	return w.shipping
}

// PaymentMethod returns the selected payment method, empty until chosen.
func (w *Wizard) PaymentMethod() string {
	return w.payment
}

// SetShippingAddress records the delivery address. Validation happens on Next
// so the form can be filled incrementally.
func (w *Wizard) SetShippingAddress(addr domain.ShippingAddress) {
	w.shipping = addr
}

// SetPaymentMethod selects one of the accepted payment methods.
func (w *Wizard) SetPaymentMethod(method string) error {
	normalised := strings.ToLower(strings.TrimSpace(method))
	if !slices.Contains(PaymentMethods, normalised) {
		return fmt.Errorf("%w: unsupported payment method %q", ErrInvalidInput, method)
	}
	w.payment = normalised
	return nil
}

// Next advances to the following step. Leaving the shipping step requires
// full name, address, and city; leaving the payment step requires a selected
// method. Next on the review step fails.
func (w *Wizard) Next() error {
	switch w.Step() {
	case StepShipping:
		if missing := missingShippingFields(w.shipping); len(missing) > 0 {
			return fmt.Errorf("%w: shipping address missing %s", ErrInvalidInput, strings.Join(missing, ", "))
		}
		w.step = StepPayment
		return nil
	case StepPayment:
		if w.payment == "" {
			return fmt.Errorf("%w: payment method is required", ErrInvalidInput)
		}
		w.step = StepReview
		return nil
	default:
		return ErrAlreadyAtReview
	}
}

// Back returns to the previous step. Calling Back on the shipping step is a
// no-op rather than an error.
func (w *Wizard) Back() {
	switch w.Step() {
	case StepPayment:
		w.step = StepShipping
	case StepReview:
		w.step = StepPayment
	}
}

// Complete reports whether the wizard reached the review step with valid
// shipping and payment selections.
func (w *Wizard) Complete() bool {
	return w.Step() == StepReview &&
		len(missingShippingFields(w.shipping)) == 0 &&
		w.payment != ""
}

func missingShippingFields(addr domain.ShippingAddress) []string {
	var missing []string
	if strings.TrimSpace(addr.FullName) == "" {
		missing = append(missing, "full_name")
	}
	if strings.TrimSpace(addr.Address) == "" {
		missing = append(missing, "address")
	}
	if strings.TrimSpace(addr.City) == "" {
		missing = append(missing, "city")
	}
	return missing
}
