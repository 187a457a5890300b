package validator

import "github.com/shopspring/decimal"

// Validator collects human readable messages for a request body. Handlers
// reply with the whole list so clients can fix every field in one round trip.
type Validator struct {
	Errors []string `json:",omitempty"`
}

func (v Validator) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *Validator) AddError(message string) {
	v.Errors = append(v.Errors, message)
}

func (v *Validator) Check(ok bool, message string) {
	if !ok {
		v.AddError(message)
	}
}

// CheckAmount validates a money or asset quantity that will be stored with the
// given scale.
func (v *Validator) CheckAmount(amount decimal.Decimal, scale int32) {
	v.Check(IsPositive(amount), "Amount must be greater than zero")
	v.Check(MaxDecimalPlaces(amount, scale), "Amount has too many decimal places")
}
