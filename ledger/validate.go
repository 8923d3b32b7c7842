/*
validate.go - Input validation for ledger operations

PURPOSE:
  Pure validation of TransactionInput against a Rules configuration.
  No storage access, no request context - callable from anywhere,
  including tests and the CLI.

RULES:
  The allowed value sets (types, recurrence frequencies) are part of the
  Rules value rather than hard-coded in the predicate, so a deployment can
  narrow or extend them without touching the validation logic.

FAILURE SHAPE:
  All field failures for one input are collected into a single
  *ValidationError, so a form round trip reports every problem at once.
*/
package ledger

// Rules configures the allowed value sets used by validation.
type Rules struct {
	Types       map[TransactionType]bool
	Frequencies map[string]bool
}

// DefaultRules returns the standard rule set.
func DefaultRules() Rules {
	return Rules{
		Types:       TransactionTypes,
		Frequencies: RecurringFrequencies,
	}
}

// Validate checks a TransactionInput against the rules. Returns nil when the
// input is acceptable, otherwise a *ValidationError listing every failure.
func (r Rules) Validate(in TransactionInput) error {
	var fields []FieldError

	if in.AccountID == "" {
		fields = append(fields, FieldError{Field: "account_id", Message: "required"})
	}
	if !r.Types[in.Type] {
		fields = append(fields, FieldError{Field: "type", Message: "must be one of income, expense, transfer"})
	}
	if in.Amount.IsNegative() {
		// Zero is legal: a no-op effect, not an error.
		fields = append(fields, FieldError{Field: "amount", Message: "must not be negative"})
	}
	if in.Category == "" {
		fields = append(fields, FieldError{Field: "category", Message: "required"})
	}
	if in.Date.IsZero() {
		fields = append(fields, FieldError{Field: "transaction_date", Message: "required"})
	}

	if in.Type == TxTransfer {
		if in.TransferToID == "" {
			fields = append(fields, FieldError{Field: "transfer_to_account_id", Message: "required for transfers"})
		} else if in.TransferToID == in.AccountID {
			fields = append(fields, FieldError{Field: "transfer_to_account_id", Message: "must differ from source account"})
		}
	} else if in.TransferToID != "" {
		fields = append(fields, FieldError{Field: "transfer_to_account_id", Message: "only valid for transfers"})
	}

	if in.Recurring {
		if !r.Frequencies[in.RecurringFrequency] {
			fields = append(fields, FieldError{Field: "recurring_frequency", Message: "must be one of daily, weekly, monthly, yearly"})
		}
	} else if in.RecurringFrequency != "" {
		fields = append(fields, FieldError{Field: "recurring_frequency", Message: "only valid for recurring transactions"})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
