package revision

// Field names whose change mandates a major version bump.
const (
	FieldQuantity        = "quantity"
	FieldUnitPrice       = "unitPrice"
	FieldDiscountPercent = "discountPercent"
	FieldLineTotal       = "lineTotal"
	FieldAddLine         = "addLine"
	FieldRemoveLine      = "removeLine"
	FieldShipTo          = "shipTo"
	FieldPaymentTerms    = "paymentTerms"
)

var criticalFields = map[string]bool{
	FieldQuantity:        true,
	FieldUnitPrice:       true,
	FieldDiscountPercent: true,
	FieldLineTotal:       true,
	FieldAddLine:         true,
	FieldRemoveLine:      true,
	FieldShipTo:          true,
	FieldPaymentTerms:    true,
}

// IsCriticalChange reports whether changing the named field forces a major
// revision. The set is fixed: pricing, quantity, line composition, shipping
// destination, and payment terms.
func IsCriticalChange(field string) bool {
	return criticalFields[field]
}

// HasCriticalChanges reports whether any of the changed fields is critical.
func HasCriticalChanges(fields []string) bool {
	for _, f := range fields {
		if IsCriticalChange(f) {
			return true
		}
	}
	return false
}

// CriticalFields returns the critical field names in declaration order.
func CriticalFields() []string {
	return []string{
		FieldQuantity,
		FieldUnitPrice,
		FieldDiscountPercent,
		FieldLineTotal,
		FieldAddLine,
		FieldRemoveLine,
		FieldShipTo,
		FieldPaymentTerms,
	}
}

// NextVersion applies the versioning policy: a critical change bumps major
// and resets minor to zero, anything else bumps minor.
func NextVersion(current Version, hasCritical bool) Version {
	if hasCritical {
		return current.NextMajor()
	}
	return current.NextMinor()
}

// NextVersionFor computes the next version from the changed field names.
func NextVersionFor(current Version, changed []string) Version {
	return NextVersion(current, HasCriticalChanges(changed))
}
