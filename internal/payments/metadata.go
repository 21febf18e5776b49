package payments

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// creditQtyKey stores the purchased credit quantity in session metadata so
// completion can grant it without a second lookup.
const creditQtyKey = "credit_qty"

// withCreditQty returns the metadata with the credit quantity folded in.
func withCreditQty(metadata datatypes.JSON, qty int) (datatypes.JSON, error) {
	fields := map[string]any{}
	if len(metadata) > 0 {
		if errUnmarshal := json.Unmarshal(metadata, &fields); errUnmarshal != nil {
			return nil, fmt.Errorf("payments: parse metadata: %w", errUnmarshal)
		}
	}
	fields[creditQtyKey] = qty
	merged, errMarshal := json.Marshal(fields)
	if errMarshal != nil {
		return nil, fmt.Errorf("payments: encode metadata: %w", errMarshal)
	}
	return datatypes.JSON(merged), nil
}

// creditQtyFromMetadata extracts the purchased credit quantity, or 0.
func creditQtyFromMetadata(metadata datatypes.JSON) int {
	if len(metadata) == 0 {
		return 0
	}
	var fields map[string]any
	if errUnmarshal := json.Unmarshal(metadata, &fields); errUnmarshal != nil {
		return 0
	}
	qty, ok := fields[creditQtyKey].(float64)
	if !ok {
		return 0
	}
	return int(qty)
}
