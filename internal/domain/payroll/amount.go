package payroll

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Amount decodes from a JSON number or numeric string. Anything else,
// including null and non-finite values, becomes 0.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = 0
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	var v float64
	switch typed := raw.(type) {
	case float64:
		v = typed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return nil
		}
		v = parsed
	default:
		return nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*a = Amount(v)
	return nil
}

func (a Amount) Float() float64 {
	return float64(a)
}
