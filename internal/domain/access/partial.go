package access

import (
	"bytes"
	"encoding/json"
	"errors"
)

var errInvalidPartialValue = errors.New("access must be a boolean or an object of boolean flags")

// PartialValue is either one boolean applied to every core flag or an
// object of individual flags. Flags not mentioned default to false.
type PartialValue struct {
	uniform *bool
	flags   map[string]bool
}

func (v PartialValue) IsZero() bool {
	return v.uniform == nil && v.flags == nil
}

func (v *PartialValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return errInvalidPartialValue
	}
	var uniform bool
	if err := json.Unmarshal(trimmed, &uniform); err == nil {
		v.uniform = &uniform
		v.flags = nil
		return nil
	}
	var flags map[string]bool
	if err := json.Unmarshal(trimmed, &flags); err != nil {
		return errInvalidPartialValue
	}
	if flags == nil {
		flags = map[string]bool{}
	}
	v.uniform = nil
	v.flags = flags
	return nil
}

func (v PartialValue) Permissions() Permissions {
	out := DefaultPermissions()
	if v.uniform != nil {
		for _, flag := range CoreFlags {
			out[flag] = *v.uniform
		}
		return out
	}
	for name, value := range v.flags {
		if name == "" {
			continue
		}
		out[name] = value
	}
	return out
}
