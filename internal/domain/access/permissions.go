package access

import "maps"

const (
	FlagView           = "view"
	FlagEdit           = "edit"
	FlagAdd            = "add"
	FlagDelete         = "delete"
	FlagApplyKPI       = "applyKpi"
	FlagApplyIncrement = "applyIncrement"
	FlagApplyGAP       = "applyGAP"
	FlagApplyRPT       = "applyRPT"
)

// CoreFlags decide whether a partial grant is usable at all.
var CoreFlags = []string{FlagView, FlagEdit, FlagAdd, FlagDelete, FlagApplyKPI}

var ExtendedFlags = []string{FlagApplyIncrement, FlagApplyGAP, FlagApplyRPT}

// Permissions is an open set of named flags. Unknown names are kept as-is.
type Permissions map[string]bool

func DefaultPermissions() Permissions {
	out := make(Permissions, len(CoreFlags)+len(ExtendedFlags))
	for _, flag := range CoreFlags {
		out[flag] = false
	}
	for _, flag := range ExtendedFlags {
		out[flag] = false
	}
	return out
}

// Normalize merges p over the default all-false set.
func Normalize(p Permissions) Permissions {
	out := DefaultPermissions()
	for name, value := range p {
		if name == "" {
			continue
		}
		out[name] = value
	}
	return out
}

func (p Permissions) AnyCore() bool {
	for _, flag := range CoreFlags {
		if p[flag] {
			return true
		}
	}
	return false
}

func (p Permissions) Equal(other Permissions) bool {
	return maps.Equal(Normalize(p), Normalize(other))
}
