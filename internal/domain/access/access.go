package access

import "strings"

type Level string

const (
	LevelFull    Level = "Full Access"
	LevelNone    Level = "No Access"
	LevelPartial Level = "Partial Access"
)

func ParseLevel(raw string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "full access", "full":
		return LevelFull, true
	case "no access", "none":
		return LevelNone, true
	case "partial access", "partial":
		return LevelPartial, true
	}
	return "", false
}

// Access is the in-memory form of one grant. Only LevelPartial carries
// permissions; the tri-boolean shape lives in Record.
type Access struct {
	Level       Level
	Permissions Permissions
}

func Full() Access {
	return Access{Level: LevelFull}
}

func None() Access {
	return Access{Level: LevelNone}
}

func Partial(p Permissions) Access {
	return Access{Level: LevelPartial, Permissions: Normalize(p)}
}

// Usable reports whether the grant lets the holder do anything on the form.
func (a Access) Usable() bool {
	switch a.Level {
	case LevelFull:
		return true
	case LevelPartial:
		return a.Permissions.AnyCore()
	default:
		return false
	}
}

func (a Access) Allows(flag string) bool {
	switch a.Level {
	case LevelFull:
		return true
	case LevelPartial:
		return a.Permissions[flag]
	default:
		return false
	}
}

type PartialAccess struct {
	Enabled     bool        `json:"enabled"`
	Permissions Permissions `json:"permissions"`
}

// Record is the persisted per-form grant in its legacy shape.
type Record struct {
	FormID              string        `json:"formId"`
	FullAccess          bool          `json:"fullAccess"`
	NoAccess            bool          `json:"noAccess"`
	PartialAccess       PartialAccess `json:"partialAccess"`
	SelectedAccessLevel string        `json:"selectedAccessLevel,omitempty"`
}

// Access resolves the flags. noAccess wins over fullAccess, and a record
// with every flag off is treated as no access.
func (r Record) Access() Access {
	switch {
	case r.NoAccess:
		return None()
	case r.FullAccess:
		return Full()
	case r.PartialAccess.Enabled:
		return Partial(r.PartialAccess.Permissions)
	default:
		return None()
	}
}

func (r Record) Equal(other Record) bool {
	return r.FormID == other.FormID &&
		r.FullAccess == other.FullAccess &&
		r.NoAccess == other.NoAccess &&
		r.PartialAccess.Enabled == other.PartialAccess.Enabled &&
		r.PartialAccess.Permissions.Equal(other.PartialAccess.Permissions) &&
		r.SelectedAccessLevel == other.SelectedAccessLevel
}

// Encode writes a grant back into the tri-boolean shape. Full and None
// reset the partial permissions to all false.
func Encode(formID string, a Access) Record {
	rec := Record{FormID: formID}
	switch a.Level {
	case LevelFull:
		rec.FullAccess = true
		rec.PartialAccess = PartialAccess{Permissions: DefaultPermissions()}
	case LevelPartial:
		rec.PartialAccess = PartialAccess{Enabled: true, Permissions: Normalize(a.Permissions)}
	default:
		rec.NoAccess = true
		rec.PartialAccess = PartialAccess{Permissions: DefaultPermissions()}
	}
	return rec
}

// HasValidFormAccess is true when at least one record grants something usable.
func HasValidFormAccess(records []Record) bool {
	for _, rec := range records {
		if rec.Access().Usable() {
			return true
		}
	}
	return false
}
