package session

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EntityID is an opaque identifier that may arrive as a JSON number or a
// JSON string depending on the producer. It preserves whichever wire form
// it was issued with and marshals back unchanged; Canonical gives the
// normalized string used for comparisons.
type EntityID struct {
	raw string // original JSON literal, "" when absent
}

// ID builds an EntityID from a string identifier.
func ID(s string) EntityID {
	raw, _ := json.Marshal(s)
	return EntityID{raw: string(raw)}
}

// NumericID builds an EntityID from a numeric identifier.
func NumericID(n int64) EntityID {
	return EntityID{raw: strconv.FormatInt(n, 10)}
}

func (id *EntityID) UnmarshalJSON(b []byte) error {
	lit := strings.TrimSpace(string(b))
	if lit == "null" {
		id.raw = ""
		return nil
	}
	if strings.HasPrefix(lit, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		id.raw = lit
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("identifier must be a string or number: %w", err)
	}
	id.raw = lit
	return nil
}

func (id EntityID) MarshalJSON() ([]byte, error) {
	if id.raw == "" {
		return []byte("null"), nil
	}
	return []byte(id.raw), nil
}

func (id EntityID) IsZero() bool {
	return id.raw == "" || id.raw == `""`
}

// Canonical returns the normalized string form: the unquoted value for
// string ids, the shortest decimal form for whole numbers. "5" and 5
// canonicalize to the same value; producers that disagree on the id type
// still compare equal.
func (id EntityID) Canonical() string {
	if id.raw == "" {
		return ""
	}
	lit := id.raw
	if strings.HasPrefix(lit, `"`) {
		var s string
		_ = json.Unmarshal([]byte(lit), &s)
		lit = s
	}
	if n, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	if f, err := strconv.ParseFloat(lit, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return lit
}

// Equal reports whether two ids refer to the same entity, ignoring the
// number-vs-string wire inconsistency. Absent ids never match.
func (id EntityID) Equal(other EntityID) bool {
	if id.IsZero() || other.IsZero() {
		return false
	}
	return id.Canonical() == other.Canonical()
}

func (id EntityID) String() string {
	return id.Canonical()
}

// Provider names for Identity.Provider.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// Identity is the authenticated user as the backend describes it. The id is
// never re-typed once issued; a numeric id round-trips as a number.
type Identity struct {
	ID       EntityID `json:"id"`
	Name     string   `json:"name,omitempty"`
	Email    string   `json:"email,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Avatar   string   `json:"avatar,omitempty"`
	Verified bool     `json:"verified,omitempty"`
	Provider string   `json:"provider,omitempty"`
}
