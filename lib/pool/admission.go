package pool

import (
	"fmt"
	"strconv"
	"strings"
)

// Admission is the policy deciding whether a tick may open another
// connection. The zero value is Unbounded.
type Admission struct {
	bounded bool
	max     uint32
}

// Unbounded returns a policy that attempts admission on every tick.
func Unbounded() Admission {
	return Admission{}
}

// BoundedAt returns a policy that admits only while fewer than n
// connections are held.
func BoundedAt(n uint32) Admission {
	return Admission{bounded: true, max: n}
}

// Allows reports whether a new connection may be attempted with live held.
func (a Admission) Allows(live int) bool {
	if !a.bounded {
		return true
	}
	return live < int(a.max)
}

// Max returns the cap and whether one is set.
func (a Admission) Max() (uint32, bool) {
	return a.max, a.bounded
}

// IsBounded reports whether a cap is set.
func (a Admission) IsBounded() bool {
	return a.bounded
}

// String returns "infinite" or the decimal cap.
func (a Admission) String() string {
	if !a.bounded {
		return "infinite"
	}
	return strconv.FormatUint(uint64(a.max), 10)
}

// ParseAdmission parses "infinite", "unbounded" or an unsigned 32-bit count.
// "ininite" is accepted too; older invocations spelled it that way.
func ParseAdmission(s string) (Admission, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "infinite", "ininite", "unbounded", "inf":
		return Unbounded(), nil
	}
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return Admission{}, fmt.Errorf("invalid max connections %q: want \"infinite\" or a number", s)
	}
	return BoundedAt(uint32(n)), nil
}

// Set implements pflag.Value.
func (a *Admission) Set(s string) error {
	parsed, err := ParseAdmission(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Type implements pflag.Value.
func (a *Admission) Type() string {
	return "infinite|N"
}

// MarshalText implements encoding.TextMarshaler.
func (a Admission) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Admission) UnmarshalText(text []byte) error {
	return a.Set(string(text))
}
