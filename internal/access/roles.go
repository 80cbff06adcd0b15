package access

import (
	"fmt"
	"strings"
)

// Role is a caller class.
type Role string

const (
	// RoleDevice is a rider or driver app producing location fixes.
	RoleDevice Role = "device"
	// RoleOperator is back-office staff allowed to read trip history.
	RoleOperator Role = "operator"
	// RoleAdmin can do everything.
	RoleAdmin Role = "admin"
)

// Capability is one gated gateway operation.
type Capability string

const (
	CapCreateSession Capability = "create_session"
	CapEncrypt       Capability = "encrypt"
	CapDecrypt       Capability = "decrypt"
	CapEndSession    Capability = "end_session"
	CapReadStats     Capability = "read_stats"
	CapReadRecords   Capability = "read_records"
)

var capabilities = map[Role]map[Capability]bool{
	RoleDevice: {
		CapCreateSession: true,
		CapEncrypt:       true,
		CapEndSession:    true,
	},
	RoleOperator: {
		CapDecrypt:     true,
		CapReadStats:   true,
		CapReadRecords: true,
	},
	RoleAdmin: {
		CapCreateSession: true,
		CapEncrypt:       true,
		CapDecrypt:       true,
		CapEndSession:    true,
		CapReadStats:     true,
		CapReadRecords:   true,
	},
}

// ParseRole maps a claim value to a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := capabilities[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Allowed reports whether role grants c. Unknown roles grant nothing.
func Allowed(role Role, c Capability) bool {
	return capabilities[role][c]
}
