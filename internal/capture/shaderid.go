package capture

import (
	"strings"
)

// ShaderID is the stable identity of one compiled shader object.
// It is distinct from the shader's stage and from its bytecode content.
//
// The zero value is the null sentinel: no shader bound.
type ShaderID string

// NullShader is the "no shader bound" sentinel.
const NullShader ShaderID = ""

// ParseShaderID normalizes a textual resource id.
// "ResourceId::123", "<123>" and "123" all yield "123".
func ParseShaderID(s string) ShaderID {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "::"); i >= 0 {
		s = s[i+2:]
	}
	s = strings.Trim(s, "<> ")
	return ShaderID(s)
}

// IsNull reports whether id is the null sentinel.
func (id ShaderID) IsNull() bool {
	return id == NullShader
}

func (id ShaderID) String() string {
	return string(id)
}

// Compare orders identities deterministically.
// All-digit identities sort first, numerically; anything else follows,
// bytewise. Returns -1, 0 or +1.
func (id ShaderID) Compare(other ShaderID) int {
	a, b := string(id), string(other)
	da, db := isDigits(a), isDigits(b)
	if da != db {
		if da {
			return -1
		}
		return 1
	}
	if da {
		ta, tb := strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
		if len(ta) != len(tb) {
			if len(ta) < len(tb) {
				return -1
			}
			return 1
		}
		if c := strings.Compare(ta, tb); c != 0 {
			return c
		}
	}
	return strings.Compare(a, b)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
