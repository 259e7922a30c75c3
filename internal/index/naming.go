package index

import (
	"strings"

	"github.com/roach88/shaderidx/internal/capture"
)

const hexDigits = "0123456789ABCDEF"

// FileName returns the export file name for a shader: "<id>.<Stage>.<ext>".
//
// Bytes of the identity outside [A-Za-z0-9_-] are written as %XX, so the
// mapping is injective and never produces path separators or dots.
func FileName(id capture.ShaderID, stage capture.Stage, ext string) string {
	var b strings.Builder
	b.WriteString(EscapeID(id))
	b.WriteByte('.')
	b.WriteString(stage.String())
	if ext != "" {
		b.WriteByte('.')
		b.WriteString(ext)
	}
	return b.String()
}

// EscapeID renders an identity as a file-name-safe token.
func EscapeID(id capture.ShaderID) string {
	s := string(id)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0x0f])
		}
	}
	return b.String()
}
