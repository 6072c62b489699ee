package pagination

import "encoding/base64"

// EncodeCursorRaw encodes an arbitrary payload the way EncodeCursor does.
func EncodeCursorRaw(raw string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}
