package devmode

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrDecode indicates a persisted device-mode string that is not valid
// base64 or decodes to a block whose header contradicts its length.
var ErrDecode = errors.New("devmode: malformed device-mode encoding")

// Encode produces the standard base64 text form of a captured device-mode
// byte sequence. It is a faithful byte-for-byte mapping: no compression, no
// transformation. Encode is the sole writer of the stored blob format.
func Encode(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

// Decode is the inverse of Encode. It fails with ErrDecode on malformed
// input (a corrupted or truncated persisted record).
func Decode(s string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return raw, nil
}

// DecodeBlock decodes a persisted record and validates it as a device-mode
// block. A record whose declared header length is inconsistent with its
// byte length also fails with ErrDecode.
func DecodeBlock(s string) (Block, error) {
	raw, err := Decode(s)
	if err != nil {
		return Block{}, err
	}
	b, err := FromRaw(raw)
	if err != nil {
		return Block{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return b, nil
}
