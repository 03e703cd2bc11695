// Package hex handles the 0x-prefixed hex convention used by EVM providers.
package hex

import (
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Hex is a byte slice that marshals as 0x-prefixed hex and accepts either
// prefixed or bare hex when decoding.
type Hex []byte

// Encode returns the 0x-prefixed hex encoding of bz.
func Encode(bz []byte) string {
	return "0x" + hex.EncodeToString(bz)
}

// Decode parses prefixed or bare hex.
func Decode(s string) (Hex, error) {
	bz, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, err
	}
	return bz, nil
}

func (h Hex) String() string {
	return Encode(h)
}

func (h Hex) Bytes() []byte {
	return []byte(h)
}

func (h Hex) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *Hex) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return h.UnmarshalText([]byte(s))
}

func (h Hex) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hex) UnmarshalText(data []byte) error {
	bz, err := Decode(string(data))
	if err != nil {
		return err
	}
	*h = bz
	return nil
}
