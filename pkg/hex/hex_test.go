package hex

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHex(t *testing.T) {
	var err error
	hex := Hex([]byte{01, 02, 03, 04})
	require.Equal(t, "0x01020304", hex.String())
	require.Equal(t, []byte{01, 02, 03, 04}, hex.Bytes())

	hex2 := Hex{}
	err = json.Unmarshal([]byte(`"01020304"`), &hex2)
	require.NoError(t, err)
	require.Equal(t, []byte{01, 02, 03, 04}, hex2.Bytes())

	hex3 := Hex{}
	err = json.Unmarshal([]byte(`"0x01020304"`), &hex3)
	require.NoError(t, err)
	require.Equal(t, []byte{01, 02, 03, 04}, hex3.Bytes())

	bz, err := json.Marshal(hex3)
	require.NoError(t, err)
	require.Equal(t, `"0x01020304"`, string(bz))

	err = json.Unmarshal([]byte(`"0xzz"`), &hex3)
	require.Error(t, err)
}

func TestDecode(t *testing.T) {
	bz, err := Decode("0xab")
	require.NoError(t, err)
	require.Equal(t, []byte{0xab}, bz.Bytes())

	bz, err = Decode("ab")
	require.NoError(t, err)
	require.Equal(t, []byte{0xab}, bz.Bytes())

	_, err = Decode("0x0")
	require.Error(t, err)
}
