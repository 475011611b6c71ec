package ifc

import (
	"math/big"

	"github.com/google/uuid"
)

// IFC GlobalIds are 128-bit UUIDs compressed to 22 characters over this
// base-64 alphabet.
const guidAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_$"

var guidBase = big.NewInt(64)

func newGlobalID() string {
	return compressGUID(uuid.New())
}

func compressGUID(u uuid.UUID) string {
	n := new(big.Int).SetBytes(u[:])
	mod := new(big.Int)

	out := make([]byte, 22)
	for i := 21; i >= 0; i-- {
		n.DivMod(n, guidBase, mod)
		out[i] = guidAlphabet[mod.Int64()]
	}
	return string(out)
}
