package encoding

import (
	"strings"
)

// crockfordLower is Crockford's Base32 alphabet in lowercase: no i, l, o or u.
const crockfordLower = "0123456789abcdefghjkmnpqrstvwxyz"

// EncodeCrockfordB32LC encodes input with Crockford's Base32 alphabet, lowercase and
// unpadded. The output only contains [0-9a-z], so it is safe in file names and slot keys.
func EncodeCrockfordB32LC(input []byte) string {
	var (
		out   strings.Builder
		bits  uint
		accum uint32
	)

	out.Grow((len(input)*8 + 4) / 5)

	for _, b := range input {
		accum = accum<<8 | uint32(b)
		bits += 8

		for bits >= 5 {
			bits -= 5
			out.WriteByte(crockfordLower[(accum>>bits)&0x1F])
		}
	}

	if bits > 0 {
		out.WriteByte(crockfordLower[(accum<<(5-bits))&0x1F])
	}

	return out.String()
}
