package app

import (
	"crypto/rand"
	"math/big"

	"github.com/dkeye/DrawQuiz/internal/domain"
)

// Unambiguous characters only, no 0/O or 1/I.
const inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const DefaultInviteCodeLength = 8

type CodeGenerator func() domain.InviteCode

// RandomInviteCodes returns a generator of random codes of the given length.
func RandomInviteCodes(length int) CodeGenerator {
	if length <= 0 {
		length = DefaultInviteCodeLength
	}
	max := big.NewInt(int64(len(inviteAlphabet)))
	return func() domain.InviteCode {
		code := make([]byte, length)
		for i := range code {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				panic(err)
			}
			code[i] = inviteAlphabet[n.Int64()]
		}
		return domain.InviteCode(code)
	}
}
