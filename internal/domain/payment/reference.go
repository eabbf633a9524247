package payment

import (
	"crypto/rand"
	"fmt"
	"time"
)

const (
	referencePrefix    = "PAY"
	referenceAlphabet  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	referenceSuffixLen = 8
)

// NewReferenceID produces a client-facing payment reference of the form
// PAY-{unix_millis}-{8 random base36 chars}. The millisecond prefix keeps
// references roughly sortable; the random suffix avoids collisions. The
// unique constraint on payments.reference_id is the authoritative guarantee,
// generation here is best effort.
func NewReferenceID() string {
	buf := make([]byte, referenceSuffixLen)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform RNG is broken; there is
		// nothing sensible to fall back to.
		panic(fmt.Sprintf("payment: reading random bytes: %v", err))
	}
	for i, b := range buf {
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return fmt.Sprintf("%s-%d-%s", referencePrefix, time.Now().UnixMilli(), buf)
}
