// Package author derives pseudonymous author identifiers from client network
// addresses. The raw address is never stored; only the peppered digest is.
package author

import (
	"crypto/sha256"
	"encoding/hex"

	"pasty/svc/util"

	"github.com/pkg/errors"
)

var ErrEmptyPepper = errors.New("author pepper must not be empty")

// Deriver is immutable after construction and safe for concurrent use.
type Deriver struct {
	pepper []byte
}

func NewDeriver(pepper []byte) (*Deriver, error) {
	if len(pepper) == 0 {
		return nil, ErrEmptyPepper
	}
	d := &Deriver{pepper: make([]byte, len(pepper))}
	copy(d.pepper, pepper)
	return d, nil
}

// Derive returns hex(sha256(addr || pepper)). The address is hashed as text, so
// "1.2.3.4:9000" and "1.2.3.4:9001" are different authors.
func (d *Deriver) Derive(addr string) string {
	h := sha256.New()
	h.Write([]byte(addr))
	h.Write(d.pepper)
	return hex.EncodeToString(h.Sum(nil))
}

// Wipe zeroes the pepper. Only call it once no request can reach Derive.
func (d *Deriver) Wipe() {
	util.Wipe(d.pepper)
}
