package ledger

import (
	"crypto/subtle"
	"fmt"

	"github.com/stocktake-app/stocktake/internal/common"
)

// StaticGate authorizes against a single configured passphrase using a
// constant-time comparison. It implements service.AuthGate; a stronger
// scheme can be substituted without touching the ledger.
type StaticGate struct {
	secret string
}

// NewStaticGate creates a gate for the configured passphrase.
func NewStaticGate(secret string) *StaticGate {
	return &StaticGate{secret: secret}
}

// Authorize returns common.ErrAuth unless the secret matches.
func (g *StaticGate) Authorize(secret string) error {
	if g.secret == "" {
		return fmt.Errorf("%w: no passphrase configured", common.ErrAuth)
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(g.secret)) != 1 {
		return fmt.Errorf("%w: wrong passphrase", common.ErrAuth)
	}
	return nil
}
