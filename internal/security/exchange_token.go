package security

import (
	"crypto/rand"
	"encoding/hex"
	"io"

	"github.com/cockroachdb/errors"
)

// ExchangeTokenBytes is the amount of entropy in each pickup/return token.
const ExchangeTokenBytes = 32

// ExchangeTokenGenerator produces the secrets shown as QR codes at the
// physical handover. It has no persistence responsibility.
type ExchangeTokenGenerator interface {
	// NewPair returns two distinct, non-empty tokens.
	NewPair() (pickup, ret string, err error)
}

type exchangeTokenGenerator struct {
	source io.Reader
}

func NewExchangeTokenGenerator() ExchangeTokenGenerator {
	return &exchangeTokenGenerator{source: rand.Reader}
}

// NewExchangeTokenGeneratorWithSource reads entropy from source instead of
// crypto/rand.
func NewExchangeTokenGeneratorWithSource(source io.Reader) ExchangeTokenGenerator {
	return &exchangeTokenGenerator{source: source}
}

func (g *exchangeTokenGenerator) NewPair() (string, string, error) {
	const maxAttempts = 3
	for i := 0; i < maxAttempts; i++ {
		pickup, err := g.token()
		if err != nil {
			return "", "", err
		}
		ret, err := g.token()
		if err != nil {
			return "", "", err
		}
		if pickup != ret {
			return pickup, ret, nil
		}
	}
	return "", "", errors.New("entropy source keeps producing identical exchange tokens")
}

func (g *exchangeTokenGenerator) token() (string, error) {
	buf := make([]byte, ExchangeTokenBytes)
	if _, err := io.ReadFull(g.source, buf); err != nil {
		return "", errors.Wrap(err, "failed to read exchange token entropy")
	}
	return hex.EncodeToString(buf), nil
}
