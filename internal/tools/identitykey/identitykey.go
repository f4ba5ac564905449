// Package identitykey generates the Ed25519 keypair that signs and
// verifies caller identity tokens, optionally issuing a development token.
package identitykey

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/louisbranch/pitchside/internal/platform/config"
	"github.com/louisbranch/pitchside/internal/services/ledger/auth"
)

// Options selects an optional development token to sign with the new key.
type Options struct {
	Issuer   string
	Audience string
	// UserID, when set, gets a token signed with the generated key.
	UserID string
	TTL    time.Duration
	Now    func() time.Time
}

// Run generates a key pair and writes shell exports to out.
func Run(out io.Writer, reader io.Reader, opts Options) error {
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}
	publicKey, privateKey, err := ed25519.GenerateKey(reader)
	if err != nil {
		return fmt.Errorf("generate identity key: %w", err)
	}
	if _, err := fmt.Fprintf(out, "export %sLEDGER_IDENTITY_PRIVATE_KEY=%s\n", config.EnvPrefix, base64.RawStdEncoding.EncodeToString(privateKey)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "export %s=%s\n", auth.EnvIdentityPublicKey, base64.RawStdEncoding.EncodeToString(publicKey)); err != nil {
		return err
	}

	userID := strings.TrimSpace(opts.UserID)
	if userID == "" {
		return nil
	}
	signer := auth.Signer{Issuer: opts.Issuer, Audience: opts.Audience, Key: privateKey, TTL: opts.TTL, Now: opts.Now}
	token, err := signer.Sign(userID, "dev-"+userID)
	if err != nil {
		return fmt.Errorf("sign development token: %w", err)
	}
	_, err = fmt.Fprintf(out, "# token for %s\n%s\n", userID, token)
	return err
}
