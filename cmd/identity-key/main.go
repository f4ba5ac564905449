// Package main provides a one-shot utility for identity key generation.
//
// It emits the Ed25519 keypair the ledger verifies caller tokens with and,
// given -user, a development token for that user.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/louisbranch/pitchside/internal/platform/config"
	"github.com/louisbranch/pitchside/internal/tools/identitykey"
)

func main() {
	var opts identitykey.Options
	flag.StringVar(&opts.Issuer, "issuer", "pitchside-accounts", "token issuer")
	flag.StringVar(&opts.Audience, "audience", "pitchside-ledger", "token audience")
	flag.StringVar(&opts.UserID, "user", "", "sign a development token for this user")
	flag.DurationVar(&opts.TTL, "ttl", 24*time.Hour, "development token lifetime")
	flag.Parse()

	if err := identitykey.Run(os.Stdout, nil, opts); err != nil {
		config.Exitf("generate identity key: %v", err)
	}
}
