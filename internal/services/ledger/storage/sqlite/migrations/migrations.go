// Package migrations embeds the ledger schema.
package migrations

import "embed"

// FS holds the ledger migrations, applied in file name order.
//
//go:embed *.sql
var FS embed.FS
