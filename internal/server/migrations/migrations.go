// Package migrations embeds the goose SQL migrations for the access-service
// schema. The repomanager runs them at startup.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
