// Package migrations содержит SQL миграции схемы, встроенные в бинарник
package migrations

import "embed"

// FS миграции в формате golang-migrate (NNNN_name.up.sql / NNNN_name.down.sql)
//
//go:embed *.sql
var FS embed.FS
