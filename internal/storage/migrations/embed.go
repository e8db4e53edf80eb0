// Package migrations embeds the schema for both databases and applies
// it in lexical file order.
package migrations

import "embed"

// PostgresFS holds the PostgreSQL schema migrations.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the ClickHouse archive schema migrations.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
