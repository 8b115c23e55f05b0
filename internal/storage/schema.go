package storage

import _ "embed"

// SupabaseSchemaSQL creates the tables and functions the Supabase backend
// expects. Apply it once through the Supabase SQL editor or psql.
//
//go:embed supabase.sql
var SupabaseSchemaSQL string
