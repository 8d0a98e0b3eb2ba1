// Package store persists FTP users, shared folders, access rules and
// operator preferences using bun over SQLite, PostgreSQL or MySQL.
//
// Schema changes live in migrations/<dialect>/*.up.sql and are applied in
// name order on Open. Applied versions are recorded in schema_migrations.
package store
