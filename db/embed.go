// Package db provides the embedded database migrations.
package db

import "embed"

// Migrations holds the versioned up/down SQL files read by golang-migrate.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations that holds the SQL files.
const MigrationsDir = "migrations"
