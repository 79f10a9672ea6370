// Package db provides the embedded database schema and seed data.
package db

import "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// Seed holds the default catalog and coupon documents loaded by seed-db.
//
//go:embed seed/products.json seed/coupons.json
var Seed embed.FS
