// Package db provides the embedded database schema and the default seed
// catalog.
package db

import _ "embed"

// Schema contains the DDL statements for the products table.
//
//go:embed migrations/001_products.sql
var Schema string

// SeedProducts is the default catalog loaded by seed-db when no products
// file is given.
//
//go:embed seed/products.json
var SeedProducts []byte
