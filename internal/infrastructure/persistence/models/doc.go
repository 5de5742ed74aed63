// Package models contains the GORM persistence models of the local store.
//
// Models are kept separate from domain types: each model maps to one table
// and exposes ToDomain / FromDomain conversions where the domain needs them.
// Column types are portable between PostgreSQL and SQLite so that repository
// tests can run against an in-memory database.
package models
