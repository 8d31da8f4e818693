// Package models contains GORM persistence models that map to database tables.
// They are kept separate from the domain types: the domain stays free of ORM
// tags, and each model converts to its domain type with ToDomain.
package models
