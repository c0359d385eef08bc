// Package models contains GORM persistence models that map to database tables.
// They are kept separate from domain entities so the domain layer stays free of
// ORM tags. Each model converts to and from its entity with ToDomain and
// FromDomain, and repositories only ever read and write models.
package models
