// Package store defines the persistence interfaces the HTTP layer and
// services depend on, together with the sentinel errors every
// implementation maps its backend failures to.
package store
