// Package model defines the entities of the data model: users, apps,
// groups, files and their versions, storage locations and quotas, access
// policies, jobs and tags. Types here carry no persistence logic — that
// lives in pkg/store — so the authorization engine and domain services can
// be exercised with plain struct literals in tests.
package model

import (
	"time"

	"github.com/google/uuid"
)

// ID is a 128-bit random identifier shared by every entity in the system.
type ID = uuid.UUID

// NewID returns a new random ID.
func NewID() ID { return uuid.New() }

// ParseID parses s into an ID.
func ParseID(s string) (ID, error) { return uuid.Parse(s) }

// NilID is the zero-value ID, used to mean "type-level" where a field is
// logically optional.
var NilID = uuid.Nil

// SortOrder controls the direction a listing endpoint sorts its sort key.
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// ListRequest is the common pagination/sort envelope every listing
// endpoint accepts.
type ListRequest struct {
	FromIndex int
	Limit     int
	SortBy    string
	SortOrder SortOrder
}

// ListResult is the common pagination envelope every listing endpoint
// returns.
type ListResult[T any] struct {
	Items      []T
	TotalCount int
}

func now() time.Time { return time.Now().UTC() }
