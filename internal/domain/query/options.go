// Package query runs filtered, permission-checked, sorted and paged list queries.
package query

import (
	"easyadmin/internal/domain/filter"
)

// SortOrder is a sort direction; the zero value means "not set".
type SortOrder string

const (
	Unset SortOrder = ""
	Asc   SortOrder = "asc"
	Desc  SortOrder = "desc"
)

// Sort orders by one field.
type Sort struct {
	Field string    `json:"field"`
	Order SortOrder `json:"order"`
}

// DefaultPageItems is used when a paged request does not set PageItems.
const DefaultPageItems = 20

// Options is what a list screen asks for: the four filter channels, sorting
// and paging.
type Options struct {
	filter.Request

	// SortName/SortOrder is the single clicked column.
	SortName  string    `json:"sortName,omitempty"`
	SortOrder SortOrder `json:"sortOrder,omitempty"`

	// SortList is an explicit multi-column sort; it overrides SortName.
	SortList []Sort `json:"sortList,omitempty"`

	PageIndex int  `json:"pageIndex"`
	PageItems int  `json:"pageItems"`
	IsPage    bool `json:"isPage"`
}

// DefaultOptions returns a first page with the default size.
func DefaultOptions() Options {
	return Options{PageIndex: 1, PageItems: DefaultPageItems, IsPage: true}
}

// Page is one page of results plus the size of the whole filtered set.
type Page[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
}

// Spec is a fully resolved query handed to a Source.
type Spec struct {
	Where   filter.Condition
	OrderBy []Sort

	// Limit 0 means no limit.
	Limit  int
	Offset int
}
