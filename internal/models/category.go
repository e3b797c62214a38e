package models

import "github.com/lib/pq"

// Category is a label with keywords used for rule-based matching.
type Category struct {
	ID       int            `db:"id" json:"id"`
	Name     string         `db:"name" json:"name"`
	Keywords pq.StringArray `db:"keywords" json:"keywords"`
}

// BannedWord excludes episodes whose text mentions it from further
// categorization and posting.
type BannedWord struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
