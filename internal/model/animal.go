package model

import "time"

// Animal represents a breeding dog registered in the kennel.  Animals
// form the lineage graph through their father and mother references,
// which may be nil when an ancestor is unknown.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – registered name of the animal.
//  Breed     – breed designation.
//  Sex       – biological sex (male, female).
//  BirthDate – date of birth, if recorded.
//  FatherID  – reference to the sire (nullable).
//  MotherID  – reference to the dam (nullable).
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Animal struct {
	ID        uint64     `json:"id"`         // animals.id
	Name      string     `json:"name"`       // animals.name
	Breed     string     `json:"breed"`      // animals.breed
	Sex       string     `json:"sex"`        // animals.sex
	BirthDate *time.Time `json:"birth_date"` // animals.birth_date (nullable)
	FatherID  *uint64    `json:"father_id"`  // animals.father_id (nullable)
	MotherID  *uint64    `json:"mother_id"`  // animals.mother_id (nullable)
	CreatedAt time.Time  `json:"created_at"` // animals.created_at
	UpdatedAt time.Time  `json:"updated_at"` // animals.updated_at
}

// AncestorNode is one node of the recursive lineage tree returned by
// the ancestors query.  Father and Mother are expanded up to the
// requested depth; an unknown parent is simply omitted from the JSON
// output.  A tree of depth d contains at most 2^d - 1 ancestor nodes.
type AncestorNode struct {
	ID        uint64        `json:"id"`
	Name      string        `json:"name"`
	Breed     string        `json:"breed"`
	Sex       string        `json:"sex"`
	BirthDate *time.Time    `json:"birth_date,omitempty"`
	Father    *AncestorNode `json:"father,omitempty"`
	Mother    *AncestorNode `json:"mother,omitempty"`
}
