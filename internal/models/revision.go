package models

import "github.com/iudanet/carestore/internal/crdt"

// RevisionRecord is the unit exchanged between peers during sync: a batch of
// entity versions tagged with the sender's knowledge at send time.
type RevisionRecord struct {
	KnowledgeVector crdt.KnowledgeVector `json:"knowledgeVector"`
	Entities        []Entity             `json:"entities"`
}
