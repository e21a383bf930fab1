package sync

import (
	"context"

	"github.com/iudanet/carestore/internal/crdt"
	"github.com/iudanet/carestore/internal/models"
	"github.com/iudanet/carestore/internal/store"
)

//go:generate moq -out remote_mock.go . Remote

// Remote is the other side of a synchronization.
type Remote interface {
	// PullRevisions returns everything the remote has that since does not
	// know. At least one record is returned so its vector reports the
	// remote's knowledge.
	PullRevisions(ctx context.Context, since crdt.KnowledgeVector) ([]models.RevisionRecord, error)

	// PushRevisions delivers local revisions together with the sender's knowledge.
	PushRevisions(ctx context.Context, records []models.RevisionRecord, knowledge crdt.KnowledgeVector) error
}

// LocalPeer exposes a store in the same process as a Remote. Records pass
// through the wire codec in both directions.
type LocalPeer struct {
	store store.SyncableStore
}

// NewLocalPeer adapts s.
func NewLocalPeer(s store.SyncableStore) *LocalPeer {
	return &LocalPeer{store: s}
}

// PullRevisions implements Remote.
func (p *LocalPeer) PullRevisions(ctx context.Context, since crdt.KnowledgeVector) ([]models.RevisionRecord, error) {
	records, err := p.store.Revisions(ctx, since)
	if err != nil {
		return nil, err
	}
	return roundTrip(records)
}

// PushRevisions implements Remote.
func (p *LocalPeer) PushRevisions(ctx context.Context, records []models.RevisionRecord, _ crdt.KnowledgeVector) error {
	decoded, err := roundTrip(records)
	if err != nil {
		return err
	}
	_, err = p.store.MergeRevisions(ctx, decoded)
	return err
}

func roundTrip(records []models.RevisionRecord) ([]models.RevisionRecord, error) {
	data, err := Marshal(records)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

var _ Remote = (*LocalPeer)(nil)
