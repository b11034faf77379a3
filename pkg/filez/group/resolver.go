package group

import (
	"context"

	"github.com/filez-project/filez/pkg/model"
)

// Store is the slice of store.Store this resolver needs; kept narrow so
// group evaluation can be tested against a fake without the whole Store
// interface.
type Store interface {
	ListAllFiles(ctx context.Context) ([]model.File, error)
	ListTagsForFile(ctx context.Context, fileID model.ID) ([]model.Tag, error)
	GetFileGroup(ctx context.Context, id model.ID) (model.FileGroup, error)
	ListFileGroupMembers(ctx context.Context, groupID model.ID) ([]model.ID, error)
}

// Resolver computes a FileGroup's membership, dispatching on GroupType:
// Manual groups return their stored edges, Dynamic groups evaluate
// Filter against every file (spec §3).
type Resolver struct {
	Store Store
}

func New(s Store) *Resolver { return &Resolver{Store: s} }

// Members returns the ids of every file belonging to group g.
func (r *Resolver) Members(ctx context.Context, g model.FileGroup) ([]model.ID, error) {
	if g.GroupType == model.FileGroupManual {
		return r.Store.ListFileGroupMembers(ctx, g.ID)
	}

	files, err := r.Store.ListAllFiles(ctx)
	if err != nil {
		return nil, err
	}
	tagsByFile := make(map[model.ID][]model.Tag, len(files))
	for _, f := range files {
		tags, err := r.Store.ListTagsForFile(ctx, f.ID)
		if err != nil {
			return nil, err
		}
		tagsByFile[f.ID] = tags
	}
	return Evaluate(g.Filter, files, tagsByFile), nil
}

// MembersByID looks up the group by id, then computes its membership.
func (r *Resolver) MembersByID(ctx context.Context, groupID model.ID) ([]model.ID, error) {
	g, err := r.Store.GetFileGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return r.Members(ctx, g)
}
