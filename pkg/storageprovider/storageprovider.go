// Package storageprovider is the Storage Provider Registry (spec §4.4):
// a name-keyed, read-mostly map of driver instances, one per
// StorageLocation, grounded on the teacher's pkg/storage/registry/static
// (declarative-config-loaded, name-keyed driver map) and
// internal/http/services/dataprovider's driver-by-name-from-config
// pattern.
package storageprovider

import (
	"context"
	"io"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
)

// ByteRange is an inclusive byte range for a ranged GET, matching RFC
// 7233 single-range semantics (spec §4.5); multi-range is rejected
// upstream in the HTTP surface before it ever reaches a Provider.
type ByteRange struct {
	Start, End int64 // End == -1 means "to the end of the object"
}

// Provider is the uniform byte I/O contract every storage backend
// implements (spec §4.4).
type Provider interface {
	Put(ctx context.Context, path string, r io.Reader) error
	PutRange(ctx context.Context, path string, offset int64, r io.Reader) error
	Get(ctx context.Context, path string, rng *ByteRange) (io.ReadCloser, error)
	Head(ctx context.Context, path string) (size int64, err error)
	Delete(ctx context.Context, path string) error
}

// Factory builds a Provider from a StorageLocation's ProviderConfig, one
// per ProviderKind, registered in driverFuncs the way reva's
// registry.NewFuncs maps a driver name to a constructor.
type Factory func(cfg model.ProviderConfig) (Provider, error)

var driverFuncs = map[model.ProviderKind]Factory{}

// Register adds a driver constructor under kind. Called from each
// driver's init(), matching the teacher's registry.Register idiom.
func Register(kind model.ProviderKind, f Factory) { driverFuncs[kind] = f }

// Registry owns one Provider instance per StorageLocation id, behind a
// read-mostly map: writers are Install and Remove (cmd/filezd installs
// the default location at startup), readers are every content-bearing
// request (spec §5 "shared-resource policy").
type Registry struct {
	mu        sync.RWMutex
	providers map[model.ID]Provider
	locations map[model.ID]model.StorageLocation
}

func New() *Registry {
	return &Registry{providers: map[model.ID]Provider{}, locations: map[model.ID]model.StorageLocation{}}
}

// Install initializes (or re-initializes) the provider for loc.
func (r *Registry) Install(loc model.StorageLocation) error {
	factory, ok := driverFuncs[loc.Config.Kind]
	if !ok {
		return errtypes.NotSupported(string(loc.Config.Kind))
	}
	p, err := factory(loc.Config)
	if err != nil {
		return errors.Wrapf(err, "storageprovider: initializing %s", loc.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[loc.ID] = p
	r.locations[loc.ID] = loc
	return nil
}

// Remove drops a provider no longer referenced by any FileVersion. The
// caller is responsible for checking that precondition first (spec
// §4.4: "kept alive until no FileVersion references them, then dropped").
func (r *Registry) Remove(id model.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.providers, id)
	delete(r.locations, id)
}

func (r *Registry) Get(id model.ID) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, errtypes.NotFound("storage provider for location " + id.String())
	}
	return p, nil
}

func (r *Registry) Location(id model.ID) (model.StorageLocation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loc, ok := r.locations[id]
	return loc, ok
}

// ObjectPath builds the deterministic object path of a version:
// {file_id[0]}/{file_id[1]}/{file_id[2]}/{file_id_rest}/{app_id}/v{version_number}.
// The path carries no location prefix; every location lays its objects
// out this way under its provider's own root.
func ObjectPath(fileID, appID model.ID, versionNumber int) string {
	id := fileID.String()
	// UUID string form is always 36 chars; the first three characters
	// fan out the directory tree, the remainder (including the dashes)
	// is the leaf directory name.
	return id[0:1] + "/" + id[1:2] + "/" + id[2:3] + "/" + id[3:] + "/" + appID.String() + "/v" + strconv.Itoa(versionNumber)
}
