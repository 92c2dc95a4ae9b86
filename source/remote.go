package source

import (
	"context"
	"sync"
	"time"

	"github.com/lixenwraith/envres/errs"
)

// RemoteFetcher is the collaborator a RemoteSource delegates the actual
// network call to, keeping the transport swappable. The caller supplies
// the implementation; this package ships none.
type RemoteFetcher interface {
	Fetch(ctx context.Context) (map[string]string, error)
}

// RemoteSource adapts an external key/value provider (a secrets manager,
// a config service) into the Source contract. It supplements the
// distilled spec's Source list, which names Remote in its priority table
// but never gives it a concrete shape.
type RemoteSource struct {
	id      ID
	fetcher RemoteFetcher
	timeout time.Duration

	mu      sync.Mutex
	cached  []Variable
	version uint64
}

// NewRemoteSource constructs a RemoteSource identified as
// "remote:<provider>[:path]".
func NewRemoteSource(provider string, path *string, fetcher RemoteFetcher, timeout time.Duration) *RemoteSource {
	id := "remote:" + provider
	if path != nil {
		id += ":" + *path
	}
	return &RemoteSource{id: ID(id), fetcher: fetcher, timeout: timeout}
}

func (r *RemoteSource) ID() ID { return r.id }
func (r *RemoteSource) Priority() Priority { return PriorityRemote }
func (r *RemoteSource) Capabilities() Capabilities {
	return CapRead | CapSecrets | CapVersioned | CapCacheable | CapAsyncOnly
}

func (r *RemoteSource) Load() (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	values, err := r.fetcher.Fetch(ctx)
	if err != nil {
		if err == context.DeadlineExceeded {
			return Snapshot{}, &errs.SourceError{Kind: errs.SourceTimeout, Path: string(r.id), Msg: err.Error(), Source: err}
		}
		return Snapshot{}, &errs.SourceError{Kind: errs.SourceRemote, Path: string(r.id), Msg: err.Error(), Source: err}
	}

	vars := make([]Variable, 0, len(values))
	for k, v := range values {
		vars = append(vars, Variable{Key: k, RawValue: v, Origin: RemoteOrigin{Provider: string(r.id)}})
	}
	r.cached = vars
	r.version++
	v := r.version

	return Snapshot{SourceID: r.id, Variables: vars, Timestamp: time.Now(), Version: &v}, nil
}

// HasChanged always reports true: a remote provider has no cheap local
// signal to compare against, so callers that want caching rely on the
// resolution cache's TTL rather than this check.
func (r *RemoteSource) HasChanged() (bool, error) { return true, nil }

func (r *RemoteSource) Invalidate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = nil
	return nil
}
