package search

import (
	"context"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/pbrane/newts/pkg/resource"
	"go.uber.org/zap"
	"sort"
	"sync"
	"unicode/utf8"
)

// NotFound is returned when a resource is not in the index.
var NotFound = errors.New("[search] - resource not found")

type Config struct {
	// KV is the key-value store the index is persisted in. Required.
	KV *pebble.DB
	// Logger is the logger used by the index.
	Logger *zap.Logger
}

// Index stores resources and the terms they can be discovered by. Writes are
// serialized; reads run against a consistent snapshot of the store.
type Index struct {
	Config
	mu sync.Mutex
}

// Open opens an Index on top of the key-value store in the given config.
func Open(cfg Config) (*Index, error) {
	if cfg.KV == nil {
		return nil, errors.New("[search] - kv is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Index{Config: cfg}, nil
}

// Index stores the given resources, replacing any resource previously indexed under
// the same id along with its terms. The write is atomic. Ids, attribute keys and
// attribute values must be valid UTF-8.
func (idx *Index) Index(ctx context.Context, resources ...resource.Resource) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, r := range resources {
		if err := validate(r); err != nil {
			return err
		}
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	b := idx.KV.NewBatch()
	defer func() { _ = b.Close() }()

	pending := make(map[string]resource.Resource, len(resources))
	for _, r := range resources {
		prev, found, err := idx.previous(pending, r.ID())
		if err != nil {
			return err
		}
		if found {
			if err := deleteTerms(b, prev); err != nil {
				return err
			}
		}
		data, err := r.MarshalJSON()
		if err != nil {
			return errors.Wrapf(err, "[search] - failed to encode %s", r)
		}
		if err := b.Set(recordKey(r.ID()), data, nil); err != nil {
			return err
		}
		for _, t := range Terms(r) {
			if err := b.Set(termKey(t, r.ID()), nil, nil); err != nil {
				return err
			}
		}
		pending[r.ID()] = r
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return errors.Wrap(err, "[search] - failed to commit index batch")
	}
	idx.Logger.Debug("indexed resources", zap.Int("count", len(resources)))
	return nil
}

// Delete removes the resources with the given ids and their terms. Ids that are not
// indexed are ignored.
func (idx *Index) Delete(ctx context.Context, ids ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	b := idx.KV.NewBatch()
	defer func() { _ = b.Close() }()

	deleted := make(map[string]bool, len(ids))
	for _, id := range ids {
		if deleted[id] {
			continue
		}
		prev, err := retrieve(idx.KV, id)
		if errors.Is(err, NotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if err := deleteTerms(b, prev); err != nil {
			return err
		}
		if err := b.Delete(recordKey(id), nil); err != nil {
			return err
		}
		deleted[id] = true
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return errors.Wrap(err, "[search] - failed to commit delete batch")
	}
	idx.Logger.Debug("deleted resources", zap.Int("count", len(deleted)))
	return nil
}

// Retrieve returns the resource indexed under id, or NotFound.
func (idx *Index) Retrieve(ctx context.Context, id string) (resource.Resource, error) {
	if err := ctx.Err(); err != nil {
		return resource.Resource{}, err
	}
	return retrieve(idx.KV, id)
}

// Exists returns true if a resource is indexed under id.
func (idx *Index) Exists(ctx context.Context, id string) (bool, error) {
	_, err := idx.Retrieve(ctx, id)
	if errors.Is(err, NotFound) {
		return false, nil
	}
	return err == nil, err
}

// Search returns the resources matching q, sorted by id.
func (idx *Index) Search(ctx context.Context, q Query) ([]resource.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := idx.KV.NewSnapshot()
	defer func() { _ = snap.Close() }()

	var (
		ids []string
		err error
	)
	if len(q.Terms) == 0 {
		ids, err = scanSuffixes(snap, recordPrefix)
	} else {
		ids, err = matchTerms(snap, q)
	}
	if err != nil {
		return nil, err
	}

	sort.Strings(ids)
	results := make([]resource.Resource, 0, len(ids))
	for _, id := range ids {
		r, err := retrieve(snap, id)
		if errors.Is(err, NotFound) {
			// A term without a record is unreachable. Leave it out of the results.
			idx.Logger.Warn("dangling term", zap.String("id", id))
			continue
		}
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	idx.Logger.Debug("searched resources",
		zap.Stringer("query", q),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// previous returns the resource that currently occupies id, taking writes earlier in
// the same batch into account.
func (idx *Index) previous(
	pending map[string]resource.Resource,
	id string,
) (resource.Resource, bool, error) {
	if r, ok := pending[id]; ok {
		return r, true, nil
	}
	r, err := retrieve(idx.KV, id)
	if errors.Is(err, NotFound) {
		return r, false, nil
	}
	return r, err == nil, err
}

// validate rejects resources whose text would not survive the JSON record encoding.
// Term keys hold the raw bytes, so a lossy record would strand them on delete.
func validate(r resource.Resource) error {
	if !utf8.ValidString(r.ID()) {
		return errors.Wrapf(resource.InvalidArgument, "id %q is not valid UTF-8", r.ID())
	}
	var err error
	r.Attributes().Range(func(k, v string) bool {
		if !utf8.ValidString(k) || !utf8.ValidString(v) {
			err = errors.Wrapf(
				resource.InvalidArgument,
				"attribute %q=%q of %s is not valid UTF-8", k, v, r,
			)
		}
		return err == nil
	})
	return err
}

func deleteTerms(b *pebble.Batch, r resource.Resource) error {
	for _, t := range Terms(r) {
		if err := b.Delete(termKey(t, r.ID()), nil); err != nil {
			return err
		}
	}
	return nil
}

func matchTerms(r pebble.Reader, q Query) ([]string, error) {
	counts := make(map[string]int)
	seen := make(map[Term]bool, len(q.Terms))
	for _, t := range q.Terms {
		if seen[t] {
			continue
		}
		seen[t] = true
		ids, err := scanSuffixes(r, termKeyPrefix(t))
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			counts[id]++
		}
	}
	var matched []string
	for id, n := range counts {
		if q.Operator == Or || n == len(seen) {
			matched = append(matched, id)
		}
	}
	return matched, nil
}

// scanSuffixes returns the remainder of every key that starts with prefix.
func scanSuffixes(r pebble.Reader, prefix []byte) ([]string, error) {
	iter := r.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: prefixEnd(prefix)})
	var suffixes []string
	for iter.First(); iter.Valid(); iter.Next() {
		suffixes = append(suffixes, string(iter.Key()[len(prefix):]))
	}
	return suffixes, errors.CombineErrors(iter.Error(), iter.Close())
}

func retrieve(r pebble.Reader, id string) (resource.Resource, error) {
	var res resource.Resource
	data, closer, err := r.Get(recordKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return res, errors.Wrapf(NotFound, "%s", resource.New(id))
	}
	if err != nil {
		return res, err
	}
	defer func() { _ = closer.Close() }()
	if err := res.UnmarshalJSON(data); err != nil {
		return res, errors.Wrapf(err, "[search] - corrupt record for %s", resource.New(id))
	}
	return res, nil
}
