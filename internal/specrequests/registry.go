package specrequests

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// Registry maps each kind to its repository and probes them in AllKinds order.
type Registry struct {
	repos map[Kind]Repository
	order []Kind
}

// NewRegistry builds a registry from repositories. Kinds are iterated in AllKinds order.
func NewRegistry(repos ...Repository) *Registry {
	reg := &Registry{repos: make(map[Kind]Repository, len(repos))}
	for _, r := range repos {
		reg.repos[r.Kind()] = r
	}
	for _, k := range AllKinds {
		if _, ok := reg.repos[k]; ok {
			reg.order = append(reg.order, k)
		}
	}
	return reg
}

// NewPostgresRegistry wires one pgx repository per kind.
func NewPostgresRegistry(pool *pgxpool.Pool) *Registry {
	repos := make([]Repository, 0, len(AllKinds))
	for _, k := range AllKinds {
		repos = append(repos, NewRepository(pool, k))
	}
	return NewRegistry(repos...)
}

// Kinds returns the registered kinds in iteration order.
func (r *Registry) Kinds() []Kind {
	return append([]Kind(nil), r.order...)
}

// For returns the repository of kind.
func (r *Registry) For(kind Kind) (Repository, error) {
	repo, ok := r.repos[kind]
	if !ok {
		return nil, fmt.Errorf("no repository for kind %q", kind)
	}
	return repo, nil
}

// ResolveAnyKind finds a request by id without knowing its kind. The first kind holding the
// id wins.
func (r *Registry) ResolveAnyKind(ctx context.Context, id uuid.UUID) (*SpecRequest, error) {
	for _, k := range r.order {
		req, err := r.repos[k].Get(ctx, id)
		if err == nil {
			return req, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// SearchAllRefs queries every kind in parallel and concatenates the results in kind order.
func (r *Registry) SearchAllRefs(ctx context.Context, filter string) ([]Ref, error) {
	results := make([][]Ref, len(r.order))
	g, gctx := errgroup.WithContext(ctx)
	for i, k := range r.order {
		repo := r.repos[k]
		g.Go(func() error {
			refs, err := repo.SearchRefs(gctx, filter)
			if err != nil {
				return err
			}
			results[i] = refs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var out []Ref
	for _, refs := range results {
		out = append(out, refs...)
	}
	return out, nil
}
