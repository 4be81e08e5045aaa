package articles

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joulek/Backend-mtr/internal/platform/httpx"
)

type mockRepository struct {
	articles map[uuid.UUID]Article
}

func newMockRepository() *mockRepository {
	return &mockRepository{articles: make(map[uuid.UUID]Article)}
}

func (m *mockRepository) Get(ctx context.Context, id uuid.UUID) (*Article, error) {
	a, ok := m.articles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &a, nil
}

func (m *mockRepository) List(ctx context.Context, req ListArticlesRequest) ([]Article, int, error) {
	var out []Article
	for _, a := range m.articles {
		if req.Search == "" || strings.Contains(strings.ToLower(a.Reference+a.Designation), strings.ToLower(req.Search)) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reference < out[j].Reference })
	return out, len(out), nil
}

func (m *mockRepository) Create(ctx context.Context, a Article) error {
	for _, existing := range m.articles {
		if existing.Reference == a.Reference {
			return ErrDuplicateReference
		}
	}
	m.articles[a.ID] = a
	return nil
}

func TestCreateNormalisesAndResolves(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateArticleRequest{
		Reference:    " rc-100 ",
		Designation:  "Ressort de compression",
		PriceExclTax: decimal.RequireFromString("12.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "RC-100", a.Reference)
	assert.Equal(t, "u", a.Unit)

	got, err := svc.Resolve(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.PriceExclTax.Equal(decimal.RequireFromString("12.500")))
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.Create(context.Background(), CreateArticleRequest{Designation: "x"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), CreateArticleRequest{Reference: "A", Designation: "x", PriceExclTax: decimal.NewFromInt(-1)})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateDuplicateIsConflict(t *testing.T) {
	svc := NewService(newMockRepository())
	req := CreateArticleRequest{Reference: "A1", Designation: "x"}
	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), req)
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestResolveUnknownIsNotFound(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.Resolve(context.Background(), uuid.New())
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestListPaginates(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), CreateArticleRequest{Reference: fmt.Sprintf("A%d", i), Designation: "fil"})
		require.NoError(t, err)
	}
	page, err := svc.List(context.Background(), ListArticlesRequest{Search: "a1"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Pagination.Page)
	assert.Equal(t, 20, page.Pagination.PerPage)
}
