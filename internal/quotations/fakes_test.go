package quotations

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/joulek/Backend-mtr/internal/articles"
	"github.com/joulek/Backend-mtr/internal/clients"
	"github.com/joulek/Backend-mtr/internal/platform/httpx"
	"github.com/joulek/Backend-mtr/internal/platform/storage"
	"github.com/joulek/Backend-mtr/internal/specrequests"
)

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2), msgAndArgs...)
}

type fakeRequests struct {
	mu    sync.Mutex
	items []specrequests.SpecRequest
	err   error
}

func (f *fakeRequests) add(kind specrequests.Kind, number string, owner uuid.UUID) specrequests.SpecRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	req := specrequests.SpecRequest{ID: uuid.New(), Number: number, OwnerID: owner, Kind: kind}
	f.items = append(f.items, req)
	return req
}

func (f *fakeRequests) ResolveAnyKind(ctx context.Context, id uuid.UUID) (*specrequests.SpecRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range specrequests.AllKinds {
		for _, item := range f.items {
			if item.ID == id && item.Kind == k {
				req := item
				return &req, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", specrequests.ErrNotFound, id)
}

func (f *fakeRequests) SearchAllRefs(ctx context.Context, filter string) ([]specrequests.Ref, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []specrequests.Ref
	for _, k := range specrequests.AllKinds {
		for _, item := range f.items {
			if item.Kind != k {
				continue
			}
			if filter != "" && !strings.Contains(strings.ToLower(item.Number), strings.ToLower(filter)) {
				continue
			}
			out = append(out, item.Ref())
		}
	}
	return out, nil
}

type fakeArticles struct {
	items map[uuid.UUID]articles.Article
}

func newFakeArticles() *fakeArticles {
	return &fakeArticles{items: make(map[uuid.UUID]articles.Article)}
}

func (f *fakeArticles) add(reference, price string) articles.Article {
	a := articles.Article{
		ID:           uuid.New(),
		Reference:    reference,
		Designation:  "Article " + reference,
		Unit:         "u",
		PriceExclTax: decimal.RequireFromString(price),
	}
	f.items[a.ID] = a
	return a
}

func (f *fakeArticles) Resolve(ctx context.Context, id uuid.UUID) (*articles.Article, error) {
	a, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", articles.ErrNotFound, id)
	}
	return &a, nil
}

type fakeClients struct {
	items map[uuid.UUID]clients.Client
}

func (f *fakeClients) Lookup(ctx context.Context, id uuid.UUID) (*clients.Client, error) {
	c, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", clients.ErrNotFound, id)
	}
	return &c, nil
}

type fakeNumbers struct {
	mu   sync.Mutex
	seq  int64
	err  error
	next []string
}

func (f *fakeNumbers) Next(ctx context.Context, family string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.seq++
	number := fmt.Sprintf("DV2025-%06d", f.seq)
	f.next = append(f.next, number)
	return number, nil
}

func (f *fakeNumbers) PreviewNext(ctx context.Context, family string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fmt.Sprintf("DV2025-%06d", f.seq+1), nil
}

type fakeStore struct {
	mu        sync.Mutex
	items     []Quotation
	insertErr error
}

func (f *fakeStore) Insert(ctx context.Context, q *Quotation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, existing := range f.items {
		if existing.Number == q.Number {
			return fmt.Errorf("quotation number %s: %w", q.Number, httpx.ErrConflict)
		}
	}
	f.items = append(f.items, *q)
	return nil
}

func (f *fakeStore) find(match func(Quotation) bool) (*Quotation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.items) - 1; i >= 0; i-- {
		if match(f.items[i]) {
			q := f.items[i]
			return &q, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) Get(ctx context.Context, id uuid.UUID) (*Quotation, error) {
	return f.find(func(q Quotation) bool { return q.ID == id })
}

func (f *fakeStore) GetByNumber(ctx context.Context, number string) (*Quotation, error) {
	return f.find(func(q Quotation) bool { return strings.EqualFold(q.Number, number) })
}

func (f *fakeStore) FindBySourceRequest(ctx context.Context, id uuid.UUID, number string) (*Quotation, error) {
	number = strings.ToUpper(number)
	return f.find(func(q Quotation) bool {
		l := linkageOf(q)
		if id != uuid.Nil && (l.SourceRequestID == id || slices.Contains(l.LinkRequestIDs, id)) {
			return true
		}
		return number != "" && (strings.EqualFold(l.SourceRequestNumber, number) || slices.Contains(l.LinkNumbers, number))
	})
}

func linkageOf(q Quotation) Linkage {
	l := Linkage{SourceRequestID: q.SourceRequestID, SourceRequestNumber: q.SourceRequestNumber}
	for _, link := range q.Links {
		l.LinkRequestIDs = append(l.LinkRequestIDs, link.RequestID)
		l.LinkNumbers = append(l.LinkNumbers, strings.ToUpper(link.RequestNumber))
	}
	return l
}

func (f *fakeStore) FindLinkage(ctx context.Context, ids []uuid.UUID, numbers []string) ([]Linkage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Linkage
	for _, q := range f.items {
		l := linkageOf(q)
		hit := slices.Contains(ids, l.SourceRequestID) || slices.Contains(numbers, l.SourceRequestNumber)
		for _, id := range l.LinkRequestIDs {
			hit = hit || slices.Contains(ids, id)
		}
		for _, n := range l.LinkNumbers {
			hit = hit || slices.Contains(numbers, n)
		}
		if hit {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) List(ctx context.Context, req ListRequest) ([]Quotation, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Quotation
	for _, q := range f.items {
		if req.Search == "" || strings.Contains(q.Number, req.Search) {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return out, len(out), nil
}

func (f *fakeStore) SetDocument(ctx context.Context, id uuid.UUID, doc storage.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Document = &doc
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}
