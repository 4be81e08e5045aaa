package reclamations

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joulek/Backend-mtr/internal/platform/httpx"
	"github.com/joulek/Backend-mtr/internal/platform/storage"
	"github.com/joulek/Backend-mtr/internal/shared"
)

type memRepository struct {
	mu       sync.Mutex
	items    map[uuid.UUID]Reclamation
	failNext error
}

func newMemRepository() *memRepository {
	return &memRepository{items: make(map[uuid.UUID]Reclamation)}
}

func (m *memRepository) Insert(ctx context.Context, rec *Reclamation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().Add(time.Duration(len(m.items)) * time.Millisecond)
	}
	m.items[rec.ID] = *rec
	return nil
}

func (m *memRepository) Get(ctx context.Context, id uuid.UUID) (*Reclamation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &rec, nil
}

func (m *memRepository) List(ctx context.Context, req ListRequest) ([]Reclamation, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Reclamation
	for _, item := range m.items {
		if req.OwnerID != nil && item.OwnerID != *req.OwnerID {
			continue
		}
		if req.Search != "" && !strings.Contains(strings.ToLower(item.Number), strings.ToLower(req.Search)) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := len(out)
	start := (req.Page - 1) * req.PerPage
	if start > len(out) {
		start = len(out)
	}
	end := start + req.PerPage
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (m *memRepository) SetGeneratedDocument(ctx context.Context, id uuid.UUID, doc storage.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	rec.GeneratedDocument = &doc
	m.items[id] = rec
	return nil
}

type seqAllocator struct {
	mu   sync.Mutex
	next int
	err  error
}

func (a *seqAllocator) Next(ctx context.Context, family string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	a.next++
	return fmt.Sprintf("R25%05d", a.next), nil
}

type memFiles struct {
	mu      sync.Mutex
	saved   map[string][]byte
	deleted []string
}

func newMemFiles() *memFiles {
	return &memFiles{saved: make(map[string][]byte)}
}

func (f *memFiles) Save(locator string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[locator] = data
	return locator, nil
}

func (f *memFiles) Delete(locator string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, locator)
	f.deleted = append(f.deleted, locator)
	return nil
}

type recordingDispatcher struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (d *recordingDispatcher) ReclamationFiled(ctx context.Context, id uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, id)
	return nil
}

type serviceFixture struct {
	svc        *Service
	repo       *memRepository
	numbers    *seqAllocator
	files      *memFiles
	dispatcher *recordingDispatcher
	client     shared.Actor
	admin      shared.Actor
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		repo:       newMemRepository(),
		numbers:    &seqAllocator{},
		files:      newMemFiles(),
		dispatcher: &recordingDispatcher{},
		client:     shared.Actor{ID: uuid.New(), Role: shared.RoleClient},
		admin:      shared.Actor{ID: uuid.New(), Role: shared.RoleAdmin},
	}
	f.svc = NewService(f.repo, f.numbers, f.files, f.dispatcher, nil)
	return f
}

func validInput() CreateInput {
	qty := 12
	return CreateInput{
		Order: OrderRef{
			DocumentType:     DocumentDelivery,
			Number:           " BL-2025-118 ",
			DeliveryDate:     "2025-03-04",
			ProductReference: "RC-21",
			Quantity:         &qty,
		},
		Nature:      NatureNonConformity,
		Expectation: ExpectationReplacement,
		Description: "Spires déformées sur 3 pièces.",
	}
}

func TestCreateStoresClaimAndAttachments(t *testing.T) {
	f := newServiceFixture()
	in := validInput()
	in.Files = []storage.Upload{
		{Filename: "photo 1.jpg", MediaType: "image/jpeg", Data: []byte("jpeg")},
		{Filename: "bl.pdf", MediaType: "application/pdf", Data: []byte("%PDF")},
	}

	rec, err := f.svc.Create(context.Background(), f.client, in)
	require.NoError(t, err)

	assert.Equal(t, "R2500001", rec.Number)
	assert.Equal(t, f.client.ID, rec.OwnerID)
	assert.Equal(t, "BL-2025-118", rec.Order.Number)
	require.Len(t, rec.Attachments, 2)
	assert.Equal(t, "reclamations/R2500001/01-photo_1.jpg", rec.Attachments[0].Locator)
	assert.Equal(t, int64(4), rec.Attachments[1].Size)
	assert.Contains(t, f.files.saved, "reclamations/R2500001/02-bl.pdf")
	assert.Equal(t, []uuid.UUID{rec.ID}, f.dispatcher.ids)

	stored, err := f.repo.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, NatureNonConformity, stored.Nature)
}

func TestCreateRequiresActor(t *testing.T) {
	f := newServiceFixture()
	_, err := f.svc.Create(context.Background(), shared.Actor{}, validInput())
	require.ErrorIs(t, err, httpx.ErrUnauthorized)
	assert.Zero(t, f.numbers.next)
}

func TestCreateValidation(t *testing.T) {
	cases := map[string]func(in *CreateInput){
		"missing document type":  func(in *CreateInput) { in.Order.DocumentType = "" },
		"unknown document type":  func(in *CreateInput) { in.Order.DocumentType = "ticket" },
		"missing order number":   func(in *CreateInput) { in.Order.Number = "   " },
		"malformed date":         func(in *CreateInput) { in.Order.DeliveryDate = "04/03/2025" },
		"negative quantity":      func(in *CreateInput) { q := -1; in.Order.Quantity = &q },
		"missing nature":         func(in *CreateInput) { in.Nature = "" },
		"unknown nature":         func(in *CreateInput) { in.Nature = "colour" },
		"unknown expectation":    func(in *CreateInput) { in.Expectation = "discount" },
		"too many files":         func(in *CreateInput) { in.Files = make([]storage.Upload, MaxFiles+1) },
		"description over limit": func(in *CreateInput) { in.Description = strings.Repeat("x", 4001) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newServiceFixture()
			in := validInput()
			mutate(&in)
			_, err := f.svc.Create(context.Background(), f.client, in)
			require.ErrorIs(t, err, httpx.ErrValidation)
			assert.Zero(t, f.numbers.next, "no number burned on invalid input")
		})
	}
}

func TestCreateRejectsOversizedFile(t *testing.T) {
	f := newServiceFixture()
	in := validInput()
	in.Files = []storage.Upload{{Filename: "scan.tif", Data: make([]byte, MaxFileSize+1)}}
	_, err := f.svc.Create(context.Background(), f.client, in)
	require.ErrorIs(t, err, httpx.ErrTooLarge)
	assert.Empty(t, f.files.saved)
}

func TestCreateResolvesOtherChoices(t *testing.T) {
	f := newServiceFixture()
	in := validInput()
	in.Nature = "Autre"
	in.NaturePrecision = "  Couleur du revêtement "
	in.Expectation = ExpectationOther
	in.Description = "Lot livré incomplet | Précisez votre attente : Geste commercial | merci"

	rec, err := f.svc.Create(context.Background(), f.client, in)
	require.NoError(t, err)
	assert.Equal(t, "Couleur du revêtement", rec.Nature)
	assert.Equal(t, "Geste commercial", rec.Expectation)
}

func TestCreateDiscardsFilesWhenInsertFails(t *testing.T) {
	f := newServiceFixture()
	f.repo.failNext = errors.New("connection reset")
	in := validInput()
	in.Files = []storage.Upload{{Filename: "a.png", Data: []byte("png")}}

	_, err := f.svc.Create(context.Background(), f.client, in)
	require.Error(t, err)
	assert.Empty(t, f.files.saved)
	assert.Equal(t, []string{"reclamations/R2500001/01-a.png"}, f.files.deleted)
	assert.Empty(t, f.dispatcher.ids)
}

func TestCreatePropagatesAllocatorFailure(t *testing.T) {
	f := newServiceFixture()
	f.numbers.err = errors.New("redis down")
	_, err := f.svc.Create(context.Background(), f.client, validInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allocate reclamation number")
}

func TestGetEnforcesOwnership(t *testing.T) {
	f := newServiceFixture()
	rec, err := f.svc.Create(context.Background(), f.client, validInput())
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), shared.Actor{ID: uuid.New(), Role: shared.RoleClient}, rec.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	got, err := f.svc.Get(context.Background(), f.admin, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Number, got.Number)

	_, err = f.svc.Get(context.Background(), f.admin, uuid.New())
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestListMineOnlyReturnsOwnClaims(t *testing.T) {
	f := newServiceFixture()
	other := shared.Actor{ID: uuid.New(), Role: shared.RoleClient}
	for i := 0; i < 3; i++ {
		_, err := f.svc.Create(context.Background(), f.client, validInput())
		require.NoError(t, err)
	}
	_, err := f.svc.Create(context.Background(), other, validInput())
	require.NoError(t, err)

	page, err := f.svc.ListMine(context.Background(), f.client, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	for _, item := range page.Items {
		assert.Equal(t, f.client.ID, item.OwnerID)
	}

	_, err = f.svc.ListMine(context.Background(), shared.Actor{}, 1, 10)
	require.ErrorIs(t, err, httpx.ErrUnauthorized)
}

func TestSetGeneratedDocument(t *testing.T) {
	f := newServiceFixture()
	rec, err := f.svc.Create(context.Background(), f.client, validInput())
	require.NoError(t, err)

	doc := storage.Document{Locator: "reclamations/R2500001/reclamation-R2500001.pdf", ContentType: "application/pdf", Size: 2048}
	require.NoError(t, f.svc.SetGeneratedDocument(context.Background(), rec.ID, doc))
	got, err := f.svc.Get(context.Background(), f.admin, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got.GeneratedDocument)
	assert.Equal(t, doc, *got.GeneratedDocument)
}
