// Package clients is a read-only view over registered client accounts.
package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joulek/Backend-mtr/internal/platform/db"
	"github.com/joulek/Backend-mtr/internal/platform/httpx"
)

// ErrNotFound is returned for unknown client ids.
var ErrNotFound = fmt.Errorf("client %w", httpx.ErrNotFound)

// Client is the contact data used on quotations and notifications.
type Client struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	TaxID     string    `json:"tax_id"`
}

// DisplayName joins first and last name, falling back to the email address.
func (c Client) DisplayName() string {
	title := cases.Title(language.French)
	name := strings.TrimSpace(title.String(strings.TrimSpace(c.FirstName)) + " " + strings.ToUpper(strings.TrimSpace(c.LastName)))
	if name == "" {
		return c.Email
	}
	return name
}

// Directory looks clients up by id.
type Directory struct {
	db db.DBTX
}

// NewDirectory builds the pgx-backed directory.
func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{db: pool}
}

// Lookup returns the client with the given id.
func (d *Directory) Lookup(ctx context.Context, id uuid.UUID) (*Client, error) {
	var c Client
	err := d.db.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, address, phone, tax_id
		FROM clients WHERE id = $1`, id).
		Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Address, &c.Phone, &c.TaxID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup client: %w", err)
	}
	return &c, nil
}
