package report

import (
	"context"
	"fmt"
)

// Supported PDF engines.
const (
	EngineFPDF      = "fpdf"
	EngineGotenberg = "gotenberg"
)

// Renderer turns a document layout into PDF bytes.
type Renderer interface {
	Render(ctx context.Context, doc Document) ([]byte, error)
}

// NewRenderer selects the engine. Gotenberg needs a base URL.
func NewRenderer(engine, gotenbergURL string) (Renderer, error) {
	switch engine {
	case "", EngineFPDF:
		return NewFPDFRenderer(), nil
	case EngineGotenberg:
		if gotenbergURL == "" {
			return nil, fmt.Errorf("report: %s engine requires GOTENBERG_URL", EngineGotenberg)
		}
		return NewGotenbergRenderer(NewClient(gotenbergURL)), nil
	}
	return nil, fmt.Errorf("report: unknown PDF engine %q", engine)
}
