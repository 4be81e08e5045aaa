package specrequests

import (
	"fmt"
	"strings"

	"github.com/joulek/Backend-mtr/internal/platform/httpx"
)

// Kind tags the specialization schema of a request.
type Kind string

const (
	KindCompression Kind = "compression"
	KindTraction    Kind = "traction"
	KindTorsion     Kind = "torsion"
	KindWire        Kind = "wire"
	KindGrid        Kind = "grid"
	KindOther       Kind = "other"
)

// AllKinds is the fixed iteration order used for lookups and aggregation.
var AllKinds = []Kind{KindCompression, KindTraction, KindTorsion, KindWire, KindGrid, KindOther}

var kindLabels = map[Kind]string{
	KindCompression: "Ressort de compression",
	KindTraction:    "Ressort de traction",
	KindTorsion:     "Ressort de torsion",
	KindWire:        "Fil dressé",
	KindGrid:        "Grille métallique",
	KindOther:       "Autre article",
}

// legacy form slugs still sent by older clients
var kindAliases = map[string]Kind{
	"fil":    KindWire,
	"grille": KindGrid,
	"autre":  KindOther,
}

// ParseKind reads a kind from a path segment.
func ParseKind(raw string) (Kind, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if k, ok := kindAliases[s]; ok {
		return k, nil
	}
	k := Kind(s)
	if _, ok := kindLabels[k]; !ok {
		return "", fmt.Errorf("%w: unknown request kind %q", httpx.ErrValidation, raw)
	}
	return k, nil
}

// Label is the human name printed on documents.
func (k Kind) Label() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return string(k)
}

// Table is the storage table holding requests of this kind.
func (k Kind) Table() string {
	return "requests_" + string(k)
}
