package warehouse

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// OutcomeKind is the result class of a resolution
type OutcomeKind string

const (
	OutcomeEmpty         OutcomeKind = "EMPTY"
	OutcomeInvalidFormat OutcomeKind = "INVALID_FORMAT"
	OutcomeNotFound      OutcomeKind = "NOT_FOUND"
	OutcomeFound         OutcomeKind = "FOUND"
)

// String returns the string representation of OutcomeKind
func (k OutcomeKind) String() string {
	return string(k)
}

// Outcome is the result of resolving a query. Client and Identifier are only set for OutcomeFound.
type Outcome struct {
	Kind       OutcomeKind
	Query      string
	Client     Client
	Identifier string
}

// IsFound returns true if the query matched a receipt
func (o Outcome) IsFound() bool {
	return o.Kind == OutcomeFound
}

// MoveOutcome is the result of resolving a query for the stock move form
type MoveOutcome struct {
	Kind          OutcomeKind
	Query         string
	Client        Client
	Receipt       string
	PurchaseOrder string
}

// Resolver turns typed or scanned queries into outcomes against a catalog.
// It holds no mutable state.
type Resolver struct {
	catalog *Catalog
}

// NewResolver creates a resolver backed by the catalog
func NewResolver(catalog *Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Catalog returns the catalog the resolver reads from
func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}

// NormalizeQuery trims and upper-cases a raw query
func NormalizeQuery(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	// Caser values keep state and must not be shared between goroutines
	return cases.Upper(language.Und).String(trimmed)
}

func hasKnownPrefix(q string) bool {
	return strings.HasPrefix(q, ReceiptPrefix) || strings.HasPrefix(q, PurchaseOrderPrefix)
}

// candidates returns q and, when it differs, q with the first "PO-" replaced by "WR-"
func candidates(q string) []string {
	substituted := strings.Replace(q, PurchaseOrderPrefix, ReceiptPrefix, 1)
	if substituted == q {
		return []string{q}
	}
	return []string{q, substituted}
}

// Resolve matches a query against every client's receipt list in listing order.
// Purchase order queries are tried as receipts after a textual PO- to WR- substitution.
func (r *Resolver) Resolve(raw string) Outcome {
	q := NormalizeQuery(raw)
	if q == "" {
		return Outcome{Kind: OutcomeEmpty}
	}
	if !hasKnownPrefix(q) {
		return Outcome{Kind: OutcomeInvalidFormat, Query: q}
	}

	cands := candidates(q)
	for _, client := range r.catalog.clients {
		for _, cand := range cands {
			if client.OwnsReceipt(cand) {
				return Outcome{
					Kind:       OutcomeFound,
					Query:      q,
					Client:     client.clone(),
					Identifier: cand,
				}
			}
		}
	}
	return Outcome{Kind: OutcomeNotFound, Query: q}
}

// ResolveForMove resolves a query for the stock move form. Receipts resolve to their owner
// and linked purchase order; purchase orders resolve directly to the client listing them.
func (r *Resolver) ResolveForMove(raw string) MoveOutcome {
	q := NormalizeQuery(raw)
	if q == "" {
		return MoveOutcome{Kind: OutcomeEmpty}
	}

	switch KindOf(q) {
	case IdentifierKindReceipt:
		receipt, ok := r.catalog.Receipt(q)
		if !ok {
			return MoveOutcome{Kind: OutcomeNotFound, Query: q}
		}
		client, _ := r.catalog.Client(receipt.ClientID)
		return MoveOutcome{
			Kind:          OutcomeFound,
			Query:         q,
			Client:        client,
			Receipt:       receipt.ID,
			PurchaseOrder: receipt.PurchaseOrder,
		}
	case IdentifierKindPurchaseOrder:
		for _, client := range r.catalog.clients {
			if client.OwnsPurchaseOrder(q) {
				return MoveOutcome{
					Kind:          OutcomeFound,
					Query:         q,
					Client:        client.clone(),
					PurchaseOrder: q,
				}
			}
		}
		return MoveOutcome{Kind: OutcomeNotFound, Query: q}
	}
	return MoveOutcome{Kind: OutcomeInvalidFormat, Query: q}
}
