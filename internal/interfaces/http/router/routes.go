package router

import (
	"github.com/wmsexpress/backend/internal/interfaces/http/handler"
)

// Handlers bundles the handlers served under the versioned API group
type Handlers struct {
	Lookup  *handler.LookupHandler
	Receipt *handler.ReceiptHandler
	System  *handler.SystemHandler
}

// APIGroups builds the route groups of the lookup API
func APIGroups(h Handlers) []*DomainGroup {
	clients := NewDomainGroup("clients", "/clients").
		GET("", h.Lookup.ListClients).
		GET("/:id/receipts", h.Lookup.ListReceipts)

	dashboard := NewDomainGroup("dashboard", "/dashboard").
		GET("", h.Lookup.Dashboard)

	lookup := NewDomainGroup("lookup", "/lookup").
		POST("/resolve", h.Lookup.Resolve).
		GET("/move", h.Lookup.SearchForMove).
		POST("/scan", h.Lookup.ScanFrame)

	receipts := NewDomainGroup("receipts", "/receipts").
		GET("/:id", h.Receipt.Get).
		PUT("/:id", h.Receipt.Update)

	moves := NewDomainGroup("stock-moves", "/stock-moves").
		POST("", h.Receipt.MoveStock)

	health := NewDomainGroup("health", "/health").
		GET("", h.System.Health)

	return []*DomainGroup{clients, dashboard, lookup, receipts, moves, health}
}

// RegisterAPI registers every API group on the router
func (r *Router) RegisterAPI(h Handlers) *Router {
	for _, g := range APIGroups(h) {
		r.Register(g)
	}
	return r
}
