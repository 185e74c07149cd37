package lookup

import (
	"github.com/wmsexpress/backend/internal/domain/receipt"
	"github.com/wmsexpress/backend/internal/domain/scan"
	"github.com/wmsexpress/backend/internal/domain/warehouse"
)

// ClientRef identifies a client in outcomes
type ClientRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ClientResponse is one entry of the client picker
type ClientResponse struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	IsAllClients bool   `json:"is_all_clients"`
	ReceiptCount int    `json:"receipt_count"`
	LastReceipt  string `json:"last_receipt,omitempty"`
}

// ReceiptItem is one row of a receipt list
type ReceiptItem struct {
	ID            string `json:"id"`
	PurchaseOrder string `json:"purchase_order,omitempty"`
	Highlighted   bool   `json:"highlighted"`
	Latest        bool   `json:"latest"`
}

// ReceiptListResponse is the receipt list of the selected client
type ReceiptListResponse struct {
	ClientID   int           `json:"client_id"`
	ClientName string        `json:"client_name"`
	Title      string        `json:"title"`
	Receipts   []ReceiptItem `json:"receipts"`
}

// DashboardEntry is one client row of the "All Clients" dashboard
type DashboardEntry struct {
	ClientID    int    `json:"client_id"`
	ClientName  string `json:"client_name"`
	LastReceipt string `json:"last_receipt"`
}

// DashboardResponse is the home screen card. Latest is filled for "All Clients",
// Receipts for a single client.
type DashboardResponse struct {
	ClientID int              `json:"client_id"`
	Title    string           `json:"title"`
	Latest   []DashboardEntry `json:"latest,omitempty"`
	Receipts []ReceiptItem    `json:"receipts,omitempty"`
}

// SelectionDTO is the caller-held selection passed with each lookup
type SelectionDTO struct {
	ClientID    int    `json:"client_id"`
	Highlighted string `json:"highlighted,omitempty"`
}

// ToSelection converts to the domain value
func (s SelectionDTO) ToSelection() warehouse.Selection {
	return warehouse.Selection{ClientID: s.ClientID, Highlighted: s.Highlighted}
}

// ToSelectionDTO converts from the domain value
func ToSelectionDTO(s warehouse.Selection) SelectionDTO {
	return SelectionDTO{ClientID: s.ClientID, Highlighted: s.Highlighted}
}

// ResolveRequest is a typed search
type ResolveRequest struct {
	Query     string       `json:"query"`
	Selection SelectionDTO `json:"selection"`
}

// OutcomeResponse is a resolution result. Client and Identifier are set only when Kind is FOUND.
type OutcomeResponse struct {
	Kind       string     `json:"kind"`
	Query      string     `json:"query,omitempty"`
	Client     *ClientRef `json:"client,omitempty"`
	Identifier string     `json:"identifier,omitempty"`
}

// ToOutcomeResponse converts a domain outcome
func ToOutcomeResponse(o warehouse.Outcome) OutcomeResponse {
	resp := OutcomeResponse{Kind: o.Kind.String(), Query: o.Query}
	if o.IsFound() {
		resp.Client = &ClientRef{ID: o.Client.ID, Name: o.Client.Name}
		resp.Identifier = o.Identifier
	}
	return resp
}

// ResolveResponse carries the outcome and the selection after applying it
type ResolveResponse struct {
	Outcome   OutcomeResponse `json:"outcome"`
	Selection SelectionDTO    `json:"selection"`
}

// MoveLookupResponse is the stock move form prefill for a query
type MoveLookupResponse struct {
	Kind           string     `json:"kind"`
	Query          string     `json:"query,omitempty"`
	Client         *ClientRef `json:"client,omitempty"`
	Receipt        string     `json:"receipt,omitempty"`
	PurchaseOrder  string     `json:"purchase_order,omitempty"`
	PurchaseOrders []string   `json:"purchase_orders,omitempty"`
}

// ScanRequest is one camera frame
type ScanRequest struct {
	Viewport   scan.Viewport    `json:"viewport"`
	Detections []scan.Detection `json:"detections"`
	Selection  SelectionDTO     `json:"selection"`
}

// AreaResponse is the scan square in viewport pixels
type AreaResponse struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// ScanResult is the outcome for one accepted detection
type ScanResult struct {
	Detection scan.Detection  `json:"detection"`
	Outcome   OutcomeResponse `json:"outcome"`
}

// ScanResponse lists the per-detection outcomes of a frame and the resulting selection
type ScanResponse struct {
	Area      AreaResponse `json:"area"`
	Accepted  int          `json:"accepted"`
	Rejected  int          `json:"rejected"`
	Results   []ScanResult `json:"results"`
	Selection SelectionDTO `json:"selection"`
}

// MoveResponse acknowledges a validated stock move
type MoveResponse struct {
	ClientID      int    `json:"client_id"`
	ClientName    string `json:"client_name"`
	PurchaseOrder string `json:"purchase_order"`
	Location      string `json:"location"`
	EmployeeID    string `json:"employee_id"`
	Persisted     bool   `json:"persisted"`
}

// UpdateResponse acknowledges a validated receipt edit
type UpdateResponse struct {
	Detail    receipt.Detail `json:"detail"`
	Persisted bool           `json:"persisted"`
}
