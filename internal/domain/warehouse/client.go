package warehouse

import "slices"

// AllClientsID is the id of the "All Clients" pseudo-client
const AllClientsID = 0

// AllClientsName is the display name of the "All Clients" pseudo-client
const AllClientsName = "All Clients"

// Client owns an ordered list of warehouse receipts and purchase orders
type Client struct {
	ID             int
	Name           string
	Receipts       []string
	PurchaseOrders []string
}

// IsAllClients returns true for the aggregating pseudo-client
func (c Client) IsAllClients() bool {
	return c.ID == AllClientsID
}

// OwnsReceipt returns true if the receipt is in the client's receipt list
func (c Client) OwnsReceipt(receiptID string) bool {
	return slices.Contains(c.Receipts, receiptID)
}

// OwnsPurchaseOrder returns true if the purchase order is in the client's PO list
func (c Client) OwnsPurchaseOrder(poID string) bool {
	return slices.Contains(c.PurchaseOrders, poID)
}

// LastReceipt returns the most recently assigned receipt of the client, or "" when it owns none
func (c Client) LastReceipt() string {
	if len(c.Receipts) == 0 {
		return ""
	}
	return c.Receipts[len(c.Receipts)-1]
}

func (c Client) clone() Client {
	return Client{
		ID:             c.ID,
		Name:           c.Name,
		Receipts:       slices.Clone(c.Receipts),
		PurchaseOrders: slices.Clone(c.PurchaseOrders),
	}
}

// WarehouseReceipt is a receipt owned by one client, optionally linked to one of its purchase orders
type WarehouseReceipt struct {
	ID            string
	ClientID      int
	PurchaseOrder string
}

// HasPurchaseOrder returns true when the receipt is linked to a purchase order
func (r WarehouseReceipt) HasPurchaseOrder() bool {
	return r.PurchaseOrder != ""
}

// PurchaseOrder is a purchase order owned by one client
type PurchaseOrder struct {
	ID       string
	ClientID int
}

// ReceiptLink ties a receipt to its purchase order
type ReceiptLink struct {
	Receipt       string
	PurchaseOrder string
}
