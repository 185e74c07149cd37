package warehouse

import (
	"fmt"
	"slices"
	"strings"

	"github.com/wmsexpress/backend/internal/domain/shared"
)

// Dataset is the raw input a Catalog is built from.
// Clients must not include the "All Clients" pseudo-client; it is added by NewCatalog.
type Dataset struct {
	Clients []Client
	Links   []ReceiptLink
}

// Catalog is the immutable Client / PurchaseOrder / WarehouseReceipt graph.
// All methods are read-only and safe for concurrent use.
type Catalog struct {
	clients        []Client
	clientIndex    map[int]int
	receipts       map[string]WarehouseReceipt
	purchaseOrders map[string]PurchaseOrder
}

// NewCatalog validates the dataset and builds a catalog from it
func NewCatalog(ds Dataset) (*Catalog, error) {
	c := &Catalog{
		clients:        make([]Client, 0, len(ds.Clients)+1),
		clientIndex:    make(map[int]int, len(ds.Clients)+1),
		receipts:       make(map[string]WarehouseReceipt),
		purchaseOrders: make(map[string]PurchaseOrder),
	}

	c.clients = append(c.clients, Client{ID: AllClientsID, Name: AllClientsName})
	c.clientIndex[AllClientsID] = 0

	for _, client := range ds.Clients {
		if err := c.addClient(client); err != nil {
			return nil, err
		}
	}

	for _, link := range ds.Links {
		if err := c.link(link); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Catalog) addClient(client Client) error {
	if client.ID == AllClientsID {
		return invalidCatalog("client id %d is reserved for %q", AllClientsID, AllClientsName)
	}
	if _, exists := c.clientIndex[client.ID]; exists {
		return invalidCatalog("duplicate client id %d", client.ID)
	}
	if strings.TrimSpace(client.Name) == "" {
		return invalidCatalog("client %d has an empty name", client.ID)
	}

	for _, id := range client.Receipts {
		if !IsReceiptID(id) {
			return invalidCatalog("client %d: malformed receipt identifier %q", client.ID, id)
		}
		if err := c.checkUnused(id); err != nil {
			return err
		}
		c.receipts[id] = WarehouseReceipt{ID: id, ClientID: client.ID}
	}
	for _, id := range client.PurchaseOrders {
		if !IsPurchaseOrderID(id) {
			return invalidCatalog("client %d: malformed purchase order identifier %q", client.ID, id)
		}
		if err := c.checkUnused(id); err != nil {
			return err
		}
		c.purchaseOrders[id] = PurchaseOrder{ID: id, ClientID: client.ID}
	}

	c.clientIndex[client.ID] = len(c.clients)
	c.clients = append(c.clients, client.clone())
	return nil
}

func (c *Catalog) checkUnused(id string) error {
	_, isReceipt := c.receipts[id]
	_, isPO := c.purchaseOrders[id]
	if isReceipt || isPO {
		return invalidCatalog("identifier %q is owned more than once", id)
	}
	return nil
}

func (c *Catalog) link(l ReceiptLink) error {
	receipt, ok := c.receipts[l.Receipt]
	if !ok {
		return invalidCatalog("link references unknown receipt %q", l.Receipt)
	}
	po, ok := c.purchaseOrders[l.PurchaseOrder]
	if !ok {
		return invalidCatalog("link references unknown purchase order %q", l.PurchaseOrder)
	}
	if receipt.HasPurchaseOrder() {
		return invalidCatalog("receipt %q is already linked to %q", receipt.ID, receipt.PurchaseOrder)
	}
	if receipt.ClientID != po.ClientID {
		return invalidCatalog("receipt %q (client %d) cannot link purchase order %q (client %d)",
			receipt.ID, receipt.ClientID, po.ID, po.ClientID)
	}
	receipt.PurchaseOrder = po.ID
	c.receipts[receipt.ID] = receipt
	return nil
}

func invalidCatalog(format string, args ...any) error {
	return shared.NewDomainError(shared.ErrInvalidCatalog.Code, fmt.Sprintf(format, args...))
}

// ListClients returns every client in listing order, "All Clients" first
func (c *Catalog) ListClients() []Client {
	out := make([]Client, len(c.clients))
	for i, client := range c.clients {
		out[i] = client.clone()
	}
	return out
}

// Client returns the client with the given id
func (c *Catalog) Client(id int) (Client, bool) {
	idx, ok := c.clientIndex[id]
	if !ok {
		return Client{}, false
	}
	return c.clients[idx].clone(), true
}

// ReceiptsFor returns the receipts owned by the client. For AllClientsID it returns
// every other client's receipts flattened in listing order. Unknown ids yield an empty slice.
func (c *Catalog) ReceiptsFor(clientID int) []string {
	if clientID == AllClientsID {
		var all []string
		for _, client := range c.clients[1:] {
			all = append(all, client.Receipts...)
		}
		if all == nil {
			return []string{}
		}
		return all
	}
	idx, ok := c.clientIndex[clientID]
	if !ok {
		return []string{}
	}
	return slices.Clone(c.clients[idx].Receipts)
}

// PurchaseOrdersFor returns the purchase orders owned by the client, flattened for AllClientsID
func (c *Catalog) PurchaseOrdersFor(clientID int) []string {
	if clientID == AllClientsID {
		var all []string
		for _, client := range c.clients[1:] {
			all = append(all, client.PurchaseOrders...)
		}
		if all == nil {
			return []string{}
		}
		return all
	}
	idx, ok := c.clientIndex[clientID]
	if !ok {
		return []string{}
	}
	return slices.Clone(c.clients[idx].PurchaseOrders)
}

// FindOwner returns the client owning the receipt or purchase order identifier.
// Clients are scanned in listing order and the first owner wins.
func (c *Catalog) FindOwner(identifier string) (Client, bool) {
	for _, client := range c.clients {
		if client.OwnsReceipt(identifier) || client.OwnsPurchaseOrder(identifier) {
			return client.clone(), true
		}
	}
	return Client{}, false
}

// Receipt returns the receipt record, including its linked purchase order
func (c *Catalog) Receipt(id string) (WarehouseReceipt, bool) {
	r, ok := c.receipts[id]
	return r, ok
}

// PurchaseOrder returns the purchase order record
func (c *Catalog) PurchaseOrder(id string) (PurchaseOrder, bool) {
	po, ok := c.purchaseOrders[id]
	return po, ok
}

// LastReceipt returns the last receipt of the client, "" for the pseudo-client or unknown ids
func (c *Catalog) LastReceipt(clientID int) string {
	client, ok := c.Client(clientID)
	if !ok {
		return ""
	}
	return client.LastReceipt()
}
