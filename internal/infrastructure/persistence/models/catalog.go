package models

import (
	"time"

	"github.com/wmsexpress/backend/internal/domain/warehouse"
)

// ClientModel is a row of the clients table.
type ClientModel struct {
	ID        int    `gorm:"primaryKey;autoIncrement:false"`
	Name      string `gorm:"type:varchar(200);not null"`
	Position  int    `gorm:"not null;default:0;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// PurchaseOrderModel is a row of the purchase_orders table.
type PurchaseOrderModel struct {
	ID        string `gorm:"type:varchar(50);primaryKey"`
	ClientID  int    `gorm:"not null;index"`
	Position  int    `gorm:"not null;default:0"`
	CreatedAt time.Time
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// WarehouseReceiptModel is a row of the warehouse_receipts table.
type WarehouseReceiptModel struct {
	ID              string  `gorm:"type:varchar(50);primaryKey"`
	ClientID        int     `gorm:"not null;index"`
	PurchaseOrderID *string `gorm:"type:varchar(50);uniqueIndex"`
	Position        int     `gorm:"not null;default:0"`
	CreatedAt       time.Time
}

// TableName returns the table name for GORM
func (WarehouseReceiptModel) TableName() string {
	return "warehouse_receipts"
}

// CatalogModels lists every catalog model in dependency order.
func CatalogModels() []any {
	return []any{&ClientModel{}, &PurchaseOrderModel{}, &WarehouseReceiptModel{}}
}

// CatalogRows is the full row set of the three catalog tables.
type CatalogRows struct {
	Clients        []ClientModel
	PurchaseOrders []PurchaseOrderModel
	Receipts       []WarehouseReceiptModel
}

// FromDataset flattens a dataset into rows, recording list order in Position.
func FromDataset(ds warehouse.Dataset) CatalogRows {
	linked := make(map[string]string, len(ds.Links))
	for _, l := range ds.Links {
		linked[l.Receipt] = l.PurchaseOrder
	}

	var rows CatalogRows
	for i, c := range ds.Clients {
		rows.Clients = append(rows.Clients, ClientModel{ID: c.ID, Name: c.Name, Position: i})
		for j, po := range c.PurchaseOrders {
			rows.PurchaseOrders = append(rows.PurchaseOrders, PurchaseOrderModel{ID: po, ClientID: c.ID, Position: j})
		}
		for j, wr := range c.Receipts {
			row := WarehouseReceiptModel{ID: wr, ClientID: c.ID, Position: j}
			if po, ok := linked[wr]; ok {
				row.PurchaseOrderID = &po
			}
			rows.Receipts = append(rows.Receipts, row)
		}
	}
	return rows
}

// ToDataset rebuilds a dataset from rows. Each slice must already be ordered by
// position; rows of unknown clients are kept under a client entry so that
// catalog validation can reject them.
func (r CatalogRows) ToDataset() warehouse.Dataset {
	index := make(map[int]int, len(r.Clients))
	ds := warehouse.Dataset{
		Clients: make([]warehouse.Client, 0, len(r.Clients)),
		Links:   []warehouse.ReceiptLink{},
	}
	clientAt := func(id int) *warehouse.Client {
		i, ok := index[id]
		if !ok {
			i = len(ds.Clients)
			index[id] = i
			ds.Clients = append(ds.Clients, warehouse.Client{ID: id, Receipts: []string{}, PurchaseOrders: []string{}})
		}
		return &ds.Clients[i]
	}

	for _, c := range r.Clients {
		clientAt(c.ID).Name = c.Name
	}
	for _, po := range r.PurchaseOrders {
		c := clientAt(po.ClientID)
		c.PurchaseOrders = append(c.PurchaseOrders, po.ID)
	}
	for _, wr := range r.Receipts {
		c := clientAt(wr.ClientID)
		c.Receipts = append(c.Receipts, wr.ID)
		if wr.PurchaseOrderID != nil {
			ds.Links = append(ds.Links, warehouse.ReceiptLink{Receipt: wr.ID, PurchaseOrder: *wr.PurchaseOrderID})
		}
	}
	return ds
}
