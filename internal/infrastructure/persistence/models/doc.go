// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from the warehouse domain types so the domain stays
// free of ORM concerns.
//
// Key Principles:
// 1. Domain types carry no GORM tags
// 2. Persistence models hold all GORM annotations and table mappings
// 3. FromDataset and CatalogRows.ToDataset convert between the two
// 4. Position columns preserve the catalog's display order
//
// Tables:
// - clients
// - purchase_orders
// - warehouse_receipts (optional unique link to a purchase order)
package models
