package persistence

import (
	"context"
	"fmt"

	"github.com/wmsexpress/backend/internal/domain/warehouse"
	"github.com/wmsexpress/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// CatalogRepository reads and writes the warehouse catalog tables.
type CatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new CatalogRepository
func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// AutoMigrate creates the catalog tables from the models. Postgres deployments
// use the SQL migrations instead.
func (r *CatalogRepository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(models.CatalogModels()...); err != nil {
		return fmt.Errorf("failed to migrate catalog tables: %w", err)
	}
	return nil
}

// Load reads a snapshot of the catalog. The dataset is not validated; pass it
// to warehouse.NewCatalog.
func (r *CatalogRepository) Load(ctx context.Context) (warehouse.Dataset, error) {
	db := r.db.WithContext(ctx)
	var rows models.CatalogRows

	if err := db.Order("position, id").Find(&rows.Clients).Error; err != nil {
		return warehouse.Dataset{}, fmt.Errorf("failed to load clients: %w", err)
	}
	if err := db.Order("client_id, position").Find(&rows.PurchaseOrders).Error; err != nil {
		return warehouse.Dataset{}, fmt.Errorf("failed to load purchase orders: %w", err)
	}
	if err := db.Order("client_id, position").Find(&rows.Receipts).Error; err != nil {
		return warehouse.Dataset{}, fmt.Errorf("failed to load warehouse receipts: %w", err)
	}

	return rows.ToDataset(), nil
}

// Replace overwrites the catalog tables with ds in a single transaction.
func (r *CatalogRepository) Replace(ctx context.Context, ds warehouse.Dataset) error {
	rows := models.FromDataset(ds)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := gorm.Session{AllowGlobalUpdate: true}
		if err := tx.Session(&all).Delete(&models.WarehouseReceiptModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear warehouse receipts: %w", err)
		}
		if err := tx.Session(&all).Delete(&models.PurchaseOrderModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear purchase orders: %w", err)
		}
		if err := tx.Session(&all).Delete(&models.ClientModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear clients: %w", err)
		}

		if len(rows.Clients) > 0 {
			if err := tx.Create(&rows.Clients).Error; err != nil {
				return fmt.Errorf("failed to insert clients: %w", err)
			}
		}
		if len(rows.PurchaseOrders) > 0 {
			if err := tx.Create(&rows.PurchaseOrders).Error; err != nil {
				return fmt.Errorf("failed to insert purchase orders: %w", err)
			}
		}
		if len(rows.Receipts) > 0 {
			if err := tx.Create(&rows.Receipts).Error; err != nil {
				return fmt.Errorf("failed to insert warehouse receipts: %w", err)
			}
		}
		return nil
	})
}
