package catalog

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rohitnair-dev/storefront-backend/pkg/db/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL,
  inventory INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(products).Error)
	return db
}

func mustCreateProduct(t *testing.T, db *gorm.DB, name, slug, price string, inventory int, active bool) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		Price:     decimal.RequireFromString(price),
		Inventory: inventory,
		IsActive:  active,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(product).Error)
	return product
}
