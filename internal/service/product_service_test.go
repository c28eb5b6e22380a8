package service

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/scentshop/internal/constants"

	"github.com/shopspring/decimal"
)

func TestCreateProductSeedsAllSizes(t *testing.T) {
	f := newShopFixture(t)
	product := f.createProduct(t, "Oud  Royale!", 4)

	if product.InventoryQty != 12 {
		t.Fatalf("expected inventory 12, got %d", product.InventoryQty)
	}
	if len(product.BottleSizes) != 3 {
		t.Fatalf("expected 3 bottle sizes, got %d", len(product.BottleSizes))
	}
	for _, size := range product.BottleSizes {
		if size.Stock != 4 || !size.Enabled {
			t.Fatalf("unexpected size row: %+v", size)
		}
	}
	if want := buildProductSlug("Oud  Royale!", product.ID); product.Slug != want || want != "oud-royale-"+strconv.FormatUint(uint64(product.ID), 10) {
		t.Fatalf("unexpected slug %q", product.Slug)
	}
	price, ok := product.Prices.Lookup(3)
	if !ok || !price.Original.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("expected 3ml price 350, got %+v", price)
	}

	empty := f.createProduct(t, "Sold Out", 0)
	for _, size := range empty.BottleSizes {
		if size.Enabled {
			t.Fatalf("zero stock sizes must be disabled")
		}
	}
}

func TestUpdateStockRules(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	product := f.createProduct(t, "Ambergris", 0)
	enable := true
	disable := false

	if _, err := f.productService.UpdateStock(ctx, f.admin, product.ID, StockUpdateInput{SizeMl: 6, Stock: 0, Enabled: &enable}); !errors.Is(err, ErrEnableEmptySize) {
		t.Fatalf("expected ErrEnableEmptySize, got %v", err)
	}

	updated, err := f.productService.UpdateStock(ctx, f.admin, product.ID, StockUpdateInput{SizeMl: 6, Stock: 5})
	if err != nil {
		t.Fatalf("restock failed: %v", err)
	}
	if size := updated.BottleSize(6); size.Stock != 5 || !size.Enabled {
		t.Fatalf("restock from zero should auto-enable: %+v", size)
	}
	if updated.InventoryQty != 5 {
		t.Fatalf("expected inventory 5, got %d", updated.InventoryQty)
	}

	updated, err = f.productService.UpdateStock(ctx, f.admin, product.ID, StockUpdateInput{SizeMl: 6, Stock: 7, Enabled: &disable})
	if err != nil {
		t.Fatalf("explicit disable failed: %v", err)
	}
	if size := updated.BottleSize(6); size.Enabled {
		t.Fatalf("explicit disable with stock should be honoured")
	}
	if updated.InventoryQty != 7 {
		t.Fatalf("expected inventory 7, got %d", updated.InventoryQty)
	}

	updated, err = f.productService.UpdateStock(ctx, f.admin, product.ID, StockUpdateInput{SizeMl: 6, Stock: 0})
	if err != nil {
		t.Fatalf("zero stock failed: %v", err)
	}
	if size := updated.BottleSize(6); size.Enabled || size.Stock != 0 {
		t.Fatalf("zero stock must force disabled: %+v", size)
	}
	if updated.InventoryQty != 0 {
		t.Fatalf("expected inventory 0, got %d", updated.InventoryQty)
	}

	if _, err := f.productService.UpdateStock(ctx, f.admin, product.ID, StockUpdateInput{SizeMl: 9, Stock: 1}); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("expected ErrInvalidSize, got %v", err)
	}
}

func TestPublicListHidesUnavailableProducts(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	f.createProduct(t, "In Stock", 2)
	f.createProduct(t, "Empty", 0)
	hidden := f.createProduct(t, "Hidden", 2)
	inactive := false
	if _, err := f.productService.Update(ctx, f.admin, hidden.ID, ProductInput{IsActive: &inactive}); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	products, total, err := f.productService.ListPublic("", "", 1, 20)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || products[0].Name != "In Stock" {
		t.Fatalf("expected only the stocked product, got %d", total)
	}
	if len(products[0].Prices) != 3 {
		t.Fatalf("expected price table to be filled")
	}
	if _, err := f.productService.GetPublicBySlug(hidden.Slug); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("inactive product should be hidden, got %v", err)
	}
}

func TestRenameRegeneratesSlug(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	product := f.createProduct(t, "First Name", 1)
	name := "Second Name"
	updated, err := f.productService.Update(ctx, f.admin, product.ID, ProductInput{Name: &name})
	if err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if updated.Slug != "second-name-"+strconv.FormatUint(uint64(product.ID), 10) {
		t.Fatalf("unexpected slug %q", updated.Slug)
	}
	found, err := f.productService.GetPublicBySlug(updated.Slug)
	if err != nil || found.ID != product.ID {
		t.Fatalf("lookup by new slug failed: %v", err)
	}
	if _, err := f.productService.Update(ctx, Actor{UserID: 99, Role: constants.RoleUser}, product.ID, ProductInput{}); !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("expected ErrAdminRequired for non-admin update, got %v", err)
	}
}

func TestTopSoldIgnoresUnsoldProducts(t *testing.T) {
	f := newShopFixture(t)
	f.createProduct(t, "Never Sold", 3)
	top, err := f.productService.TopSold()
	if err != nil {
		t.Fatalf("top sold failed: %v", err)
	}
	if top != nil {
		t.Fatalf("expected no top product, got %s", top.Name)
	}
}
