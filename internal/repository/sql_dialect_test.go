package repository

import (
	"testing"

	"github.com/scentshop/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestDialectHelpers(t *testing.T) {
	sqliteDB := &gorm.DB{Config: &gorm.Config{Dialector: sqlite.Open(":memory:")}}
	postgresDB := &gorm.DB{Config: &gorm.Config{Dialector: postgres.Open("host=localhost")}}

	if got := dbDialectName(nil); got != "sqlite" {
		t.Fatalf("nil db should fall back to sqlite, got %s", got)
	}
	if isPostgres(sqliteDB) {
		t.Fatalf("sqlite should not be detected as postgres")
	}
	if !isPostgres(postgresDB) {
		t.Fatalf("postgres dialector not detected")
	}
	if got := likeOperator(sqliteDB); got != "LIKE" {
		t.Fatalf("sqlite like operator want LIKE got %s", got)
	}
	if got := likeOperator(postgresDB); got != "ILIKE" {
		t.Fatalf("postgres like operator want ILIKE got %s", got)
	}
}

func TestApplyPaginationOffsetsPages(t *testing.T) {
	db := openTestDB(t)
	repo := NewProductRepository(db)
	for _, slug := range []string{"amber-1", "bloom-2", "cedar-3"} {
		createStockedProduct(t, repo, slug, 1)
	}
	if got := applyPagination(nil, 1, 10); got != nil {
		t.Fatalf("nil query should stay nil")
	}

	var slugs []string
	if err := applyPagination(db.Model(&models.Product{}).Order("id"), 2, 2).Pluck("slug", &slugs).Error; err != nil {
		t.Fatalf("paged query failed: %v", err)
	}
	if len(slugs) != 1 || slugs[0] != "cedar-3" {
		t.Fatalf("unexpected page: %v", slugs)
	}
}
