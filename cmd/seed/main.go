package main

import (
	"context"

	"github.com/scentshop/internal/config"
	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/logger"
	"github.com/scentshop/internal/models"
	"github.com/scentshop/internal/repository"
	"github.com/scentshop/internal/service"

	"github.com/shopspring/decimal"
)

type seedProduct struct {
	name        string
	quality     string
	description string
	variants    []string
	notes       map[string]interface{}
	basePrice   string
	stock       int
}

var catalog = []seedProduct{
	{
		name:        "Oud Royale",
		quality:     "original",
		description: "Smoky agarwood with rose and saffron.",
		variants:    []string{"Classic", "Intense"},
		notes: map[string]interface{}{
			"top":    []string{"saffron", "bergamot"},
			"middle": []string{"rose", "oud"},
			"base":   []string{"amber", "musk"},
		},
		basePrice: "450",
		stock:     20,
	},
	{
		name:        "Citrus Breeze",
		quality:     "normal",
		description: "Fresh lemon and neroli for everyday wear.",
		variants:    []string{"Day"},
		notes: map[string]interface{}{
			"top":  []string{"lemon", "grapefruit"},
			"base": []string{"neroli", "vetiver"},
		},
		basePrice: "220",
		stock:     40,
	},
	{
		name:        "Velvet Musk",
		quality:     "normal",
		description: "Soft white musk with vanilla.",
		notes: map[string]interface{}{
			"middle": []string{"iris"},
			"base":   []string{"white musk", "vanilla"},
		},
		basePrice: "300",
		stock:     15,
	},
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.InitDefaultAdmin(cfg.Admin.Email, cfg.Admin.Password); err != nil {
		stdLog.Fatalf("Failed to init admin: %v", err)
	}

	ctx := context.Background()
	settings := service.NewAdminSettingService(repository.NewSettingRepository(models.DB))
	if _, err := settings.Ensure(ctx); err != nil {
		stdLog.Printf("Failed to ensure admin setting: %v", err)
	}

	var existing int64
	if err := models.DB.Model(&models.Product{}).Count(&existing).Error; err != nil {
		stdLog.Fatalf("Failed to count products: %v", err)
	}
	if existing > 0 {
		stdLog.Printf("Catalog already seeded (%d products), skipping", existing)
		return
	}

	products := service.NewProductService(repository.NewProductRepository(models.DB))
	admin := service.Actor{Role: constants.RoleAdmin}
	for _, item := range catalog {
		name := item.name
		quality := item.quality
		description := item.description
		price := decimal.RequireFromString(item.basePrice)
		product, err := products.Create(ctx, admin, service.ProductInput{
			Name:              &name,
			Quality:           &quality,
			Description:       &description,
			FragranceVariants: item.variants,
			Notes:             item.notes,
			BasePrice:         &price,
			InitialStock:      item.stock,
		})
		if err != nil {
			stdLog.Printf("Failed to create product %s: %v", item.name, err)
			continue
		}
		stdLog.Printf("Created product: %s", product.Slug)
	}
}
