package handlers

import (
	"github.com/jmoiron/sqlx"

	"pricewatch/internal/config"
	"pricewatch/internal/pricing"
	"pricewatch/internal/repos"
	"pricewatch/internal/services"
)

type Deps struct {
	WatchlistHandler *WatchlistHandler
	ProductHandler   *ProductHandler
	Users            *repos.UserRepo
}

func NewDeps(db *sqlx.DB, cfg config.Config) *Deps {
	entries := repos.NewWatchlistRepo(db)
	products := repos.NewProductRepo(db)
	prices := repos.NewPriceRepo(db)

	watchSvc := services.NewWatchlistService(entries, products, cfg.StorageTimeout)
	compareSvc := services.NewComparisonService(entries, products, prices,
		pricing.NewSelector(cfg.AlternatePriority), cfg.StorageTimeout)

	return &Deps{
		WatchlistHandler: &WatchlistHandler{Watch: watchSvc, Compare: compareSvc},
		ProductHandler:   &ProductHandler{Compare: compareSvc},
		Users:            repos.NewUserRepo(db),
	}
}
