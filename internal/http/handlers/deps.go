package handlers

import (
	"github.com/jmoiron/sqlx"

	"loudim/internal/cart"
	"loudim/internal/config"
	"loudim/internal/repos"
	"loudim/internal/services"
)

type Deps struct {
	CategoryHandler      *CategoryHandler
	ProductHandler       *ProductHandler
	CartHandler          *CartHandler
	OrderHandler         *OrderHandler
	APIHandler           *APIHandler
	AdminHandler         *AdminHandler
	AdminCatalogHandler  *AdminCatalogHandler
	AdminDeliveryHandler *AdminDeliveryHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	couponRepo := repos.NewCouponRepo(db)
	cityRepo := repos.NewDeliveryRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	userRepo := repos.NewUserRepo(db)

	cartSvc := services.NewCartService(cart.NewStore(), prodRepo)
	couponSvc := services.NewCouponService(couponRepo)
	deliverySvc := services.NewDeliveryService(cityRepo)
	orderSvc := services.NewOrderService(cartSvc, couponSvc, deliverySvc, orderRepo, prodRepo)
	catalogSvc := services.NewCatalogService(catRepo, prodRepo, couponRepo, cityRepo, cfg.MediaDir)

	return &Deps{
		CategoryHandler: &CategoryHandler{Cats: catRepo, Prods: prodRepo},
		ProductHandler:  &ProductHandler{Prods: prodRepo},
		CartHandler:     &CartHandler{Cart: cartSvc},
		OrderHandler:    &OrderHandler{Repo: orderRepo},
		APIHandler: &APIHandler{
			Cart:     cartSvc,
			Coupon:   couponSvc,
			Delivery: deliverySvc,
			Orders:   orderSvc,
		},
		AdminHandler: &AdminHandler{
			Orders: orderSvc,
			Repo:   orderRepo,
			Users:  userRepo,
		},
		AdminCatalogHandler: &AdminCatalogHandler{
			Catalog: catalogSvc,
			Cats:    catRepo,
			Prods:   prodRepo,
			Coupons: couponRepo,
		},
		AdminDeliveryHandler: &AdminDeliveryHandler{
			Catalog: catalogSvc,
			Cities:  cityRepo,
		},
	}
}
