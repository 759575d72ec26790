package router

import (
	"github.com/gin-gonic/gin"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/interfaces/http/handler"
	"github.com/safarhub/backend/internal/interfaces/http/middleware"
)

// Handlers bundles every HTTP handler the marketplace API exposes
type Handlers struct {
	System      *handler.SystemHandler
	Vendor      *handler.VendorHandler
	Listing     *handler.ListingHandler
	Fulfillment *handler.FulfillmentHandler
	Coupon      *handler.CouponHandler
	Settlement  *handler.SettlementHandler
	Transaction *handler.TransactionHandler
	Support     *handler.SupportHandler
}

// Guards are the middleware chains Register places in front of route groups
type Guards struct {
	// Authenticate attaches the principal. It runs before the role check
	// of every protected group.
	Authenticate []gin.HandlerFunc
	// Submit runs in front of the public contact form
	Submit []gin.HandlerFunc
}

func (g Guards) require(types ...identity.AccountType) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, len(g.Authenticate)+1)
	chain = append(chain, g.Authenticate...)
	return append(chain, middleware.RequireAccountType(types...))
}

// Register mounts the marketplace routes on r. Listings, products and the
// contact form are public; every other group checks the caller's role.
func Register(r *Router, h Handlers, g Guards) {
	anyAccount := g.require(identity.AccountTypeUser, identity.AccountTypeVendor, identity.AccountTypeAdmin)
	sellers := g.require(identity.AccountTypeVendor, identity.AccountTypeAdmin)
	admins := g.require(identity.AccountTypeAdmin)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)

	catalog := NewDomainGroup("catalog", "")
	catalog.GET("/listings/:kind", h.Listing.ListListings)
	catalog.GET("/products", h.Listing.ListProducts)
	catalog.GET("/products/:id", h.Listing.GetProduct)

	support := NewDomainGroup("support", "/support")
	support.POST("/messages", append(g.Submit[:len(g.Submit):len(g.Submit)], h.Support.Submit)...)

	coupons := NewDomainGroup("coupons", "/coupons").Use(anyAccount...)
	coupons.POST("/validate", h.Coupon.Validate)
	coupons.POST("/redeem", h.Coupon.Redeem)

	fulfillment := NewDomainGroup("fulfillment", "/vendor/orders").Use(sellers...)
	fulfillment.GET("", h.Fulfillment.ListOrders)
	fulfillment.GET("/summary", h.Fulfillment.Summary)
	fulfillment.PATCH("/:orderId/items/:itemId/status", h.Fulfillment.UpdateItemStatus)
	fulfillment.POST("/:orderId/items/:itemId/cancel", h.Fulfillment.CancelItem)

	ledger := NewDomainGroup("ledger", "").Use(sellers...)
	settlements := ledger.Group("settlements", "/settlements")
	settlements.GET("", h.Settlement.List)
	settlements.GET("/export", h.Settlement.Export)
	settlements.GET("/:id", h.Settlement.GetByID)
	settlements.PATCH("/:id", h.Settlement.Update)
	transactions := ledger.Group("transactions", "/transactions")
	transactions.GET("", h.Transaction.List)
	transactions.POST("", h.Transaction.Create)
	transactions.GET("/:id", h.Transaction.GetByID)
	transactions.PATCH("/:id", h.Transaction.Update)

	admin := NewDomainGroup("admin", "/admin").Use(admins...)
	vendors := admin.Group("vendors", "/vendors")
	vendors.GET("", h.Vendor.List)
	vendors.GET("/:id", h.Vendor.GetByID)
	vendors.POST("/:id/accept", h.Vendor.Accept)
	vendors.POST("/:id/reject", h.Vendor.Reject)
	vendors.POST("/:id/lock", h.Vendor.Lock)
	vendors.POST("/:id/unlock", h.Vendor.Unlock)
	vendors.DELETE("/:id", h.Vendor.Delete)
	adminCoupons := admin.Group("coupons", "/coupons")
	adminCoupons.GET("", h.Coupon.List)
	adminCoupons.POST("", h.Coupon.Create)
	adminCoupons.GET("/:id", h.Coupon.GetByID)
	adminCoupons.PATCH("/:id", h.Coupon.Update)
	adminCoupons.DELETE("/:id", h.Coupon.Delete)
	inbox := admin.Group("support", "/support/messages")
	inbox.GET("", h.Support.List)
	inbox.GET("/:id", h.Support.GetByID)
	inbox.POST("/:id/reply", h.Support.Reply)
	inbox.POST("/:id/close", h.Support.Close)

	r.Register(system).
		Register(catalog).
		Register(support).
		Register(coupons).
		Register(fulfillment).
		Register(ledger).
		Register(admin)
}
