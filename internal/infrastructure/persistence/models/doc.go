// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: Base persistence models (BaseModel, AggregateModel)
// - json.go: JSON column types
// - identity.go: users, including vendor approval columns
// - listing.go: stays, tours, adventures, vehicle_rentals
// - catalog.go: products with inline variants
// - trade.go: orders and order items
// - coupon.go: coupons
// - ledger.go: settlements and payout transactions
// - support.go: contact inbox
package models

// All returns every model managed by AutoMigrate-based test setups.
// Listing tables share ListingModel and are migrated separately.
func All() []any {
	return []any{
		&UserModel{},
		&ProductModel{},
		&OrderModel{},
		&OrderItemModel{},
		&CouponModel{},
		&SettlementModel{},
		&TransactionModel{},
		&ContactMessageModel{},
	}
}
