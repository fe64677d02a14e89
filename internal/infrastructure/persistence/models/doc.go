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
// - base.go: Base persistence models (BaseModel, AggregateModel, TenantAggregateModel)
// - platform.go: Platform plane models (Tenant, Module, Package, Subscription, Announcement, Backup)
// - identity.go: Identity models (User)
// - org.go: Organization models (Branch)
// - crm.go: CRM models (Customer, LoyaltyTier, CustomerSegment, CustomerScore)
// - sales.go: Sales models (Sale, SaleLine)
//
// Uniqueness that spans tenant_id plus another column (customer codes, sale
// numbers, usernames) cannot be expressed on the shared embedded base, so the
// SQL migrations own those composite unique indexes.
package models
