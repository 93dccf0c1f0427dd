package repository

import (
	"time"

	"github.com/siteplane/siteplane-go-pkg/utils/id-generator/snowflake"

	"gorm.io/gorm"
	"gorm.io/plugin/soft_delete"
)

/* ========================================================================
 * Entity Scoping Registry
 * ========================================================================
 * Every persisted model declares whether its rows belong to a single
 * tenant (a customer site) or are shared platform data. The declaration is
 * made at compile time by embedding TenantModel or GlobalModel; a model
 * that embeds neither does not satisfy Model and cannot be handed to the
 * factory at all. There is deliberately no runtime inference from the row
 * shape: silently treating a tenant-owned type as global is the worst
 * failure this package can have.
 * ======================================================================== */

// TenantColumn is the database column carrying the owning tenant id on
// every tenant-scoped table.
const TenantColumn = "tenant_id"

// ScopePolicy classifies an entity type.
type ScopePolicy int

const (
	// ScopeTenant marks rows owned by exactly one tenant. Every operation
	// is filtered or stamped with the repository's tenant id.
	ScopeTenant ScopePolicy = iota
	// ScopeGlobal marks shared platform data. No tenant logic applies.
	ScopeGlobal
)

func (p ScopePolicy) String() string {
	switch p {
	case ScopeTenant:
		return "tenant"
	case ScopeGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Model is the contract every persisted entity type must satisfy.
type Model interface {
	ScopePolicy() ScopePolicy
}

// TenantOwned is implemented by tenant-scoped models and exposes the owning
// tenant id of a fetched record.
type TenantOwned interface {
	OwnerTenantID() string
}

// TenantSettable lets the repository stamp the owning tenant onto a record
// before it is persisted.
type TenantSettable interface {
	SetOwnerTenantID(tenantID string)
}

// IsTenantScoped reports whether m's rows are tenant-owned.
func IsTenantScoped(m Model) bool {
	return m.ScopePolicy() == ScopeTenant
}

// PolicyOf returns the scoping policy of the model type T.
func PolicyOf[T Model]() ScopePolicy {
	var m T
	return m.ScopePolicy()
}

// ========================================================================
// Embeddable bases
// ========================================================================

// BaseModel carries the columns shared by every siteplane table: snowflake
// primary key, create/update timestamps and a soft-delete flag.
type BaseModel struct {
	ID         int64                 `json:"id,string" gorm:"primaryKey"`
	CreateTime time.Time             `json:"create_time" gorm:"column:create_time;autoCreateTime"`
	UpdateTime time.Time             `json:"update_time" gorm:"column:update_time;autoUpdateTime"`
	Deleted    soft_delete.DeletedAt `json:"-" gorm:"column:deleted;default:0;softDelete:flag"`
}

// BeforeCreate assigns a snowflake id when the caller did not set one.
// Multi-instance deployments must configure SNOWFLAKE_NODE_ID.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == 0 {
		m.ID = snowflake.Generate()
	}
	return nil
}

// PrimaryID returns the primary key value.
func (m BaseModel) PrimaryID() int64 { return m.ID }

// TenantModel is the embeddable base for tenant-scoped entity types.
// Embedding it registers the type as tenant-scoped.
type TenantModel struct {
	BaseModel
	TenantID string `json:"tenant_id" gorm:"column:tenant_id;type:char(26);not null;index"`
}

// ScopePolicy registers the embedding type as tenant-scoped.
func (TenantModel) ScopePolicy() ScopePolicy { return ScopeTenant }

// OwnerTenantID returns the owning tenant id.
func (m TenantModel) OwnerTenantID() string { return m.TenantID }

// SetOwnerTenantID stamps the owning tenant id.
func (m *TenantModel) SetOwnerTenantID(tenantID string) { m.TenantID = tenantID }

// GlobalModel is the embeddable base for shared, never-filtered entity
// types (plans, platform settings, admin data).
type GlobalModel struct {
	BaseModel
}

// ScopePolicy registers the embedding type as global.
func (GlobalModel) ScopePolicy() ScopePolicy { return ScopeGlobal }
