package repository

import (
	"github.com/siteplane/siteplane-go-pkg/errors"
)

/* ========================================================================
 * Ownership assertions
 * ========================================================================
 * Pure helpers, deliberately independent of the factory: administrative
 * tooling that fetches rows through raw queries still asserts ownership
 * explicitly as a second line of defense.
 * ======================================================================== */

// AssertExists returns record or a ResourceNotFoundError when it is nil.
// For global entity types where ownership does not apply.
func AssertExists[T any](record *T, resource string, id ...any) (*T, error) {
	if record == nil {
		return nil, errors.NewNotFound(resource, id...)
	}
	return record, nil
}

// AssertOwnership returns record after verifying it is owned by tenantID.
// A nil record is a ResourceNotFoundError; a record owned by another
// tenant is a TenantMismatchError carrying both ids.
func AssertOwnership[T TenantOwned](tenantID string, record *T, resource string, id ...any) (*T, error) {
	if tenantID == "" {
		return nil, errors.NewValidation("tenant id must not be empty")
	}
	if record == nil {
		return nil, errors.NewNotFound(resource, id...)
	}
	if owner := (*record).OwnerTenantID(); owner != tenantID {
		return nil, errors.NewTenantMismatch(tenantID, owner)
	}
	return record, nil
}
