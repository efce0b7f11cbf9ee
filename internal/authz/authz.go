// Package authz holds the stateless access rules for rentals, payments and the
// catalog. Every predicate switches exhaustively over domain.Role; unknown roles
// are denied.
package authz

import "github.com/Clark-Hu/moviestore/internal/domain"

// IsAuthenticated reports whether the caller carries any identity.
func IsAuthenticated(caller domain.Identity) bool {
	switch caller.Role {
	case domain.RoleUser, domain.RoleSuperuser:
		return true
	case domain.RoleAnonymous:
		return false
	default:
		return false
	}
}

// CanViewRental allows superusers and the rental's owner.
func CanViewRental(caller domain.Identity, rental domain.Rental) bool {
	switch caller.Role {
	case domain.RoleSuperuser:
		return true
	case domain.RoleUser:
		return caller.UserID != 0 && caller.UserID == rental.UserID
	case domain.RoleAnonymous:
		return false
	default:
		return false
	}
}

// CanModifyRental follows the view rule.
func CanModifyRental(caller domain.Identity, rental domain.Rental) bool {
	return CanViewRental(caller, rental)
}

// CanSettleRental follows the view rule, so superusers may pay on behalf of a user.
func CanSettleRental(caller domain.Identity, rental domain.Rental) bool {
	return CanViewRental(caller, rental)
}

// CanListAll is true only for superusers.
func CanListAll(caller domain.Identity) bool {
	switch caller.Role {
	case domain.RoleSuperuser:
		return true
	case domain.RoleUser, domain.RoleAnonymous:
		return false
	default:
		return false
	}
}

// CanCreateRental is true for any authenticated caller.
func CanCreateRental(caller domain.Identity) bool {
	return IsAuthenticated(caller)
}

// CanManageCatalog gates movie and category writes.
func CanManageCatalog(caller domain.Identity) bool {
	return CanListAll(caller)
}
