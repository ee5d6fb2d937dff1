package service

import (
	appErrors "github.com/givelane/givelane-api/pkg/errors"
)

// assertOwner checks that the caller owns a resource. Every mutating
// operation on an owned record routes through this one helper instead of
// re-implementing the comparison per concept.
func assertOwner(ownerID, callerID string) error {
	if callerID == "" {
		return appErrors.ErrUnauthorized
	}
	if ownerID != callerID {
		return appErrors.ErrNotAuthor
	}
	return nil
}
