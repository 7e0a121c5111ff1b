package project

import "errors"

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrDocumentNotFound indicates the document doesn't exist.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrMemberNotFound indicates no membership exists for the account.
	ErrMemberNotFound = errors.New("member not found")
	// ErrInvalidInput indicates invalid project or document input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrLastOwner indicates an attempt to remove or demote the only owner.
	ErrLastOwner = errors.New("project must keep at least one owner")
	// ErrOwnershipInvariant indicates a record with both or neither of
	// owner_ref/guest_ref set. Such records are treated as inaccessible.
	ErrOwnershipInvariant = errors.New("ownership invariant violated")
)
