package service

import "errors"

// Sentinel errors for the service layer. The message of each client-kind
// error is the exact body served in the JSON error field, so wording
// here is part of the API.
var (
	ErrUnauthorized    = errors.New("Unauthorized")
	ErrMissingEmail    = errors.New("Missing email")
	ErrMissingPassword = errors.New("Missing password")
	ErrEmailTaken      = errors.New("Already exist")
	ErrMissingName     = errors.New("Missing name")
	ErrMissingType     = errors.New("Missing type")
	ErrMissingData     = errors.New("Missing data")
	ErrInvalidData     = errors.New("Invalid data")
	ErrParentNotFound  = errors.New("Parent not found")
	ErrParentNotFolder = errors.New("Parent is not a folder")
	ErrNotFound        = errors.New("Not found")
	ErrFolderNoContent = errors.New("A folder doesn't have content")
)

// validationErrs are the bad-request kinds.
var validationErrs = []error{
	ErrMissingEmail,
	ErrMissingPassword,
	ErrEmailTaken,
	ErrMissingName,
	ErrMissingType,
	ErrMissingData,
	ErrInvalidData,
	ErrParentNotFound,
	ErrParentNotFolder,
	ErrFolderNoContent,
}

// IsValidation reports whether err is a client validation failure.
func IsValidation(err error) bool {
	for _, e := range validationErrs {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
