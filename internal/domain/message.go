package domain

import "errors"

// UserMessage turns an error returned by a catalog operation into the
// notification shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUserAlreadyExists):
		return "User already exists!"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid credentials!"
	case errors.Is(err, ErrTitleRequired):
		return "Title is required!"
	case errors.Is(err, ErrUnknownEntryType):
		return "Type must be Movie or TV Show!"
	case errors.Is(err, ErrUnauthorized):
		return "Please login first!"
	case errors.Is(err, ErrEntryNotFound):
		return "Entry not found!"
	case errors.Is(err, ErrNoPoster):
		return "N/A"
	case errors.Is(err, ErrStorageFull):
		return "Storage is full, changes were not saved!"
	case errors.Is(err, ErrValidation):
		return "Invalid input: " + err.Error()
	default:
		return "Something went wrong: " + err.Error()
	}
}
