package domain

import "github.com/juju/errors"

// ErrDataAccess is returned by the data access layer for any query or
// connection failure. The underlying driver error is logged, not returned.
const ErrDataAccess = errors.ConstError("data access failed")

// IsValidation reports whether err is a user input validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, errors.NotValid)
}

// IsNotFound reports whether err refers to a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, errors.NotFound)
}

// IsDataAccess reports whether err is a data access failure.
func IsDataAccess(err error) bool {
	return errors.Is(err, ErrDataAccess)
}
