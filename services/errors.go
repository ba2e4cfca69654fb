// Package services - the document control business operations
package services

import (
	"errors"

	"github.com/sigqms/doccontrol/codegen"
)

// ErrInvalidArgument is returned when a request fails a business rule check.
// Shared with the code generator so callers classify both layers with one
// sentinel.
var ErrInvalidArgument = codegen.ErrInvalidArgument

// ErrBadAttachment is returned when an attachment upload is unusable
var ErrBadAttachment = errors.New("bad attachment")
