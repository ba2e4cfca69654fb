// Package objectstore persists document attachment payloads outside the
// relational database.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrObjectNotFound is returned when a requested object does not exist
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore stores and retrieves binary attachment payloads by opaque reference
type ObjectStore interface {
	/*
		Upload store a payload and hand back its reference

			@param ctx context.Context - execution context
			@param prefix string - logical grouping prefix, e.g. "documents"
			@param contentType string - payload MIME content type
			@param payload io.Reader - the payload
			@returns the object reference
	*/
	Upload(ctx context.Context, prefix string, contentType string, payload io.Reader) (string, error)

	/*
		Download fetch a stored payload

			@param ctx context.Context - execution context
			@param ref string - the object reference
			@returns the payload
	*/
	Download(ctx context.Context, ref string) ([]byte, error)

	/*
		Delete remove a stored payload

			@param ctx context.Context - execution context
			@param ref string - the object reference
	*/
	Delete(ctx context.Context, ref string) error

	/*
		Exists check whether a reference points at a stored payload

			@param ctx context.Context - execution context
			@param ref string - the object reference
			@returns whether the object exists
	*/
	Exists(ctx context.Context, ref string) (bool, error)
}

// newStorageKey build a date partitioned object key under a logical prefix
func newStorageKey(prefix string) string {
	d := time.Now()
	return fmt.Sprintf("%s/%d/%d/%d/%v", prefix, d.Year(), d.Month(), d.Day(), uuid.New())
}
