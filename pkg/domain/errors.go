package domain

import "errors"

// ErrKeyNotFound is returned by a storage tier when a key holds no value.
var ErrKeyNotFound = errors.New("key not found")

// ErrStorageUnavailable wraps any failure of the underlying storage (quota, disabled, I/O).
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrMalformedData is returned when a persisted Session cannot be decoded.
var ErrMalformedData = errors.New("malformed persisted data")

// ErrPartialIdentity is returned when legacy fields are present but do not
// describe a complete identity (missing token, id or email).
var ErrPartialIdentity = errors.New("partial identity")
