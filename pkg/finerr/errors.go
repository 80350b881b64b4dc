// Package finerr defines the error kinds that cross component boundaries.
package finerr

import "errors"

var (
	// ErrConnectionFailed means the document store was unreachable at init.
	ErrConnectionFailed = errors.New("store connection failed")
	// ErrLoadFailed means the initial snapshot load failed.
	ErrLoadFailed = errors.New("snapshot load failed")
	// ErrParseError means a JSON document could not be parsed or did not
	// match the summary schema.
	ErrParseError = errors.New("json parse error")
	// ErrKeyNotFound means the document store returned nil for a key.
	ErrKeyNotFound = errors.New("key not found")
	// ErrCommandFailed covers any other document-store command failure.
	ErrCommandFailed = errors.New("store command failed")
	// ErrInvalidPacket means a frame failed structural or cross-field
	// validation.
	ErrInvalidPacket = errors.New("invalid packet")
	// ErrUnknownTransactionCode means t_code is not one we handle.
	ErrUnknownTransactionCode = errors.New("unknown transaction code")
	// ErrBackOfficeIntParse means an overpunch numeric field failed to decode.
	ErrBackOfficeIntParse = errors.New("back-office int parse error")
	// ErrTcpStartFailed means listen/bind failed.
	ErrTcpStartFailed = errors.New("tcp start failed")
	// ErrUnexpected means an internal invariant was violated.
	ErrUnexpected = errors.New("unexpected internal error")
)
