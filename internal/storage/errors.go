package storage

import "errors"

var (
	// ErrStorageClosed is returned when operating on a closed backend
	ErrStorageClosed = errors.New("storage is closed")

	// ErrWrongPassphrase is returned when an encrypted backend is opened with another passphrase
	ErrWrongPassphrase = errors.New("wrong passphrase")

	// ErrNotLoaded is returned when an encrypted backend is written before Load
	ErrNotLoaded = errors.New("backend not loaded")
)
