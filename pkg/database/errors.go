package database

import "errors"

// ErrNotReady is returned until the startup ping has reached the database,
// and again once shutdown has closed the pool.
var ErrNotReady = errors.New("operation history database is not ready")
