//go:build paneshell_purego

package persist

import _ "modernc.org/sqlite"

// driverName selects the pure-Go SQLite driver for cgo-free builds.
const driverName = "sqlite"
