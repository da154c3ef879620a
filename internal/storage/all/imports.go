// Package all enables every built-in storage backend by importing it for its
// init side effects.
package all

import (
	_ "variantgen/internal/storage/mysql"
	_ "variantgen/internal/storage/postgres"
	_ "variantgen/internal/storage/sqlite"
)
