// Package all registers every built-in workbook loader with the parser
// registry. Import it for side effects:
//
//	import _ "variantgen/internal/parser/all"
package all

import (
	_ "variantgen/internal/parser/csv"
	_ "variantgen/internal/parser/json"
	_ "variantgen/internal/parser/xlsx"
)
