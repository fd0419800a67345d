package expression

import (
	"regexp"
	"strings"
)

// convertSyntax rewrites this package's compact condition syntax into
// expr-lang syntax before compilation, so condition params stay readable
// without exposing expr-lang's own closure syntax to diagram authors.
func convertSyntax(expression string) string {
	// Convert .length property to len() function
	// Match: somevar.field.length or item.array.length
	lengthRe := regexp.MustCompile(`(\w+(?:\.\w+|\[\d+\])*?)\.length\b`)
	expression = lengthRe.ReplaceAllString(expression, "len($1)")

	// A bare comparison (">100", "== 'approved'"), alone or as an operand
	// of && / ||, compares against the single input value.
	bareRe := regexp.MustCompile(`(^|&&|\|\||\()\s*(>=|<=|==|!=|>|<)`)
	expression = bareRe.ReplaceAllString(expression, "${1} input ${2}")

	// Convert map(array, expr) syntax to map(array, {closure})
	// This is more complex as we need to handle nested expressions
	expression = convertMapSyntax(expression)

	return expression
}

// convertMapSyntax rewrites map() calls written against a bare "item"
// reference into expr-lang's closure syntax:
//
//	map(users, item.age * 2)   becomes   map(users, {#.age * 2})
func convertMapSyntax(expression string) string {
	// Find map() calls
	mapRe := regexp.MustCompile(`map\s*\(\s*([^,]+),\s*(.+?)\s*\)`)
	
	// Process each map() call; calls already in closure form are kept.
	return mapRe.ReplaceAllStringFunc(expression, func(fullMatch string) string {
		matches := mapRe.FindStringSubmatch(fullMatch)
		arrayExpr := strings.TrimSpace(matches[1])
		itemExpr := strings.TrimSpace(matches[2])
		if strings.HasPrefix(itemExpr, "{") {
			return fullMatch
		}

		// Convert item references to # in the closure
		// Replace 'item.' with '#.' and standalone 'item' with '#'
		closureExpr := itemExpr
		closureExpr = regexp.MustCompile(`\bitem\.`).ReplaceAllString(closureExpr, "#.")
		closureExpr = regexp.MustCompile(`\bitem\b`).ReplaceAllString(closureExpr, "#")
		
		// Reconstruct the map call with closure syntax
		return "map(" + arrayExpr + ", {" + closureExpr + "})"
	})
}
