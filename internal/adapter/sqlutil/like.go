// Package sqlutil holds query helpers shared by the SQL store adapters.
package sqlutil

import "strings"

// LikeEscape is the escape character used with ContainsPattern.
const LikeEscape = `\`

var likeReplacer = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern returns a LIKE pattern matching any value that contains s
// literally. Use it with ESCAPE '\'.
func ContainsPattern(s string) string {
	return "%" + likeReplacer.Replace(s) + "%"
}
