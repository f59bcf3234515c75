// Package rule defines the fixed cleaning policy: an ordered list of rules,
// each naming a worksheet column and a set of case-insensitive substrings
// that mark a row for removal.
//
// The rule table is compiled-in data (rules.yaml). It is validated against a
// JSON schema and every column label is resolved once, when the table is first
// loaded. There is no way to change the rules at runtime.
package rule
