package library

import "strings"

// FormatName makes a catalog string usable as a single path segment by
// replacing every forward slash, the one character a segment cannot
// contain, with a hyphen. Everything else passes through unchanged; two
// entities that format to the same segment become indistinguishable in
// the tree.
func FormatName(name string) string {
	return strings.ReplaceAll(name, "/", "-")
}
