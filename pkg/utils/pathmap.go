package utils

import (
	"path/filepath"
	"strings"
)

// PathTranslator rewrites a local file path into the form the consumer of
// file_location expects. It exists because the devices reading the store may
// see the shared media folder under a different mount (and OS) than the
// machine that downloaded it.
type PathTranslator func(string) string

// IdentityTranslator leaves paths untouched.
func IdentityTranslator(p string) string { return p }

// NewSharedFolderTranslator maps paths under localPrefix to the equivalent
// path under remotePrefix, converting separators to backslashes for the
// Windows consumer. Paths outside localPrefix pass through unchanged.
func NewSharedFolderTranslator(localPrefix, remotePrefix string) PathTranslator {
	return func(p string) string {
		rel, err := filepath.Rel(localPrefix, p)
		if err != nil || strings.HasPrefix(rel, "..") {
			return p
		}
		joined := remotePrefix + "\\" + rel
		return strings.ReplaceAll(joined, "/", "\\")
	}
}
