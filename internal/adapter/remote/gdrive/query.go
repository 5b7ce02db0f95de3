package gdrive

import (
	"fmt"
	"strings"
)

// FolderMimeType marks a Drive file as a folder
const FolderMimeType = "application/vnd.google-apps.folder"

// rootAlias is the Drive alias for the user's My Drive root
const rootAlias = "root"

// EscapeQuery escapes a value for a single-quoted Drive query literal.
// Backslashes are escaped before quotes so the added backslashes are not doubled.
func EscapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// nameQuery matches a non-trashed file by exact name, optionally within a folder
func nameQuery(name, folderID string) string {
	q := fmt.Sprintf("name = '%s' and trashed = false", EscapeQuery(name))
	if folderID != "" {
		q += fmt.Sprintf(" and '%s' in parents", EscapeQuery(folderID))
	}
	return q
}

// folderQuery matches non-trashed folders directly under parentID (root when empty)
func folderQuery(parentID string) string {
	if parentID == "" {
		parentID = rootAlias
	}
	return fmt.Sprintf("mimeType = '%s' and trashed = false and '%s' in parents",
		FolderMimeType, EscapeQuery(parentID))
}
