// Package policy decides what an actor may do to a document.
package policy

import "docsmanager/internal/model"

// CanDelete reports whether actor may delete doc. Staff and superusers may delete anything;
// everyone else only documents they authored. Documents without an author are staff-only.
func CanDelete(actor *model.Actor, doc *model.Document) bool {
	if actor == nil || doc == nil {
		return false
	}
	if actor.IsStaff || actor.IsSuperuser {
		return true
	}
	return doc.HasAuthor(actor.UserID)
}

// CanEdit follows the delete rule.
func CanEdit(actor *model.Actor, doc *model.Document) bool {
	return CanDelete(actor, doc)
}
