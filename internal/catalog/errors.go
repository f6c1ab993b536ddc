package catalog

import "strings"

// ConflictKind tags the known catalog conflict responses. The catalog reports
// these as message bodies on failed writes, so classification happens here and
// nowhere else.
type ConflictKind int

const (
	// ConflictNone means the message matched no known conflict.
	ConflictNone ConflictKind = iota

	// ConflictProductDuplicateID: a product with the requested id exists.
	ConflictProductDuplicateID

	// ConflictProductDuplicateRef: a product with the same ref id or link id
	// exists. The conflicting product id rides at the end of the message.
	ConflictProductDuplicateRef

	// ConflictProductDuplicateExternalID: a v2 product with the same external
	// id exists. The conflicting product id is quoted inside the message.
	ConflictProductDuplicateExternalID

	// ConflictSkuDuplicateID: a SKU with the requested id exists.
	ConflictSkuDuplicateID

	// ConflictSkuRefInUse: the SKU ref id is registered on another SKU. The
	// conflicting SKU id rides at the end of the message.
	ConflictSkuRefInUse

	// ConflictImageExists: the image archive was already created. Callers
	// treat this one as success.
	ConflictImageExists
)

// Conflict is a classified catalog conflict. ID carries the conflicting
// entity id when the message format exposes one.
type Conflict struct {
	Kind ConflictKind
	ID   string
}

// ClassifyConflict inspects a failed write's message body and returns the
// conflict it describes, if any.
func ClassifyConflict(message string) (Conflict, bool) {
	switch {
	case strings.Contains(message, "Product already created with this Id"):
		return Conflict{Kind: ConflictProductDuplicateID}, true
	case strings.Contains(message, "There is already a product"):
		return Conflict{Kind: ConflictProductDuplicateRef, ID: trailingID(message)}, true
	case strings.Contains(message, "A product with external id "):
		return Conflict{Kind: ConflictProductDuplicateExternalID, ID: quotedID(message)}, true
	case strings.Contains(message, "Sku can not be created because the RefId is registered in Sku id"):
		return Conflict{Kind: ConflictSkuRefInUse, ID: trailingID(message)}, true
	case strings.Contains(message, "Sku already created with this Id"):
		return Conflict{Kind: ConflictSkuDuplicateID}, true
	case strings.Contains(message, "Archive created"):
		return Conflict{Kind: ConflictImageExists}, true
	}
	return Conflict{}, false
}

// trailingID pulls the entity id from messages that end with "... id <n>.",
// dropping the trailing punctuation.
func trailingID(message string) string {
	fields := strings.Fields(message)
	if len(fields) == 0 {
		return ""
	}
	last := fields[len(fields)-1]
	return strings.TrimRight(last, ".\"'")
}

// quotedID pulls the first double-quoted segment out of a message.
func quotedID(message string) string {
	parts := strings.Split(message, `"`)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
