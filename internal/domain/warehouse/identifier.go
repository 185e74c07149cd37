package warehouse

import (
	"regexp"
	"strings"
)

// Identifier prefixes accepted by lookups
const (
	ReceiptPrefix       = "WR-"
	PurchaseOrderPrefix = "PO-"
)

var (
	receiptIDPattern       = regexp.MustCompile(`^WR-\d+$`)
	purchaseOrderIDPattern = regexp.MustCompile(`^PO-\d+$`)
)

// IdentifierKind classifies an identifier by its prefix
type IdentifierKind string

const (
	IdentifierKindReceipt       IdentifierKind = "RECEIPT"
	IdentifierKindPurchaseOrder IdentifierKind = "PURCHASE_ORDER"
	IdentifierKindUnknown       IdentifierKind = "UNKNOWN"
)

// String returns the string representation of IdentifierKind
func (k IdentifierKind) String() string {
	return string(k)
}

// KindOf returns the kind of an already normalized identifier based on its prefix only.
func KindOf(identifier string) IdentifierKind {
	switch {
	case strings.HasPrefix(identifier, ReceiptPrefix):
		return IdentifierKindReceipt
	case strings.HasPrefix(identifier, PurchaseOrderPrefix):
		return IdentifierKindPurchaseOrder
	}
	return IdentifierKindUnknown
}

// IsReceiptID reports whether id is a well-formed warehouse receipt identifier
func IsReceiptID(id string) bool {
	return receiptIDPattern.MatchString(id)
}

// IsPurchaseOrderID reports whether id is a well-formed purchase order identifier
func IsPurchaseOrderID(id string) bool {
	return purchaseOrderIDPattern.MatchString(id)
}
