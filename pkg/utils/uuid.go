package utils

import (
	"strings"

	"github.com/google/uuid"
)

// ParseUUID parses a string into a UUID
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(s))
}

// GenerateProductCode generates a unique product code
func GenerateProductCode() string {
	return "PROD-" + ShortID(uuid.New())
}

// ReceiptNo derives the printable receipt number of a sale
func ReceiptNo(saleID uuid.UUID) string {
	return "REC-" + ShortID(saleID)
}

// ShortID returns the first eight hex characters of id, upper-cased
func ShortID(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}
