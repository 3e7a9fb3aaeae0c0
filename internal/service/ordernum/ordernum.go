package ordernum

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const prefix = "ORD"

// Generate produces a human-scannable order number of the form
// ORD-20250301154212-3F9A1C4B: a second-granularity timestamp plus 32 bits of
// randomness. Uniqueness is probabilistic; the store's unique index on the
// order number is the backstop.
func Generate() string {
	timestamp := time.Now().Format("20060102150405")
	random := strings.ToUpper(uuid.NewString()[:8])

	return prefix + "-" + timestamp + "-" + random
}
