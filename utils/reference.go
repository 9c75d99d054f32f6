package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateOrderReference returns a human-readable booking reference.
// Format: SRV-YYYYMMDD-XXXXXXXX where the suffix is derived from a UUID,
// which owns collision avoidance.
func GenerateOrderReference() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return fmt.Sprintf("SRV-%s-%s", time.Now().Format("20060102"), suffix)
}
