package legal

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/arriendoseguro/legal-api/pkg/models"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// randSuffix returns n random base-36 characters, uppercased.
func randSuffix(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(base36[rand.Intn(len(base36))])
	}
	return strings.ToUpper(b.String())
}

// GenerateNumber builds a type-prefixed, practically-unique identifier:
// <prefix>-<unix millis>-<9 random base-36 chars>. No central sequence is
// involved; the random suffix keeps same-millisecond generations apart.
func GenerateNumber(prefix string) string {
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), randSuffix(9))
}

// GenerateProceedingNumber picks the proceeding prefix: MP- for monitorio
// procedures, CP- for everything else.
func GenerateProceedingNumber(t models.ProceedingType) string {
	if t == models.ProceedingMonitorioProcedure {
		return GenerateNumber("MP")
	}
	return GenerateNumber("CP")
}
