package insight

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/FloatinggOnion/vogu-health-be/internal"
)

// Fingerprint identifies one (user, metric set, range, algorithm versions)
// combination. Bumping either version tag invalidates every cached insight
// computed under the old logic.
func Fingerprint(userID string, types []internal.MetricType, start, end time.Time, aggVersion, tplVersion string) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	sort.Strings(names)

	canonical := strings.Join([]string{
		"v1",
		aggVersion,
		tplVersion,
		userID,
		strings.Join(names, ","),
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
	}, "|")

	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
