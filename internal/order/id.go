package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// newOrderID produces an opaque identifier with a time-derived component and a
// random component, e.g. ORD-1718000000000-9f86d081. Collisions are not
// detected; the random suffix makes them vanishingly unlikely.
func newOrderID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), suffix)
}
