package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// newRecordID builds a sortable, collision-proof local id: a
// high-resolution timestamp plus a random suffix, so two records created
// in the same millisecond cannot collide.
func newRecordID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), uuid.NewString()[:8])
}
