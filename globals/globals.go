package globals

import (
	"context"
	"os"
	"strconv"
)

var Ctx = context.Background()

// DefaultSkipWindowDays is how long a venue stays fresh after a successful
// detail run before the index job will re-enqueue it. Sources may override it.
const DefaultSkipWindowDays = 20

// SkipWindowDays reads SKIP_WINDOW_DAYS or falls back to the default.
func SkipWindowDays() int {
	if v := os.Getenv("SKIP_WINDOW_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultSkipWindowDays
}
