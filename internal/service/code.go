package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// codeAttempts bounds how many fresh codes CreateSample tries before giving
// up on a run of unique-code collisions.
const codeAttempts = 3

// newSampleCode returns LIMS-<YYYYMMDD>-<8 uppercase hex>, dated in the lab's
// time zone.
func newSampleCode(now time.Time, loc *time.Location) string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("LIMS-%s-%s", now.In(loc).Format("20060102"), suffix)
}
