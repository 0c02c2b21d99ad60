package ratelimit

import (
	"fmt"
	"strings"
)

// KeyForCaller builds a limiter key for an authenticated caller on a route group.
// It returns "" when either part is missing, which disables limiting for the call.
func KeyForCaller(group, subject string) string {
	group = strings.TrimSpace(group)
	subject = strings.TrimSpace(subject)
	if group == "" || subject == "" {
		return ""
	}
	return fmt.Sprintf("%s:u:%s", group, subject)
}
