package services

import (
	"testing"

	"sekolahku_go/middleware"
)

func TestLogFlushAgeBeatsCacheExpiry(t *testing.T) {
	// Logs are cached with a TTL and only persisted once old enough. If the
	// flush age ever creeps past the TTL, every cached log expires before it
	// qualifies and the activity trail silently vanishes.
	if logFlushAge >= middleware.ActivityLogTTL {
		t.Fatalf("flush age %v must be shorter than cache TTL %v", logFlushAge, middleware.ActivityLogTTL)
	}
	// Leave headroom for a missed scheduler run.
	if logFlushAge > middleware.ActivityLogTTL/2 {
		t.Fatalf("flush age %v leaves too little headroom under TTL %v", logFlushAge, middleware.ActivityLogTTL)
	}
}
