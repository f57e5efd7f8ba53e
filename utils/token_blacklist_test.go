package utils

import (
	"context"
	"testing"
	"time"
)

func TestMemoryBlacklist(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewMemoryBlacklist()
	b.now = func() time.Time { return now }

	if err := b.Revoke(ctx, "jti-1", now.Add(time.Hour)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := b.Revoke(ctx, "already-expired", now.Add(-time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	if revoked, _ := b.IsRevoked(ctx, "jti-1"); !revoked {
		t.Error("jti-1 should be revoked")
	}
	if revoked, _ := b.IsRevoked(ctx, "already-expired"); revoked {
		t.Error("expired tokens need no revocation entry")
	}
	if revoked, _ := b.IsRevoked(ctx, "unknown"); revoked {
		t.Error("unknown id reported as revoked")
	}

	now = now.Add(2 * time.Hour)
	if revoked, _ := b.IsRevoked(ctx, "jti-1"); revoked {
		t.Error("entry should lapse once the token has expired")
	}
	if len(b.entries) != 0 {
		t.Errorf("entries not pruned: %v", b.entries)
	}
}
