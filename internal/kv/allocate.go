package kv

import (
	"context"
	"fmt"
	"strings"
)

// AllocateKey returns the first "<prefix>-NNN" key, counting from 1, that
// is not in use in store. The suffix is zero padded to three digits. An
// index counts as in use when any key starts with "<prefix>-NNN" followed by
// a non-digit, so derived keys such as "<prefix>-NNN:touch-log" keep their
// index reserved after the base key is gone.
//
// Allocation does not reserve the key; the caller claims it by writing to it.
func AllocateKey(ctx context.Context, store Store, prefix string) (string, error) {
	existing, err := store.Keys(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("allocate %s: %w", prefix, err)
	}
	base := prefix + "-"
	taken := make(map[string]struct{}, len(existing))
	for _, k := range existing {
		if !strings.HasPrefix(k, base) {
			continue
		}
		rest := k[len(base):]
		n := strings.IndexFunc(rest, func(r rune) bool { return r < '0' || r > '9' })
		if n == -1 {
			n = len(rest)
		}
		if n > 0 {
			taken[base+rest[:n]] = struct{}{}
		}
	}

	for i := 1; ; i++ {
		key := fmt.Sprintf("%s%03d", base, i)
		if _, ok := taken[key]; !ok {
			return key, nil
		}
	}
}
