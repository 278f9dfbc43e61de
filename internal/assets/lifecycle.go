package assets

import (
	"context"
	"log"
	"path"
	"strings"
)

// Coordinator reconciles an entity's stored asset-reference list with the
// client-requested removals and the newly uploaded references, and dispatches
// best-effort deletes to the asset store for everything removed.
//
// The remote deletes are fire-and-forget: they run on their own context, their
// failures are logged and never surfaced, and a later record-update failure
// does not undo them. Orphaned remote assets are an accepted failure mode.
type Coordinator struct {
	store Store
}

func NewCoordinator(store Store) *Coordinator {
	return &Coordinator{store: store}
}

// Merge applies the update contract:
//   - a requested deletion only takes effect when the reference is actually in
//     existing; unknown references are silently ignored so an update can never
//     delete assets that belong to another entity
//   - matched deletions are removed from the working set and a remote delete
//     is dispatched for each
//   - uploads are appended at the end, in upload order
//
// changed reports whether anything happened at all; when false the caller must
// leave the stored field untouched, which is what distinguishes "no change
// requested" from "clear all images".
func (c *Coordinator) Merge(existing, deletions, uploads []string, folder string) (merged []string, changed bool) {
	requested := make(map[string]bool, len(deletions))
	for _, ref := range deletions {
		if ref != "" {
			requested[ref] = true
		}
	}

	merged = make([]string, 0, len(existing)+len(uploads))
	for _, ref := range existing {
		if requested[ref] {
			changed = true
			c.destroyAsync(PublicID(ref, folder))
			continue
		}
		merged = append(merged, ref)
	}

	if len(uploads) > 0 {
		changed = true
		merged = append(merged, uploads...)
	}
	return merged, changed
}

func (c *Coordinator) destroyAsync(publicID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), defaultRequestTimeout)
		defer cancel()
		if err := c.store.Destroy(ctx, publicID); err != nil {
			log.Printf("failed to delete remote asset %s: %v", publicID, err)
		}
	}()
}

// PublicID derives the asset-store object id from a reference URL: the last
// path segment minus its extension, prefixed by the folder when one is set.
func PublicID(reference, folder string) string {
	base := path.Base(reference)
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	if folder != "" {
		return folder + "/" + base
	}
	return base
}
