package inventory

import (
	"strings"

	"partscope/internal/services"
)

// Patch is a partial update of a single item. A nil field is left untouched.
type Patch struct {
	Name        *string
	Status      *string
	Owner       *string
	Notes       *string
	AppendNotes bool
}

// Empty reports whether the patch carries no fields.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Status == nil && p.Owner == nil && p.Notes == nil
}

// Apply validates the patch and returns a modified copy of item. The input is
// never modified, so a rejected patch leaves no partial state behind.
func (p Patch) Apply(item Item) (Item, error) {
	status, hasStatus, err := resolveStatus(p.Status)
	if err != nil {
		return item, err
	}

	next := item
	if p.Name != nil {
		if name := strings.TrimSpace(*p.Name); name != "" {
			next.Name = name
		}
	}
	if hasStatus {
		next.Status = status
	}
	if p.Owner != nil {
		next.Owner = strings.TrimSpace(*p.Owner)
	}
	if p.Notes != nil {
		next.Notes = mergeNotes(item.Notes, *p.Notes, p.AppendNotes)
	}
	return next, nil
}

// BatchPatch is the field set applied to every item of a batch update.
type BatchPatch struct {
	Status      *string
	Owner       *string
	Notes       *string
	AppendNotes bool
}

// Empty reports whether none of the fields are present.
func (b BatchPatch) Empty() bool {
	return b.Status == nil && b.Owner == nil && b.Notes == nil
}

// Validate checks the status up front so a batch never fails midway.
func (b BatchPatch) Validate() error {
	_, _, err := resolveStatus(b.Status)
	return err
}

// Patch converts the batch field set into a per-item patch.
func (b BatchPatch) Patch() Patch {
	return Patch{Status: b.Status, Owner: b.Owner, Notes: b.Notes, AppendNotes: b.AppendNotes}
}

// resolveStatus reports the parsed status and whether it should be applied.
// A present but blank status is ignored.
func resolveStatus(raw *string) (Status, bool, error) {
	if raw == nil {
		return "", false, nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return "", false, nil
	}
	status, ok := ParseStatus(trimmed)
	if !ok {
		return "", false, services.Validationf("status %q is not allowed", trimmed)
	}
	return status, true, nil
}

func mergeNotes(existing, incoming string, appendNotes bool) string {
	incoming = strings.TrimSpace(incoming)
	if !appendNotes || existing == "" {
		return incoming
	}
	if incoming == "" {
		return existing
	}
	return existing + "\n" + incoming
}
