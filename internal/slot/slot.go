// Package slot describes presigned upload slots issued by the recipe
// backend.
package slot

import (
	"fmt"
	"time"
)

type Kind int

const (
	KindCover Kind = iota
	KindStep
)

// Target is the photo a slot was issued for.
type Target struct {
	Kind       Kind
	StepNumber int
}

func Cover() Target { return Target{Kind: KindCover} }

func Step(n int) Target { return Target{Kind: KindStep, StepNumber: n} }

func (t Target) String() string {
	if t.Kind == KindCover {
		return "cover"
	}
	return fmt.Sprintf("step %d", t.StepNumber)
}

// UploadSlot authorizes exactly one direct upload. Destination and Fields
// come from the backend verbatim; Path is the object path to attach to the
// record once the upload succeeded.
type UploadSlot struct {
	Target      Target
	Destination string
	Fields      map[string]string
	Path        string
	Expires     time.Time
}

// Expired reports whether the slot can no longer be used at now. A zero
// Expires never expires.
func (s UploadSlot) Expired(now time.Time) bool {
	return !s.Expires.IsZero() && !now.Before(s.Expires)
}
