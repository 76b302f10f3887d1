// Package status renders a working tree comparison into nine display strings,
// one per category, in the fixed order given by Categories.
package status

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/repokit/repokit/internal/git"
)

// None is rendered for a category without paths.
const None = "None\n"

// Category names a status category.
type Category string

const (
	Conflicting          Category = "conflicting"
	Added                Category = "added"
	Changed              Category = "changed"
	Missing              Category = "missing"
	Modified             Category = "modified"
	Removed              Category = "removed"
	Uncommitted          Category = "uncommitted"
	Untracked            Category = "untracked"
	UntrackedDirectories Category = "untracked-directories"
)

// Categories is the positional order used by Display.Strings and Bind.
var Categories = [9]Category{
	Conflicting,
	Added,
	Changed,
	Missing,
	Modified,
	Removed,
	Uncommitted,
	Untracked,
	UntrackedDirectories,
}

var ErrNotEnoughSlots = fmt.Errorf("%w: fewer than %d status slots", git.ErrValidation, len(Categories))

// Display holds the rendered text of every category.
type Display struct {
	Conflicting          string `json:"conflicting"`
	Added                string `json:"added"`
	Changed              string `json:"changed"`
	Missing              string `json:"missing"`
	Modified             string `json:"modified"`
	Removed              string `json:"removed"`
	Uncommitted          string `json:"uncommitted"`
	Untracked            string `json:"untracked"`
	UntrackedDirectories string `json:"untracked_directories"`
}

// Strings returns the display strings in Categories order.
func (d Display) Strings() [9]string {
	return [9]string{
		d.Conflicting,
		d.Added,
		d.Changed,
		d.Missing,
		d.Modified,
		d.Removed,
		d.Uncommitted,
		d.Untracked,
		d.UntrackedDirectories,
	}
}

// Get returns the display string of one category.
func (d Display) Get(category Category) (string, bool) {
	strs := d.Strings()
	for i, c := range Categories {
		if c == category {
			return strs[i], true
		}
	}
	return "", false
}

// Render converts a snapshot into display strings.
func Render(snapshot git.StatusSnapshot) Display {
	return Display{
		Conflicting:          renderPaths(snapshot.Conflicting),
		Added:                renderPaths(snapshot.Added),
		Changed:              renderPaths(snapshot.Changed),
		Missing:              renderPaths(snapshot.Missing),
		Modified:             renderPaths(snapshot.Modified),
		Removed:              renderPaths(snapshot.Removed),
		Uncommitted:          renderPaths(snapshot.Uncommitted),
		Untracked:            renderPaths(snapshot.Untracked),
		UntrackedDirectories: renderPaths(snapshot.UntrackedDirectories),
	}
}

func renderPaths(paths []string) string {
	if len(paths) == 0 {
		return None
	}

	var b strings.Builder
	for _, p := range paths {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	return b.String()
}

// Slot receives one rendered category.
type Slot interface {
	SetText(text string)
}

// SlotFunc adapts a function to Slot.
type SlotFunc func(text string)

func (f SlotFunc) SetText(text string) { f(text) }

// Bind writes the display strings into slots positionally. Slots beyond the
// ninth are left untouched; fewer than nine is an error and nothing is written.
func Bind(display Display, slots []Slot) error {
	if len(slots) < len(Categories) {
		return fmt.Errorf("%w: got %d", ErrNotEnoughSlots, len(slots))
	}
	for i := range Categories {
		if isNil(slots[i]) {
			return fmt.Errorf("%w: slot %d (%s) is nil", git.ErrValidation, i, Categories[i])
		}
	}

	for i, text := range display.Strings() {
		slots[i].SetText(text)
	}

	return nil
}

// isNil also catches a nil pointer or func stored in a non-nil Slot.
func isNil(slot Slot) bool {
	if slot == nil {
		return true
	}

	v := reflect.ValueOf(slot)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Chan, reflect.Interface, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
