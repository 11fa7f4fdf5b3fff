// Package engine holds the static description of a tournament
// contestant. One Descriptor exists per configured engine for the
// lifetime of the process and is shared by all workers.
package engine

import (
	"sync"

	"github.com/folkertvanheusden/badank/rating"
)

// Descriptor describes one configured engine. Command, Dir, AltName and
// Target are set once from the configuration; the resolved display name
// and the rating are mutated by workers under their respective locks.
type Descriptor struct {
	Command string
	Dir     string
	AltName string
	Target  bool

	Rating *rating.Rating

	mu   sync.Mutex
	name string
}

// NewDescriptor builds a descriptor with a fresh, unrated Glicko-2
// rating.
func NewDescriptor(command, dir, altName string, target bool) *Descriptor {
	return &Descriptor{
		Command: command,
		Dir:     dir,
		AltName: altName,
		Target:  target,
		Rating:  rating.New(),
	}
}

// SetName stores the display name resolved from a live instance.
func (d *Descriptor) SetName(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.name = name
}

// Name returns the resolved display name, falling back to the command
// line for engines whose name no game has resolved yet.
func (d *Descriptor) Name() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.name == "" {
		return d.Command
	}
	return d.name
}
