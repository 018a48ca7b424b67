package scalespace

import (
	"github.com/pkg/errors"
)

// Octave is the set of levels of one spatial resolution. Levels are indexed by q in
// [BotLevel(), TopLevel()] and stored densely with an offset.
type Octave struct {
	p        int
	width    int
	height   int
	botLevel int
	topLevel int
	levels   []*Level
}

// NewOctave returns an empty octave p of the given size covering levels [botLevel, topLevel].
func NewOctave(p, width, height, botLevel, topLevel int) (*Octave, error) {
	if botLevel > topLevel {
		return nil, errors.Errorf("octave %d has an empty level range [%d, %d]", p, botLevel, topLevel)
	}
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("octave %d has an empty size %dx%d", p, width, height)
	}
	return &Octave{
		p:        p,
		width:    width,
		height:   height,
		botLevel: botLevel,
		topLevel: topLevel,
		levels:   make([]*Level, topLevel-botLevel+1),
	}, nil
}

// Index returns the octave index p.
func (o *Octave) Index() int {
	return o.p
}

// Width returns the width of every level of the octave.
func (o *Octave) Width() int {
	return o.width
}

// Height returns the height of every level of the octave.
func (o *Octave) Height() int {
	return o.height
}

// BotLevel returns the lowest level index.
func (o *Octave) BotLevel() int {
	return o.botLevel
}

// TopLevel returns the highest level index.
func (o *Octave) TopLevel() int {
	return o.topLevel
}

// Level returns level q, or nil when q is outside the range or not populated yet.
func (o *Octave) Level(q int) *Level {
	if q < o.botLevel || q > o.topLevel {
		return nil
	}
	return o.levels[q-o.botLevel]
}

// SetLevel stores level q. The level must match the octave size.
func (o *Octave) SetLevel(q int, level *Level) error {
	if q < o.botLevel || q > o.topLevel {
		return errors.Errorf("level %d is outside the range [%d, %d] of octave %d", q, o.botLevel, o.topLevel, o.p)
	}
	if level.Width() != o.width || level.Height() != o.height {
		return errors.Errorf("level %d of octave %d is %dx%d, expected %dx%d",
			q, o.p, level.Width(), level.Height(), o.width, o.height)
	}
	o.levels[q-o.botLevel] = level
	return nil
}

// IsInside reports whether (u, v) has a full 3x3 neighborhood in the octave.
func (o *Octave) IsInside(u, v int) bool {
	return u > 0 && v > 0 && u < o.width-1 && v < o.height-1
}
