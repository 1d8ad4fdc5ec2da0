package graph

// Palette holds the fixed colors Layout consumes: the lane rotation plus the
// kind-specific fallbacks used when a reference resolves no other color.
type Palette struct {
	Lanes  []string
	Branch string
	Remote string
	Base   string
	Tag    string
	Other  string
}

// Based on gitk's default colors; keep a small, high-contrast palette.
var (
	lightLanes = []string{"#00cc00", "#cc0000", "#0055cc", "#aa00aa", "#555555", "#8b4513", "#ff8c00"}
	darkLanes  = []string{"#00ff00", "#ff5c5c", "#4fa3ff", "#d56bff", "#a0a0a0", "#d09a6b", "#ffb347"}
)

func DefaultPalette(dark bool) Palette {
	if dark {
		return Palette{
			Lanes:  darkLanes,
			Branch: "#00ff00",
			Remote: "#4fa3ff",
			Base:   "#d09a6b",
			Tag:    "#a0a0a0",
			Other:  "#6b6b6b",
		}
	}
	return Palette{
		Lanes:  lightLanes,
		Branch: "#00cc00",
		Remote: "#0055cc",
		Base:   "#8b4513",
		Tag:    "#555555",
		Other:  "#8a8a8a",
	}
}

func (p Palette) kindDefault(kind RefKind) string {
	switch kind {
	case RefRemote:
		return p.Remote
	case RefBase:
		return p.Base
	case RefTag:
		return p.Tag
	case RefBranch:
		return p.Branch
	default:
		return p.Other
	}
}

// laneRotation hands out lane colors in order. The counter only ever advances,
// so a color handed to one lane is never reissued to a later lane within the
// same layout pass until the palette wraps.
type laneRotation struct {
	palette []string
	next    int
}

func (r *laneRotation) rotate() string {
	if len(r.palette) == 0 {
		return ""
	}
	color := r.palette[r.next%len(r.palette)]
	r.next++
	return color
}
