package gui

import (
	"sync"
	"sync/atomic"

	"github.com/okapilab/gitlanes/internal/debounce"
)

// fileSection marks where a file's diff starts inside the rendered detail
// text, 1-based. The listbox on the right maps selections onto these.
type fileSection struct {
	Path string
	Line int
}

type diffState struct {
	fileSections          []fileSection
	syntaxTags            map[string]string
	suppressFileSelection bool
	skipNextSync          bool

	mu          sync.Mutex
	debouncer   *debounce.Debouncer
	pendingHash string
}

type treeState struct {
	hasMore      bool
	loadingBatch bool
}

type selectionState struct {
	hash atomic.Pointer[string]
}

type canvasState struct {
	redrawPending bool
	overlay       overlayGeometry
}

// overlayGeometry caches the last `place` of the graph canvas over the
// treeview's graph column, so redraws skip the Tk calls when nothing moved.
type overlayGeometry struct {
	ready bool
	width int
	x     int
	y     int
	h     int
	bg    string
}
