package graph

import "time"

// RefKind classifies a reference for icon and fallback-color purposes.
type RefKind int

const (
	RefBranch RefKind = iota
	RefRemote
	RefBase
	RefTag
	RefOther
)

func (k RefKind) String() string {
	switch k {
	case RefBranch:
		return "branch"
	case RefRemote:
		return "remote"
	case RefBase:
		return "base"
	case RefTag:
		return "tag"
	default:
		return "other"
	}
}

// Reference is a named pointer (branch, tag, remote-tracking branch) attached
// to a commit. Color is optional on input; Layout resolves it on the view
// model copies.
type Reference struct {
	ID    string
	Name  string
	Kind  RefKind
	Color string
}

// HistoryItem is one commit in a newest-first history page. ParentIDs are
// ordered, index 0 being the mainline parent.
type HistoryItem struct {
	ID         string
	FullHash   string
	ParentIDs  []string
	Subject    string
	Author     string
	Timestamp  time.Time
	References []Reference
}

// Snapshot is one immutable page set of history as produced by a provider.
// CurrentRef, CurrentRemoteRef and CurrentBaseRef hold reference ids relative
// to which per-item references are flagged and sorted.
type Snapshot struct {
	Items            []HistoryItem
	HasMore          bool
	NextCursor       int
	HeadCommit       string
	CurrentRef       string
	CurrentRemoteRef string
	CurrentBaseRef   string
}

// Node is one open swimlane: a lane that still awaits the commit it points at.
type Node struct {
	ID    string
	Color string
}

// ItemViewModel is the per-row layout result. It is recomputed wholesale per
// snapshot and never mutated incrementally. Item carries resolved reference
// colors; the original snapshot is left untouched.
type ItemViewModel struct {
	Item            HistoryItem
	IsCurrent       bool
	InputSwimlanes  []Node
	OutputSwimlanes []Node
}
