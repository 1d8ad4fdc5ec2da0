// Package graph turns a newest-first commit page into per-row swimlane view
// models: which lanes enter and leave every row, and which color each lane and
// reference label uses.
package graph

import (
	"slices"
	"sort"
)

// Layout computes the swimlane view model for every item in the snapshot. It
// is pure: the snapshot is not retained and its items are not mutated; the
// returned view models carry their own copies with resolved reference colors.
//
// Each row inherits the previous row's output lanes as its input lanes. The
// reference-color cache lives in a local map for exactly one pass, so colors
// never leak between snapshots.
func Layout(snap Snapshot, pal Palette) []ItemViewModel {
	viewModels := make([]ItemViewModel, 0, len(snap.Items))
	colorMap := make(map[string]string)
	rotation := laneRotation{palette: pal.Lanes}

	byID := make(map[string]*HistoryItem, len(snap.Items))
	for i := range snap.Items {
		byID[snap.Items[i].ID] = &snap.Items[i]
	}

	var prevOutput []Node
	for _, item := range snap.Items {
		input := slices.Clone(prevOutput)
		parents := presentParents(item.ParentIDs)
		label := labelColor(item, colorMap)

		var output []Node
		if len(parents) > 0 {
			// Mainline continuation: the lane that was waiting for this
			// commit now waits for its first parent. Duplicate ids in the
			// input resolve first-match-wins; extra duplicates are closed.
			output = make([]Node, 0, len(input)+len(parents))
			substituted := false
			for _, node := range input {
				if node.ID == item.ID {
					if !substituted {
						substituted = true
						color := label
						if color == "" {
							color = node.Color
						}
						output = append(output, Node{ID: parents[0], Color: color})
					}
					continue
				}
				output = append(output, node)
			}
			// Open a lane for every parent that has no lane yet. When the item
			// itself had no lane (root of the loaded view) that includes the
			// first parent.
			start := 1
			if !substituted {
				start = 0
			}
			for i := start; i < len(parents); i++ {
				output = append(output, Node{ID: parents[i], Color: mergeParentColor(i, parents[i], label, byID, colorMap, &rotation)})
			}
		}
		// Zero-parent rows terminate the graph at this point of the view.

		vm := ItemViewModel{
			Item:            item,
			IsCurrent:       isHead(item, snap.HeadCommit),
			InputSwimlanes:  input,
			OutputSwimlanes: output,
		}
		resolveReferenceColors(&vm, snap, pal, colorMap)
		viewModels = append(viewModels, vm)
		prevOutput = output
	}
	return viewModels
}

// RowColor resolves the color of the row's own circle: the color at the index
// where the item was found in its input lanes, preferring the substituted
// output lane at that index. Rows without an input lane borrow the lane just
// opened for their first parent.
func RowColor(vm ItemViewModel) string {
	if idx := laneIndex(vm.InputSwimlanes, vm.Item.ID); idx != -1 {
		if idx < len(vm.OutputSwimlanes) {
			return vm.OutputSwimlanes[idx].Color
		}
		return vm.InputSwimlanes[idx].Color
	}
	if parents := presentParents(vm.Item.ParentIDs); len(parents) > 0 {
		if idx := laneIndex(vm.OutputSwimlanes, parents[0]); idx != -1 {
			return vm.OutputSwimlanes[idx].Color
		}
	}
	for _, ref := range vm.Item.References {
		if ref.Color != "" {
			return ref.Color
		}
	}
	return ""
}

// labelColor picks the color the item's labels contribute to its lanes: the
// first explicit reference color, else a color already cached for one of the
// item's reference ids.
func labelColor(item HistoryItem, colorMap map[string]string) string {
	for _, ref := range item.References {
		if ref.Color != "" {
			return ref.Color
		}
	}
	for _, ref := range item.References {
		if color, ok := colorMap[ref.ID]; ok && color != "" {
			return color
		}
	}
	return ""
}

func mergeParentColor(index int, parentID, label string, byID map[string]*HistoryItem, colorMap map[string]string, rotation *laneRotation) string {
	if index == 0 && label != "" {
		return label
	}
	if parent, ok := byID[parentID]; ok {
		if color := labelColor(*parent, colorMap); color != "" {
			return color
		}
	}
	if label != "" {
		return label
	}
	return rotation.rotate()
}

// resolveReferenceColors rewrites the view model's references with resolved
// colors and sorts them for display. Results are cached per reference id so a
// reference recurring later in the pass keeps its color.
func resolveReferenceColors(vm *ItemViewModel, snap Snapshot, pal Palette, colorMap map[string]string) {
	if len(vm.Item.References) == 0 {
		return
	}
	rowColor := RowColor(*vm)
	refs := slices.Clone(vm.Item.References)
	for i := range refs {
		color := refs[i].Color
		if color == "" {
			color = rowColor
		}
		if color == "" {
			color = colorMap[refs[i].ID]
		}
		if color == "" {
			color = pal.kindDefault(refs[i].Kind)
		}
		refs[i].Color = color
		colorMap[refs[i].ID] = color
	}
	sort.SliceStable(refs, func(i, j int) bool {
		return refDisplayRank(refs[i], snap) < refDisplayRank(refs[j], snap)
	})
	vm.Item.References = refs
}

// refDisplayRank orders references for display: the current ref, its
// remote-tracking ref, the base ref, any colored ref, then the rest.
func refDisplayRank(ref Reference, snap Snapshot) int {
	switch {
	case snap.CurrentRef != "" && ref.ID == snap.CurrentRef:
		return 0
	case snap.CurrentRemoteRef != "" && ref.ID == snap.CurrentRemoteRef:
		return 1
	case snap.CurrentBaseRef != "" && ref.ID == snap.CurrentBaseRef:
		return 2
	case ref.Color != "":
		return 3
	default:
		return 4
	}
}

func laneIndex(nodes []Node, id string) int {
	for i, node := range nodes {
		if node.ID == id {
			return i
		}
	}
	return -1
}

// presentParents drops empty parent ids so malformed metadata degrades to "no
// lane to close" instead of corrupting the lane bookkeeping.
func presentParents(ids []string) []string {
	for _, id := range ids {
		if id == "" {
			filtered := make([]string, 0, len(ids))
			for _, id := range ids {
				if id != "" {
					filtered = append(filtered, id)
				}
			}
			return filtered
		}
	}
	return ids
}

func isHead(item HistoryItem, head string) bool {
	if head == "" {
		return false
	}
	return item.ID == head || item.FullHash == head
}
