package gui

import (
	"strconv"
	"strings"

	. "modernc.org/tk9.0"

	"github.com/okapilab/gitlanes/internal/graph"
	"github.com/okapilab/gitlanes/internal/gui/tkutil"
)

const (
	laneSpacing = 10
	laneMargin  = 6
	laneWidth   = 2

	badgePadX      = 4
	badgePadY      = 2
	badgeGap       = 6
	badgeMinX      = 2
	badgeConnector = 1

	badgeFont = "TkDefaultFont 9"
)

func (a *Controller) scheduleCanvasRedraw() {
	if a.ui.graphCanvas == nil || a.ui.treeView == nil {
		return
	}
	if a.state.canvas.redrawPending {
		return
	}
	a.state.canvas.redrawPending = true
	PostEvent(func() {
		a.state.canvas.redrawPending = false
		a.redrawCanvas()
	}, false)
}

// redrawCanvas repaints the lane graph for the rows currently visible in the
// treeview. Each row draws its input lanes above the midline, its output
// lanes below, and the commit node at its own lane.
func (a *Controller) redrawCanvas() {
	canvas := a.ui.graphCanvas
	tree := a.ui.treeView
	if canvas == nil || tree == nil {
		return
	}
	a.ensureCanvasOverlay()
	canvas.Delete("all")

	treePath := tree.String()
	if treePath == "" {
		return
	}
	treeHeight := tkutil.Atoi(tkutil.EvalOrEmpty("winfo height %s", treePath))
	yOffset := a.state.canvas.overlay.y
	contentHeight := a.state.canvas.overlay.h
	first := firstVisibleTreeItem(treePath, treeHeight)
	if first == "" || treeHeight <= 1 {
		return
	}

	canvasWidth := tkutil.Atoi(tkutil.EvalOrEmpty("%s column graph -width", treePath))
	if canvasWidth <= 0 {
		canvasWidth = tkutil.Atoi(tkutil.EvalOrEmpty("winfo width %s", canvas.String()))
	}
	if canvasWidth <= 0 {
		canvasWidth = 160
	}
	maxLanes := maxCanvasLanes(canvasWidth)
	if maxLanes <= 0 {
		return
	}

	selected := map[string]struct{}{}
	for _, id := range tree.Selection("") {
		selected[id] = struct{}{}
	}

	item := first
	for item != "" {
		// Use the first data column (#1); the tree column (#0) is hidden
		// under show=headings.
		bbox := strings.Fields(tkutil.EvalOrEmpty("%s bbox {%s} #1", treePath, item))
		if len(bbox) < 4 {
			break
		}
		y := tkutil.Atoi(bbox[1]) - yOffset
		h := tkutil.Atoi(bbox[3])
		if contentHeight > 0 && y > contentHeight {
			break
		}
		_, isSelected := selected[item]
		if idx, err := strconv.Atoi(item); err == nil && idx >= 0 && idx < len(a.data.rows) {
			a.drawLaneRow(a.data.rows[idx], y, h, maxLanes, canvasWidth, isSelected)
		}
		item = strings.TrimSpace(tkutil.EvalOrEmpty("%s next {%s}", treePath, item))
	}
}

func (a *Controller) drawLaneRow(vm graph.ItemViewModel, yTop, height, maxLanes, canvasWidth int, selected bool) {
	canvas := a.ui.graphCanvas
	if canvas == nil || maxLanes <= 0 || height <= 0 {
		return
	}
	if selected && canvasWidth > 0 {
		canvas.CreateRectangle(
			0, yTop,
			canvasWidth, yTop+height,
			Fill(a.theme.palette.SelectedRow),
			Width(0),
		)
	}
	yMid := rowMidY(yTop, height)
	radius := min(laneSpacing/2, max(2, height/3))
	fallback := laneFallbackColor(a.theme.lanes)

	for i, lane := range vm.InputSwimlanes {
		if i >= maxLanes {
			break
		}
		x := laneCenterX(i)
		canvas.CreateLine(x, yTop, x, yMid, Width(laneWidth), Fill(laneColor(lane, fallback)))
	}
	for i, lane := range vm.OutputSwimlanes {
		if i >= maxLanes {
			break
		}
		x := laneCenterX(i)
		canvas.CreateLine(x, yMid, x, yTop+height, Width(laneWidth), Fill(laneColor(lane, fallback)))
	}

	nodeIdx := nodeLaneIndex(vm)
	if nodeIdx >= maxLanes {
		nodeIdx = maxLanes - 1
	}
	nodeX := laneCenterX(nodeIdx)
	nodeColor := graph.RowColor(vm)
	if nodeColor == "" {
		nodeColor = fallback
	}
	fill := a.theme.palette.NodeFill
	if vm.IsCurrent {
		fill = a.theme.palette.HeadNodeFill
	}
	canvas.CreateOval(
		nodeX-radius, yMid-radius,
		nodeX+radius, yMid+radius,
		Fill(fill),
		Outline(nodeColor),
		Width(1),
	)
	a.drawRefBadges(vm, nodeX, yMid, radius, nodeColor, canvasWidth)
}

func (a *Controller) drawRefBadges(vm graph.ItemViewModel, nodeX, yMid, radius int, nodeColor string, canvasWidth int) {
	canvas := a.ui.graphCanvas
	refs := refBadges(vm)
	if canvas == nil || len(refs) == 0 || canvasWidth <= 0 {
		return
	}
	canvasPath := canvas.String()
	if canvasPath == "" {
		return
	}
	dark := a.theme.palette.isDark()
	x := max(badgeMinX, nodeX+radius+badgeGap)
	connected := false
	for _, ref := range refs {
		label := refBadgeText(ref, ref.ID == a.repo.headRef && vm.IsCurrent)
		if label == "" {
			continue
		}
		if x >= canvasWidth-badgeGap {
			break
		}
		style := badgeStyleFor(dark, ref, label, nodeColor)
		textID := canvas.CreateText(
			x+badgePadX, yMid,
			Anchor(W),
			Txt(label),
			Font(badgeFont),
			Fill(style.text),
		)
		bbox := canvas.Bbox(textID)
		if len(bbox) < 4 {
			continue
		}
		x1 := tkutil.Atoi(bbox[0]) - badgePadX
		y1 := tkutil.Atoi(bbox[1]) - badgePadY
		x2 := tkutil.Atoi(bbox[2]) + badgePadX
		y2 := tkutil.Atoi(bbox[3]) + badgePadY
		if x1 >= canvasWidth {
			continue
		}
		rectID := canvas.CreateRectangle(
			x1, y1,
			min(x2, canvasWidth), y2,
			Fill(style.fill),
			Outline(style.out),
			Width(1),
		)
		tkutil.EvalOrEmpty("%s lower %s %s", canvasPath, rectID, textID)
		if !connected && x1 > nodeX+radius {
			connected = true
			canvas.CreateLine(nodeX+radius, yMid, x1, yMid, Width(badgeConnector), Fill(style.out))
		}
		x = x2 + badgeGap
	}
}

type badgeStyle struct {
	fill string
	out  string
	text string
}

func badgeStyleFor(dark bool, ref graph.Reference, label string, nodeColor string) badgeStyle {
	if strings.HasPrefix(label, "HEAD") {
		if dark {
			return badgeStyle{fill: "#b58900", out: "#8a6a00", text: "#111111"}
		}
		return badgeStyle{fill: "#ffd75e", out: "#c9a300", text: "#111111"}
	}
	out := ref.Color
	if out == "" {
		out = nodeColor
	}
	switch ref.Kind {
	case graph.RefTag:
		if dark {
			return badgeStyle{fill: "#3a3a3a", out: "#6b6b6b", text: "#eaeaea"}
		}
		return badgeStyle{fill: "#e6e6e6", out: "#8a8a8a", text: "#111111"}
	case graph.RefRemote, graph.RefBase:
		if dark {
			return badgeStyle{fill: "#253446", out: out, text: "#eaeaea"}
		}
		return badgeStyle{fill: "#dbeafe", out: out, text: "#111111"}
	default:
		if dark {
			return badgeStyle{fill: "#1f3b2a", out: out, text: "#eaeaea"}
		}
		return badgeStyle{fill: "#dff5de", out: out, text: "#111111"}
	}
}

func (a *Controller) ensureCanvasOverlay() {
	canvas := a.ui.graphCanvas
	tree := a.ui.treeView
	canvasPath := canvas.String()
	treePath := tree.String()
	if canvasPath == "" || treePath == "" {
		return
	}

	bg := strings.TrimSpace(tkutil.EvalOrEmpty("ttk::style lookup Treeview -background"))
	if bg == "" {
		bg = strings.TrimSpace(tkutil.EvalOrEmpty("ttk::style lookup Treeview -fieldbackground"))
	}
	treeHeight := tkutil.Atoi(tkutil.EvalOrEmpty("winfo height %s", treePath))
	treeWidth := tkutil.Atoi(tkutil.EvalOrEmpty("winfo width %s", treePath))
	xOffset, yOffset, colWidth := graphContentCellGeometry(treePath, treeHeight)
	if colWidth <= 0 {
		colWidth = tkutil.Atoi(tkutil.EvalOrEmpty("%s column graph -width", treePath))
	}
	if colWidth <= 0 {
		colWidth = 160
	}
	if xOffset <= 0 {
		xOffset = 1
	}
	if treeWidth > 0 {
		// Leave the left and right borders visible.
		colWidth = min(colWidth, max(0, treeWidth-xOffset-1))
	}
	// Leave the bottom border visible.
	canvasHeight := max(0, treeHeight-yOffset-1)

	st := &a.state.canvas.overlay
	if st.ready && st.width == colWidth && st.x == xOffset && st.y == yOffset && st.h == canvasHeight && st.bg == bg {
		return
	}
	st.width = colWidth
	st.x = xOffset
	st.y = yOffset
	st.h = canvasHeight
	st.bg = bg
	if bg != "" {
		canvas.Configure(Background(bg))
	}
	// Place the overlay only over the content area, not over the header.
	tkutil.EvalOrEmpty("place %s -in %s -x %d -y %d -width %d -height %d", canvasPath, treePath, xOffset, yOffset, colWidth, canvasHeight)
	tkutil.EvalOrEmpty("raise %s", canvasPath)

	if st.ready {
		return
	}
	st.ready = true
	// Forward basic interactions from the overlay to the treeview.
	//
	// Canvas event coordinates are relative to the canvas; convert to treeview
	// coordinates using the widgets' root positions.
	forward := func(event, extra string) {
		tkutil.EvalOrEmpty(`
			bind %[1]s <%[3]s> {
				set rx [winfo rootx %%W]
				set ry [winfo rooty %%W]
				set trx [winfo rootx %[2]s]
				set try [winfo rooty %[2]s]
				set x [expr {%%x + $rx - $trx}]
				set y [expr {%%y + $ry - $try}]
				focus %[2]s
				event generate %[2]s <%[3]s> -x $x -y $y%[4]s
			}
		`, canvasPath, treePath, event, extra)
	}
	for _, event := range []string{"Button-1", "Double-Button-1", "Button-2", "Button-3", "Button-4", "Button-5"} {
		forward(event, "")
	}
	forward("MouseWheel", " -delta %D")
}

func firstVisibleTreeItem(treePath string, treeHeight int) string {
	if treePath == "" || treeHeight <= 1 {
		return ""
	}
	probeLimit := min(treeHeight-1, 200)
	x := 5
	for y := 1; y <= probeLimit; y++ {
		region := strings.TrimSpace(tkutil.EvalOrEmpty("%s identify region %d %d", treePath, x, y))
		switch region {
		case "cell", "tree":
		default:
			continue
		}
		item := strings.TrimSpace(tkutil.EvalOrEmpty("%s identify item %d %d", treePath, x, y))
		if item != "" {
			return item
		}
	}
	return ""
}

func graphContentCellGeometry(treePath string, treeHeight int) (xOffset int, yOffset int, width int) {
	if treePath == "" || treeHeight <= 1 {
		return 0, 0, 0
	}
	first := firstVisibleTreeItem(treePath, treeHeight)
	if first == "" {
		return 0, 0, 0
	}
	bbox := strings.Fields(tkutil.EvalOrEmpty("%s bbox {%s} #1", treePath, first))
	if len(bbox) < 4 {
		return 0, 0, 0
	}
	return tkutil.Atoi(bbox[0]), tkutil.Atoi(bbox[1]), tkutil.Atoi(bbox[2])
}

// nodeLaneIndex returns the lane the commit node sits in: the input lane
// waiting for this commit, or the first free lane past the inputs when no
// lane points at it yet.
func nodeLaneIndex(vm graph.ItemViewModel) int {
	for i, lane := range vm.InputSwimlanes {
		if lane.ID == vm.Item.ID {
			return i
		}
	}
	return len(vm.InputSwimlanes)
}

func laneCenterX(col int) int {
	return laneMargin + col*laneSpacing + laneSpacing/2
}

func laneColor(lane graph.Node, fallback string) string {
	if lane.Color != "" {
		return lane.Color
	}
	return fallback
}

func laneFallbackColor(pal graph.Palette) string {
	if len(pal.Lanes) > 0 {
		return pal.Lanes[0]
	}
	return "#555555"
}

func rowMidY(yTop int, height int) int {
	if height <= 0 {
		return yTop
	}
	return yTop + (height-1)/2
}

func maxCanvasLanes(canvasWidth int) int {
	avail := canvasWidth - 2*laneMargin
	if avail <= 0 {
		return 0
	}
	return max(1, avail/laneSpacing)
}
