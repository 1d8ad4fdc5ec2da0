package gui

import (
	"testing"

	"github.com/okapilab/gitlanes/internal/graph"
)

func TestMaxCanvasLanes(t *testing.T) {
	if got := maxCanvasLanes(0); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := maxCanvasLanes(2 * laneMargin); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := maxCanvasLanes(2*laneMargin + laneSpacing); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestRowMidY(t *testing.T) {
	if got := rowMidY(10, 0); got != 10 {
		t.Fatalf("expected yTop for empty height, got %d", got)
	}
	if got := rowMidY(10, 21); got != 20 {
		t.Fatalf("expected yTop+10 for odd height, got %d", got)
	}
	if got := rowMidY(10, 20); got != 19 {
		t.Fatalf("expected yTop+9 for even height, got %d", got)
	}
}

func TestLaneCenterX(t *testing.T) {
	if got := laneCenterX(0); got != laneMargin+laneSpacing/2 {
		t.Fatalf("unexpected first lane center %d", got)
	}
	if got := laneCenterX(2) - laneCenterX(1); got != laneSpacing {
		t.Fatalf("lanes must be evenly spaced, got gap %d", got)
	}
}

func TestNodeLaneIndex(t *testing.T) {
	vm := graph.ItemViewModel{
		Item: graph.HistoryItem{ID: "b"},
		InputSwimlanes: []graph.Node{
			{ID: "a"},
			{ID: "b"},
			{ID: "c"},
		},
	}
	if got := nodeLaneIndex(vm); got != 1 {
		t.Fatalf("expected matching input lane 1, got %d", got)
	}

	// A commit no lane points at yet gets the first lane past the inputs.
	vm.Item.ID = "z"
	if got := nodeLaneIndex(vm); got != 3 {
		t.Fatalf("expected lane past inputs, got %d", got)
	}

	if got := nodeLaneIndex(graph.ItemViewModel{Item: graph.HistoryItem{ID: "root"}}); got != 0 {
		t.Fatalf("expected lane 0 with no inputs, got %d", got)
	}
}

func TestLaneColorFallback(t *testing.T) {
	if got := laneColor(graph.Node{Color: "#112233"}, "#fff"); got != "#112233" {
		t.Fatalf("expected explicit color, got %q", got)
	}
	if got := laneColor(graph.Node{}, "#fff"); got != "#fff" {
		t.Fatalf("expected fallback, got %q", got)
	}
	if got := laneFallbackColor(graph.Palette{}); got == "" {
		t.Fatalf("empty palette must still yield a drawable color")
	}
}
