package gui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okapilab/gitlanes/internal/graph"
)

type treeRow struct {
	ID     string
	Graph  string
	Commit string
	Author string
	Date   string
}

// buildTreeRows flattens view models into treeview rows. The graph column
// stays empty; the canvas overlay renders lanes and reference badges there.
func buildTreeRows(rows []graph.ItemViewModel) []treeRow {
	if len(rows) == 0 {
		return nil
	}
	out := make([]treeRow, 0, len(rows))
	for i, vm := range rows {
		msg, author, when := commitListColumns(vm.Item)
		out = append(out, treeRow{
			ID:     strconv.Itoa(i),
			Commit: msg,
			Author: author,
			Date:   when,
		})
	}
	return out
}

func commitListColumns(item graph.HistoryItem) (msg, author, when string) {
	firstLine := strings.SplitN(strings.TrimSpace(item.Subject), "\n", 2)[0]
	if len(firstLine) > 80 {
		firstLine = firstLine[:77] + "..."
	}
	msg = fmt.Sprintf("%s  %s", shortHash(item.FullHash), firstLine)
	author = item.Author
	when = item.Timestamp.Format("2006-01-02 15:04")
	return
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

// refBadges returns the labels drawn next to a commit's node, HEAD first.
func refBadges(vm graph.ItemViewModel) []graph.Reference {
	if len(vm.Item.References) == 0 {
		return nil
	}
	return vm.Item.References
}

func refBadgeText(ref graph.Reference, isCurrent bool) string {
	name := ref.Name
	if name == "" {
		name = ref.ID
	}
	if ref.Kind == graph.RefTag {
		return "tag: " + name
	}
	if isCurrent {
		return "HEAD -> " + name
	}
	return name
}
