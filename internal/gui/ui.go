package gui

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	. "modernc.org/tk9.0"
	evalext "modernc.org/tk9.0/extensions/eval"

	"github.com/okapilab/gitlanes/internal/gui/tkutil"
)

type appWidgets struct {
	status       *TLabelWidget
	reloadButton *TButtonWidget
	graphCanvas  *CanvasWidget
	treeView     *TTreeviewWidget
	diffDetail   *TextWidget
	diffFileList *ListboxWidget
}

func (a *Controller) buildUI() {
	GridColumnConfigure(App, 0, Weight(1))
	GridRowConfigure(App, 1, Weight(1))

	controls := App.TFrame(Padding("8p"))
	Grid(controls, Row(0), Column(0), Sticky(WE))
	GridColumnConfigure(controls.Window, 0, Weight(1))

	repoLabel := fmt.Sprintf("Repository: %s", a.repo.path)
	Grid(controls.TLabel(Txt(repoLabel), Anchor(W)), Row(0), Column(0), Sticky(W))
	a.ui.reloadButton = controls.TButton(Txt("Reload"), Command(a.onReloadButton))
	Grid(a.ui.reloadButton, Row(0), Column(1), Sticky(E))

	pane := App.TPanedwindow(Orient(VERTICAL))
	Grid(pane, Row(1), Column(0), Sticky(NEWS), Padx("4p"), Pady("4p"))

	listArea := pane.TFrame()
	diffArea := pane.TFrame()
	pane.Add(listArea.Window)
	pane.Add(diffArea.Window)

	GridRowConfigure(listArea.Window, 0, Weight(1))
	GridColumnConfigure(listArea.Window, 0, Weight(1))
	GridRowConfigure(diffArea.Window, 0, Weight(1))
	GridColumnConfigure(diffArea.Window, 0, Weight(1))

	treeScroll := listArea.TScrollbar()
	a.ui.treeView = listArea.TTreeview(
		Show("headings"),
		Columns("graph commit author date"),
		Selectmode("browse"),
		Height(18),
		Yscrollcommand(func(e *Event) {
			e.ScrollSet(treeScroll)
			a.maybeLoadMoreOnScroll()
			a.scheduleCanvasRedraw()
		}),
	)
	a.ui.treeView.Column("graph", Anchor(W), Width(160))
	a.ui.treeView.Column("commit", Anchor(W), Width(380))
	a.ui.treeView.Column("author", Anchor(W), Width(280))
	a.ui.treeView.Column("date", Anchor(W), Width(180))
	a.ui.treeView.Heading("graph", Txt("Graph"))
	a.ui.treeView.Heading("commit", Txt("Commit"))
	a.ui.treeView.Heading("author", Txt("Author"))
	a.ui.treeView.Heading("date", Txt("Date"))
	Grid(a.ui.treeView, Row(0), Column(0), Sticky(NEWS))
	Grid(treeScroll, Row(0), Column(1), Sticky(NS))
	treeScroll.Configure(Command(func(e *Event) {
		e.Yview(a.ui.treeView)
		a.scheduleCanvasRedraw()
	}))

	// The lane graph is drawn on a canvas placed over the graph column.
	a.ui.graphCanvas = listArea.Canvas(Background("white"))

	Bind(a.ui.treeView, "<<TreeviewSelect>>", Command(a.onTreeSelectionChanged))
	Bind(a.ui.treeView, "<Configure>", Command(func() { a.scheduleCanvasRedraw() }))

	diffPane := diffArea.TPanedwindow(Orient(HORIZONTAL))
	Grid(diffPane, Row(0), Column(0), Sticky(NEWS))

	textFrame := diffPane.TFrame()
	fileFrame := diffPane.TFrame()
	diffPane.Add(textFrame.Window)
	diffPane.Add(fileFrame.Window)
	configurePane := func(window *Window, options string) {
		if _, err := evalext.Eval(fmt.Sprintf("%s pane %s %s", diffPane, window, options)); err != nil {
			log.Printf("pane %s %s: %v", window, options, err)
		}
	}
	configurePane(textFrame.Window, "-weight 5")
	configurePane(fileFrame.Window, "-weight 1")

	GridRowConfigure(fileFrame.Window, 0, Weight(1))
	GridColumnConfigure(fileFrame.Window, 0, Weight(1))
	GridRowConfigure(textFrame.Window, 0, Weight(1))
	GridColumnConfigure(textFrame.Window, 0, Weight(1))

	detailYScroll := textFrame.TScrollbar(Command(func(e *Event) {
		e.Yview(a.ui.diffDetail)
		a.onDiffScrolled()
	}))
	detailXScroll := textFrame.TScrollbar(Orient(HORIZONTAL), Command(func(e *Event) { e.Xview(a.ui.diffDetail) }))
	a.ui.diffDetail = textFrame.Text(Wrap(NONE), Font(CourierFont(), 11), Exportselection(false), Tabs("1c"))
	a.ui.diffDetail.Configure(Yscrollcommand(func(e *Event) {
		e.ScrollSet(detailYScroll)
		a.onDiffScrolled()
	}))
	a.ui.diffDetail.Configure(Xscrollcommand(func(e *Event) { e.ScrollSet(detailXScroll) }))
	a.ui.diffDetail.TagConfigure("diffAdd", Background(a.theme.palette.DiffAdd))
	a.ui.diffDetail.TagConfigure("diffDel", Background(a.theme.palette.DiffDel))
	a.ui.diffDetail.TagConfigure("diffHeader", Background(a.theme.palette.DiffHeader))
	Grid(a.ui.diffDetail, Row(0), Column(0), Sticky(NEWS))
	Grid(detailYScroll, Row(0), Column(1), Sticky(NS))
	Grid(detailXScroll, Row(1), Column(0), Sticky(WE))
	a.ui.diffDetail.Configure(State("disabled"))

	fileScroll := fileFrame.TScrollbar()
	a.ui.diffFileList = fileFrame.Listbox(Exportselection(false), Width(40))
	a.ui.diffFileList.Configure(Yscrollcommand(func(e *Event) { e.ScrollSet(fileScroll) }))
	Grid(a.ui.diffFileList, Row(0), Column(0), Sticky(NEWS))
	Grid(fileScroll, Row(0), Column(1), Sticky(NS))
	fileScroll.Configure(Command(func(e *Event) { e.Yview(a.ui.diffFileList) }))
	Bind(a.ui.diffFileList, "<<ListboxSelect>>", Command(a.onFileSelectionChanged))

	a.ui.status = App.TLabel(Anchor(W), Relief(SUNKEN), Padding("4p"))
	Grid(a.ui.status, Row(2), Column(0), Sticky(WE))

	a.clearDetailText("Select a commit to view its details.")
}

func (a *Controller) showInitialLoadingRow() {
	if a.ui.treeView == nil || len(a.data.rows) != 0 {
		return
	}
	vals := tclList("", "Loading commits...", "", "")
	a.ui.treeView.Insert("", "end", Id(loadingIndicatorID), Values(vals))
}

// populateTree rebuilds the treeview from the current rows, keeping the
// selection on the same commit when it survives the refresh.
func (a *Controller) populateTree() {
	if a.ui.treeView == nil {
		return
	}
	selectedHash := a.currentSelection()
	a.clearTreeRows()
	for _, row := range buildTreeRows(a.data.rows) {
		a.ui.treeView.Insert("", "end", Id(row.ID), Values(tclList(row.Graph, row.Commit, row.Author, row.Date)))
	}
	if a.state.tree.hasMore {
		vals := tclList("", "Scroll to load more commits...", "", "")
		a.ui.treeView.Insert("", "end", Id(moreIndicatorID), Values(vals))
	}
	if selectedHash != "" {
		for i, vm := range a.data.rows {
			if vm.Item.FullHash == selectedHash {
				id := strconv.Itoa(i)
				a.ui.treeView.Selection("set", id)
				break
			}
		}
	}
}

func (a *Controller) clearTreeRows() {
	path := a.ui.treeView.String()
	if path == "" {
		return
	}
	if _, err := evalext.Eval(fmt.Sprintf("%s delete [%s children {}]", path, path)); err != nil {
		log.Printf("clear tree rows: %v", err)
	}
}

func (a *Controller) onTreeSelectionChanged() {
	if a.ui.treeView == nil {
		return
	}
	sel := a.ui.treeView.Selection("")
	if len(sel) == 0 {
		return
	}
	switch sel[0] {
	case moreIndicatorID:
		a.loadMoreCommitsAsync()
		return
	case loadingIndicatorID:
		return
	}
	idx, err := strconv.Atoi(sel[0])
	if err != nil || idx < 0 || idx >= len(a.data.rows) {
		return
	}
	a.scheduleCanvasRedraw()
	a.showCommitDetails(idx)
}

func (a *Controller) maybeLoadMoreOnScroll() {
	if !a.state.tree.hasMore || a.state.tree.loadingBatch {
		return
	}
	treePath := a.ui.treeView.String()
	if treePath == "" {
		return
	}
	fields := strings.Fields(tkutil.EvalOrEmpty("%s yview", treePath))
	if len(fields) < 2 {
		return
	}
	last, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return
	}
	if last >= autoLoadThreshold {
		a.loadMoreCommitsAsync()
	}
}

func escapeTclString(s string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"{", "\\{",
		"}", "\\}",
	)
	return replacer.Replace(s)
}

func tclList(values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, "{"+escapeTclString(v)+"}")
	}
	return strings.Join(parts, " ")
}
