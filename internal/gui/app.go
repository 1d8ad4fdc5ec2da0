package gui

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/okapilab/gitlanes/internal/debounce"
	"github.com/okapilab/gitlanes/internal/git"
	"github.com/okapilab/gitlanes/internal/graph"
	"github.com/okapilab/gitlanes/internal/refresh"

	. "modernc.org/tk9.0"
	_ "modernc.org/tk9.0/themes/azure" // load theme
)

const (
	autoLoadThreshold  = 0.98
	moreIndicatorID    = "__more__"
	loadingIndicatorID = "__loading__"
	diffDebounceDelay  = 120 * time.Millisecond
)

// RunConfig describes the parameters that control the GUI runtime.
type RunConfig struct {
	RepoPath        string
	Batch           int
	ThemePreference ThemePreference
	AutoRefresh     bool
	SyntaxHighlight bool
	Verbose         bool
}

func Run(cfg RunConfig) error {
	if cfg.RepoPath == "" {
		cfg.RepoPath = "."
	}
	if err := InitializeExtension("eval"); err != nil && err != AlreadyInitialized {
		return fmt.Errorf("init eval extension: %v", err)
	}
	provider, err := git.Open(cfg.RepoPath, cfg.Batch)
	if err != nil {
		return err
	}
	pref := cfg.ThemePreference
	if pref < ThemeAuto || pref > ThemeDark {
		pref = ThemeAuto
	}
	app := &Controller{
		provider: provider,
		cfg: controllerConfig{
			batch:                cfg.Batch,
			autoRefreshRequested: cfg.AutoRefresh,
			syntaxHighlight:      cfg.SyntaxHighlight,
			verbose:              cfg.Verbose,
		},
		repo: controllerRepo{
			path: provider.RepoPath(),
		},
		theme: controllerTheme{
			pref: pref,
		},
	}
	app.coord = refresh.NewCoordinator(app.refreshForHead)
	app.state.diff.syntaxTags = make(map[string]string)
	return app.run()
}

func (a *Controller) run() error {
	defer a.shutdown()
	a.theme.palette = paletteForPreference(a.theme.pref)
	a.theme.lanes = a.theme.palette.lanePalette()
	if a.theme.palette.ThemeName != "" {
		err := ActivateTheme(a.theme.palette.ThemeName)
		if err != nil {
			slog.Error(
				"activate theme",
				slog.String("theme", a.theme.palette.ThemeName),
				slog.Any("error", err),
			)
		}
	}
	level := slog.LevelInfo
	if a.cfg.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	a.buildUI()
	a.initAutoRefresh(a.cfg.autoRefreshRequested)
	a.showInitialLoadingRow()
	a.setStatus("Loading commits...")
	a.loadCommitsAsync(true)
	App.WmTitle("gitlanes")
	App.SetResizable(true, true)
	App.Center().Wait()
	return nil
}

func (a *Controller) loadCommitsAsync(initial bool) {
	if a.state.tree.loadingBatch {
		return
	}
	a.state.tree.loadingBatch = true
	slog.Debug("loadCommitsAsync start",
		slog.Int("batch", a.cfg.batch),
		slog.Bool("initial", initial),
	)
	go func() {
		var err error
		if initial {
			err = a.provider.EnsureLoaded()
		} else {
			err = a.provider.Refresh()
		}
		var rows []graph.ItemViewModel
		var snap graph.Snapshot
		if err == nil {
			snap = a.provider.Snapshot()
			rows = graph.Layout(snap, a.theme.lanes)
		}
		PostEvent(func() {
			a.state.tree.loadingBatch = false
			if err != nil {
				slog.Error("failed to load commits", slog.Any("error", err))
				a.setStatus(fmt.Sprintf("Failed to load commits: %v", err))
				return
			}
			a.applySnapshot(snap, rows)
		}, false)
	}()
}

// refreshForHead runs on the refresh coordinator's goroutine. The re-render
// and the observed-head update happen together on the Tk thread, so a head
// is only marked observed once it is actually on screen.
func (a *Controller) refreshForHead(head string) error {
	slog.Debug("coordinated refresh", slog.String("head", head))
	if err := a.provider.Refresh(); err != nil {
		return err
	}
	snap := a.provider.Snapshot()
	rows := graph.Layout(snap, a.theme.lanes)
	PostEvent(func() {
		a.applySnapshot(snap, rows)
	}, false)
	return nil
}

func (a *Controller) loadMoreCommitsAsync() {
	if a.state.tree.loadingBatch || !a.state.tree.hasMore {
		return
	}
	a.state.tree.loadingBatch = true
	slog.Debug("loadMoreCommitsAsync start", slog.Int("loaded", len(a.data.rows)))
	go func() {
		err := a.provider.LoadMore()
		var rows []graph.ItemViewModel
		var snap graph.Snapshot
		if err == nil {
			snap = a.provider.Snapshot()
			rows = graph.Layout(snap, a.theme.lanes)
		}
		PostEvent(func() {
			a.state.tree.loadingBatch = false
			if err != nil {
				slog.Error("failed to load more commits", slog.Any("error", err))
				a.setStatus(fmt.Sprintf("Failed to load more commits: %v", err))
				return
			}
			a.applySnapshot(snap, rows)
		}, false)
	}()
}

// applySnapshot swaps the rendered rows for a freshly laid-out page set.
// Runs on the Tk thread.
func (a *Controller) applySnapshot(snap graph.Snapshot, rows []graph.ItemViewModel) {
	a.data.rows = rows
	a.repo.headRef = snap.CurrentRef
	a.repo.head = snap.HeadCommit
	a.state.tree.hasMore = snap.HasMore
	slog.Debug("snapshot applied",
		slog.Int("count", len(rows)),
		slog.String("head", snap.HeadCommit),
		slog.Bool("has_more", snap.HasMore),
	)
	a.populateTree()
	a.coord.SetLastObserved(snap.HeadCommit)
	a.scheduleCanvasRedraw()
	a.setStatus(a.statusSummary())
}

func (a *Controller) showCommitDetails(index int) {
	if index < 0 || index >= len(a.data.rows) {
		a.clearDetailText("Commit index out of range.")
		return
	}
	hash := a.data.rows[index].Item.FullHash
	a.setSelectedHash(hash)
	a.setFileSections(nil)
	a.writeDetailText(fmt.Sprintf("commit %s\nLoading diff...", hash), false)
	a.scheduleDiffLoad(hash)
}

func (a *Controller) populateDiff(hash string) {
	header, err := a.provider.CommitHeader(hash)
	if err != nil {
		PostEvent(func() {
			if a.currentSelection() != hash {
				return
			}
			a.clearDetailText(fmt.Sprintf("Unable to load commit: %v", err))
		}, false)
		return
	}
	files, err := a.provider.CommitFiles(hash)
	if err != nil {
		slog.Error("commit files", slog.String("hash", hash), slog.Any("error", err))
	}
	text, sections := renderCommitDetails(header, files)
	highlight := len(sections) > 0
	PostEvent(func() {
		if a.currentSelection() != hash {
			return
		}
		a.writeDetailText(text, highlight)
		a.setFileSections(sections)
	}, false)
}

func (a *Controller) scheduleDiffLoad(hash string) {
	slog.Debug("scheduleDiffLoad", slog.String("hash", hash))
	deb := func() *debounce.Debouncer {
		a.state.diff.mu.Lock()
		defer a.state.diff.mu.Unlock()
		a.state.diff.pendingHash = hash
		return debounce.Ensure(&a.state.diff.debouncer, diffDebounceDelay, func() {
			a.flushDiffDebounce()
		})
	}()
	deb.Trigger()
}

func (a *Controller) flushDiffDebounce() {
	hash := func() string {
		a.state.diff.mu.Lock()
		defer a.state.diff.mu.Unlock()
		pending := a.state.diff.pendingHash
		a.state.diff.pendingHash = ""
		return pending
	}()
	if hash == "" {
		return
	}
	go a.populateDiff(hash)
}

func (a *Controller) clearDetailText(msg string) {
	a.writeDetailText(msg, false)
	a.setFileSections(nil)
}

func (a *Controller) writeDetailText(content string, highlightDiff bool) {
	a.ui.diffDetail.Configure(State(NORMAL))
	a.ui.diffDetail.Delete("1.0", END)
	a.ui.diffDetail.Insert("1.0", content)
	if highlightDiff {
		a.highlightDiffLines(content)
	} else {
		a.ui.diffDetail.TagRemove("diffAdd", "1.0", END)
		a.ui.diffDetail.TagRemove("diffDel", "1.0", END)
		a.ui.diffDetail.TagRemove("diffHeader", "1.0", END)
	}
	if a.cfg.syntaxHighlight && highlightDiff {
		a.applySyntaxHighlight(content)
	} else {
		a.clearSyntaxHighlight()
	}
	a.ui.diffDetail.Configure(State("disabled"))
}

func (a *Controller) highlightDiffLines(content string) {
	a.ui.diffDetail.TagRemove("diffAdd", "1.0", END)
	a.ui.diffDetail.TagRemove("diffDel", "1.0", END)
	a.ui.diffDetail.TagRemove("diffHeader", "1.0", END)
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if len(line) == 0 {
			continue
		}
		tag := diffLineTag(line)
		if tag == "" {
			continue
		}
		lineNo := i + 1
		start := fmt.Sprintf("%d.0", lineNo)
		end := fmt.Sprintf("%d.0", lineNo+1)
		if lineNo == len(lines) {
			end = fmt.Sprintf("%d.end", lineNo)
		}
		a.ui.diffDetail.TagAdd(tag, start, end)
	}
}

func (a *Controller) setFileSections(sections []fileSection) {
	// Keep a virtual "Commit" row so users can jump back to the header quickly.
	augmented := make([]fileSection, 0, len(sections)+1)
	augmented = append(augmented, fileSection{Path: "Commit", Line: 1})
	augmented = append(augmented, sections...)
	a.state.diff.fileSections = augmented
	a.ui.diffFileList.Configure(State("normal"))
	a.ui.diffFileList.Delete(0, END)
	for _, sec := range augmented {
		a.ui.diffFileList.Insert(END, sec.Path)
	}
	a.ui.diffFileList.SelectionClear(0, END)
	a.ui.diffFileList.Activate(0)
	a.syncFileSelectionToDiff()
}

func (a *Controller) onFileSelectionChanged() {
	if a.state.diff.suppressFileSelection {
		return
	}
	if len(a.state.diff.fileSections) == 0 {
		return
	}
	selection := a.ui.diffFileList.Curselection()
	if len(selection) == 0 {
		return
	}
	idx := selection[0]
	if idx < 0 || idx >= len(a.state.diff.fileSections) {
		return
	}
	a.state.diff.skipNextSync = true
	a.scrollDiffToLine(a.state.diff.fileSections[idx].Line)
}

func (a *Controller) scrollDiffToLine(line int) {
	if line <= 0 {
		return
	}
	totalLines := a.textLineCount()
	if totalLines <= 1 {
		a.ui.diffDetail.Yviewmoveto(0)
		return
	}
	fraction := float64(line-1) / float64(totalLines-1)
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	a.ui.diffDetail.Yviewmoveto(fraction)
}

func (a *Controller) textLineCount() int {
	index := a.ui.diffDetail.Index(END)
	parts := strings.SplitN(index, ".", 2)
	if len(parts) == 0 {
		return 0
	}
	lines, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	if lines > 0 {
		lines--
	}
	return lines
}

func (a *Controller) syncFileSelectionToDiff() {
	if len(a.state.diff.fileSections) == 0 {
		return
	}
	if a.state.diff.skipNextSync {
		return
	}
	line := func() int {
		index := a.ui.diffDetail.Index("@0,0")
		parts := strings.SplitN(index, ".", 2)
		if len(parts) == 0 {
			return 0
		}
		line, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0
		}
		return line
	}()
	if line <= 0 {
		return
	}
	a.setFileListSelection(fileSectionIndexForLine(a.state.diff.fileSections, line))
}

func (a *Controller) setFileListSelection(idx int) {
	if idx < 0 || idx >= len(a.state.diff.fileSections) {
		return
	}
	current := a.ui.diffFileList.Curselection()
	if len(current) > 0 && current[0] == idx {
		return
	}
	a.state.diff.suppressFileSelection = true
	a.ui.diffFileList.SelectionClear(0, END)
	a.ui.diffFileList.SelectionSet(idx)
	a.ui.diffFileList.Activate(idx)
	a.ui.diffFileList.See(idx)
	PostEvent(func() {
		a.state.diff.suppressFileSelection = false
	}, false)
}

func (a *Controller) onDiffScrolled() {
	if a.state.diff.skipNextSync {
		a.state.diff.skipNextSync = false
		return
	}
	a.syncFileSelectionToDiff()
}

func (a *Controller) setSelectedHash(hash string) {
	h := hash
	a.state.selection.hash.Store(&h)
}

func (a *Controller) currentSelection() string {
	ptr := a.state.selection.hash.Load()
	if ptr == nil {
		return ""
	}
	return *ptr
}

func (a *Controller) setStatus(msg string) {
	text := msg
	PostEvent(func() {
		a.ui.status.Configure(Txt(text))
	}, false)
}

func (a *Controller) statusSummary() string {
	total := len(a.data.rows)
	head := a.repo.headRef
	if head == "" {
		head = "HEAD"
	}
	base := fmt.Sprintf("Showing %d loaded commits on %s — %s", total, head, a.repo.path)
	if a.state.tree.hasMore {
		base += " (more available)"
	}
	return base
}
