package git

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/okapilab/gitlanes/internal/graph"
)

// testRepo builds commits in an in-memory repository with strictly increasing
// committer times, so newest-first ordering is deterministic.
type testRepo struct {
	t    *testing.T
	repo *gitlib.Repository
	fs   billy.Filesystem
	wt   *gitlib.Worktree
	when time.Time
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	fs := memfs.New()
	repo, err := gitlib.Init(memory.NewStorage(), fs)
	if err != nil {
		t.Fatalf("init repository: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	return &testRepo{
		t:    t,
		repo: repo,
		fs:   fs,
		wt:   wt,
		when: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (r *testRepo) write(path, content string) {
	r.t.Helper()
	if err := util.WriteFile(r.fs, path, []byte(content), 0o644); err != nil {
		r.t.Fatalf("write %s: %v", path, err)
	}
	if _, err := r.wt.Add(path); err != nil {
		r.t.Fatalf("add %s: %v", path, err)
	}
}

func (r *testRepo) commit(msg string, parents ...plumbing.Hash) plumbing.Hash {
	r.t.Helper()
	r.when = r.when.Add(time.Minute)
	sig := &object.Signature{Name: "Test Author", Email: "test@example.com", When: r.when}
	opts := &gitlib.CommitOptions{Author: sig, Committer: sig, AllowEmptyCommits: true}
	if len(parents) > 0 {
		opts.Parents = parents
	}
	hash, err := r.wt.Commit(msg, opts)
	if err != nil {
		r.t.Fatalf("commit %q: %v", msg, err)
	}
	return hash
}

func (r *testRepo) setRef(name string, hash plumbing.Hash) {
	r.t.Helper()
	ref := plumbing.NewHashReference(plumbing.ReferenceName(name), hash)
	if err := r.repo.Storer.SetReference(ref); err != nil {
		r.t.Fatalf("set ref %s: %v", name, err)
	}
}

func findItem(t *testing.T, snap graph.Snapshot, hash plumbing.Hash) graph.HistoryItem {
	t.Helper()
	for _, item := range snap.Items {
		if item.ID == hash.String() {
			return item
		}
	}
	t.Fatalf("commit %s not found in snapshot", hash)
	return graph.HistoryItem{}
}

func TestProviderPagination(t *testing.T) {
	r := newTestRepo(t)
	r.write("a.txt", "one\n")
	r.commit("first")
	r.write("a.txt", "two\n")
	c2 := r.commit("second")
	r.write("a.txt", "three\n")
	c3 := r.commit("third")

	p := NewFromRepository(r.repo, "mem", 2)
	if err := p.EnsureLoaded(); err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}
	snap := p.Snapshot()
	if len(snap.Items) != 2 {
		t.Fatalf("expected first page of 2, got %d", len(snap.Items))
	}
	if snap.Items[0].ID != c3.String() || snap.Items[1].ID != c2.String() {
		t.Fatalf("expected newest-first order [third second], got [%s %s]", snap.Items[0].Subject, snap.Items[1].Subject)
	}
	if !snap.HasMore || snap.NextCursor != 2 {
		t.Fatalf("expected hasMore with cursor 2, got hasMore=%v cursor=%d", snap.HasMore, snap.NextCursor)
	}
	if snap.HeadCommit != c3.String() {
		t.Fatalf("expected head %s, got %s", c3, snap.HeadCommit)
	}
	if snap.CurrentRef != "refs/heads/master" {
		t.Fatalf("expected current ref master, got %q", snap.CurrentRef)
	}

	// EnsureLoaded is idempotent once a page set is loaded.
	if err := p.EnsureLoaded(); err != nil {
		t.Fatalf("EnsureLoaded again: %v", err)
	}
	if got := len(p.Snapshot().Items); got != 2 {
		t.Fatalf("EnsureLoaded must not refetch, got %d items", got)
	}

	if err := p.LoadMore(); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	snap = p.Snapshot()
	if len(snap.Items) != 3 || snap.HasMore {
		t.Fatalf("expected full history of 3, got %d (hasMore=%v)", len(snap.Items), snap.HasMore)
	}
	if snap.Items[2].Subject != "first" {
		t.Fatalf("expected oldest commit last, got %q", snap.Items[2].Subject)
	}
}

func TestProviderRefreshPicksUpNewHead(t *testing.T) {
	r := newTestRepo(t)
	r.write("a.txt", "one\n")
	r.commit("first")
	r.write("a.txt", "two\n")
	r.commit("second")

	p := NewFromRepository(r.repo, "mem", 10)
	if err := p.EnsureLoaded(); err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}

	r.write("a.txt", "three\n")
	c3 := r.commit("third")
	head, err := p.LatestHead()
	if err != nil {
		t.Fatalf("LatestHead: %v", err)
	}
	if head != c3.String() {
		t.Fatalf("expected latest head %s, got %s", c3, head)
	}
	// The loaded snapshot is untouched until a refresh runs.
	if got := p.Snapshot().HeadCommit; got == c3.String() {
		t.Fatalf("snapshot head updated without refresh")
	}
	if err := p.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	snap := p.Snapshot()
	if snap.HeadCommit != c3.String() || snap.Items[0].Subject != "third" {
		t.Fatalf("expected refreshed head %s, got %s (%q)", c3, snap.HeadCommit, snap.Items[0].Subject)
	}
}

func TestProviderEmptyRepository(t *testing.T) {
	r := newTestRepo(t)
	p := NewFromRepository(r.repo, "mem", 10)
	if err := p.EnsureLoaded(); err != nil {
		t.Fatalf("EnsureLoaded on unborn HEAD: %v", err)
	}
	snap := p.Snapshot()
	if len(snap.Items) != 0 || snap.HasMore || snap.HeadCommit != "" {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
	head, err := p.LatestHead()
	if err != nil || head != "" {
		t.Fatalf("expected empty latest head, got %q (%v)", head, err)
	}
}

func TestProviderReferences(t *testing.T) {
	r := newTestRepo(t)
	r.write("a.txt", "one\n")
	c1 := r.commit("first")
	if _, err := r.repo.CreateTag("v1", c1, nil); err != nil {
		t.Fatalf("create tag: %v", err)
	}
	r.setRef("refs/heads/topic", c1)
	r.write("a.txt", "two\n")
	c2 := r.commit("second")

	p := NewFromRepository(r.repo, "mem", 10)
	if err := p.EnsureLoaded(); err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}
	snap := p.Snapshot()

	first := findItem(t, snap, c1)
	kinds := map[string]graph.RefKind{}
	for _, ref := range first.References {
		kinds[ref.ID] = ref.Kind
	}
	if kinds["refs/tags/v1"] != graph.RefTag {
		t.Fatalf("expected tag reference on first commit, got %+v", first.References)
	}
	if kinds["refs/heads/topic"] != graph.RefBranch {
		t.Fatalf("expected topic branch on first commit, got %+v", first.References)
	}

	second := findItem(t, snap, c2)
	if len(second.References) != 1 || second.References[0].ID != "refs/heads/master" {
		t.Fatalf("expected master on head commit, got %+v", second.References)
	}
}

func TestProviderAnnotatedTagIsPeeled(t *testing.T) {
	r := newTestRepo(t)
	r.write("a.txt", "one\n")
	c1 := r.commit("first")
	tagOpts := &gitlib.CreateTagOptions{
		Message: "release v2",
		Tagger:  &object.Signature{Name: "Test Author", Email: "test@example.com", When: r.when},
	}
	if _, err := r.repo.CreateTag("v2", c1, tagOpts); err != nil {
		t.Fatalf("create annotated tag: %v", err)
	}

	p := NewFromRepository(r.repo, "mem", 10)
	if err := p.EnsureLoaded(); err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}
	first := findItem(t, p.Snapshot(), c1)
	found := false
	for _, ref := range first.References {
		if ref.ID == "refs/tags/v2" && ref.Kind == graph.RefTag {
			found = true
		}
	}
	if !found {
		t.Fatalf("annotated tag must be attached to the peeled commit, got %+v", first.References)
	}
}

func TestProviderUpstreamPointers(t *testing.T) {
	r := newTestRepo(t)
	r.write("a.txt", "one\n")
	c1 := r.commit("first")
	r.setRef("refs/remotes/origin/master", c1)
	headRef := plumbing.NewSymbolicReference("refs/remotes/origin/HEAD", "refs/remotes/origin/master")
	if err := r.repo.Storer.SetReference(headRef); err != nil {
		t.Fatalf("set origin/HEAD: %v", err)
	}
	cfg, err := r.repo.Config()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Branches["master"] = &config.Branch{
		Name:   "master",
		Remote: "origin",
		Merge:  "refs/heads/master",
	}
	if err := r.repo.SetConfig(cfg); err != nil {
		t.Fatalf("set config: %v", err)
	}

	p := NewFromRepository(r.repo, "mem", 10)
	if err := p.EnsureLoaded(); err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}
	snap := p.Snapshot()
	if snap.CurrentRemoteRef != "refs/remotes/origin/master" {
		t.Fatalf("expected remote-tracking ref, got %q", snap.CurrentRemoteRef)
	}
	if snap.CurrentBaseRef != "refs/remotes/origin/HEAD" {
		t.Fatalf("expected base ref, got %q", snap.CurrentBaseRef)
	}
	first := findItem(t, snap, c1)
	foundBase := false
	for _, ref := range first.References {
		if ref.Kind == graph.RefBase {
			foundBase = true
		}
	}
	if !foundBase {
		t.Fatalf("expected base reference attached to %s, got %+v", c1, first.References)
	}
}

func TestProviderMergeLayout(t *testing.T) {
	r := newTestRepo(t)
	r.write("a.txt", "one\n")
	c1 := r.commit("first")
	r.write("b.txt", "side\n")
	m1 := r.commit("side work", c1)
	r.write("a.txt", "merged\n")
	merge := r.commit("merge side work", c1, m1)

	p := NewFromRepository(r.repo, "mem", 10)
	if err := p.EnsureLoaded(); err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}
	snap := p.Snapshot()
	mergeItem := findItem(t, snap, merge)
	if len(mergeItem.ParentIDs) != 2 || mergeItem.ParentIDs[0] != c1.String() || mergeItem.ParentIDs[1] != m1.String() {
		t.Fatalf("expected parents [%s %s], got %v", c1, m1, mergeItem.ParentIDs)
	}

	vms := graph.Layout(snap, graph.DefaultPalette(false))
	if vms[0].Item.ID != merge.String() {
		t.Fatalf("expected merge commit first, got %s", vms[0].Item.Subject)
	}
	if got := len(vms[0].OutputSwimlanes); got != 2 {
		t.Fatalf("merge row: expected 2 output lanes, got %d", got)
	}
}
