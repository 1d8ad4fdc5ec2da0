// Package git implements the history provider: paginated, newest-first commit
// pages with attached references, refetched wholesale on demand.
package git

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/okapilab/gitlanes/internal/graph"
)

const DefaultBatch = 200

// Provider loads commit history pages from a repository and exposes them as
// immutable snapshots. All mutation happens under mu; Snapshot hands out
// copies, so a refresh never mutates data a consumer is still rendering.
type Provider struct {
	// mu serializes access to repo operations and the loaded state.
	mu sync.Mutex

	repo  *gitlib.Repository
	path  string
	batch int

	st providerState
}

type providerState struct {
	items      []graph.HistoryItem
	hasMore    bool
	nextCursor int

	head             string
	currentRef       string
	currentRemoteRef string
	currentBaseRef   string

	loaded      bool
	loading     bool
	err         error
	loadingMore bool
	loadMoreErr error
}

func Open(repoPath string, batch int) (*Provider, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return NewFromRepository(repo, abs, batch), nil
}

// NewFromRepository wraps an already opened repository. Used by tests with
// in-memory repositories.
func NewFromRepository(repo *gitlib.Repository, path string, batch int) *Provider {
	if batch <= 0 {
		batch = DefaultBatch
	}
	return &Provider{repo: repo, path: path, batch: batch}
}

func (p *Provider) RepoPath() string {
	return p.path
}

// EnsureLoaded fetches the first page unless a page set is already loaded.
func (p *Provider) EnsureLoaded() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.st.loaded {
		return p.st.err
	}
	return p.reloadLocked(p.batch)
}

// Refresh refetches the full loaded range from scratch. On failure the
// previous page set stays in place, so consumers keep rendering stale but
// coherent history.
func (p *Provider) Refresh() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reloadLocked(max(len(p.st.items), p.batch))
}

// LoadMore appends the next page at the current cursor.
func (p *Provider) LoadMore() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.st.hasMore || p.st.loadingMore {
		return p.st.loadMoreErr
	}
	p.st.loadingMore = true
	items, _, hasMore, err := p.fetchLocked(p.st.nextCursor, p.batch)
	p.st.loadingMore = false
	if err != nil {
		p.st.loadMoreErr = err
		return err
	}
	p.st.loadMoreErr = nil
	p.st.items = append(p.st.items, items...)
	p.st.hasMore = hasMore
	p.st.nextCursor = len(p.st.items)
	slog.Debug("history page appended",
		slog.Int("added", len(items)),
		slog.Int("total", len(p.st.items)),
		slog.Bool("has_more", hasMore),
	)
	return nil
}

func (p *Provider) reloadLocked(count int) error {
	p.st.loading = true
	items, refs, hasMore, err := p.fetchLocked(0, count)
	p.st.loading = false
	if err != nil {
		p.st.err = err
		return err
	}
	p.st.err = nil
	p.st.loaded = true
	p.st.items = items
	p.st.hasMore = hasMore
	p.st.nextCursor = len(items)
	p.st.head = refs.head
	p.st.currentRef = refs.current
	p.st.currentRemoteRef = refs.currentRemote
	p.st.currentBaseRef = refs.currentBase
	slog.Debug("history reloaded",
		slog.Int("count", len(items)),
		slog.String("head", refs.head),
		slog.Bool("has_more", hasMore),
	)
	return nil
}

// fetchLocked walks the history from HEAD, skipping the first skip commits
// and returning up to count items. An unborn HEAD yields an empty page.
func (p *Provider) fetchLocked(skip, count int) ([]graph.HistoryItem, *refIndex, bool, error) {
	refs, err := p.collectRefsLocked()
	if err != nil {
		return nil, nil, false, err
	}
	if refs.head == "" {
		return nil, refs, false, nil
	}
	iter, err := p.repo.Log(&gitlib.LogOptions{
		From:  plumbing.NewHash(refs.head),
		Order: gitlib.LogOrderCommitterTime,
	})
	if err != nil {
		return nil, nil, false, fmt.Errorf("read commits: %w", err)
	}
	defer iter.Close()

	for range skip {
		if _, err := iter.Next(); err != nil {
			if err == io.EOF {
				return nil, refs, false, nil
			}
			return nil, nil, false, fmt.Errorf("iterate commits: %w", err)
		}
	}
	items := make([]graph.HistoryItem, 0, count)
	for len(items) < count {
		commit, err := iter.Next()
		if err != nil {
			if err == io.EOF {
				return items, refs, false, nil
			}
			return nil, nil, false, fmt.Errorf("iterate commits: %w", err)
		}
		hash := commit.Hash.String()
		parents := make([]string, 0, len(commit.ParentHashes))
		for _, parent := range commit.ParentHashes {
			parents = append(parents, parent.String())
		}
		items = append(items, graph.HistoryItem{
			ID:         hash,
			FullHash:   hash,
			ParentIDs:  parents,
			Subject:    commitSubject(commit.Message),
			Author:     fmt.Sprintf("%s <%s>", commit.Author.Name, commit.Author.Email),
			Timestamp:  commit.Author.When,
			References: refs.byHash[hash],
		})
	}
	_, err = iter.Next()
	if err == io.EOF {
		return items, refs, false, nil
	}
	if err != nil {
		return nil, nil, false, fmt.Errorf("iterate commits: %w", err)
	}
	return items, refs, true, nil
}

// Snapshot returns a copy of the loaded page set. The copy is immutable from
// the provider's point of view; layout passes may be run on it at any time.
func (p *Provider) Snapshot() graph.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return graph.Snapshot{
		Items:            slices.Clone(p.st.items),
		HasMore:          p.st.hasMore,
		NextCursor:       p.st.nextCursor,
		HeadCommit:       p.st.head,
		CurrentRef:       p.st.currentRef,
		CurrentRemoteRef: p.st.currentRemoteRef,
		CurrentBaseRef:   p.st.currentBaseRef,
	}
}

func (p *Provider) IsLoading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.st.loading
}

func (p *Provider) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.st.err
}

func (p *Provider) IsLoadingMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.st.loadingMore
}

func (p *Provider) LoadMoreErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.st.loadMoreErr
}

// LatestHead resolves the repository's current head commit without touching
// the loaded pages. An unborn HEAD resolves to the empty string.
func (p *Provider) LatestHead() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ref, err := p.repo.Head()
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return "", nil
		}
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

func commitSubject(message string) string {
	subject := strings.SplitN(strings.TrimSpace(message), "\n", 2)[0]
	if len(subject) > 120 {
		subject = subject[:117] + "..."
	}
	return subject
}
