package git

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/okapilab/gitlanes/internal/graph"
)

// refIndex maps commit hashes to their attached references and records the
// snapshot pointers (current branch, its remote-tracking branch, the remote
// default branch used as base).
type refIndex struct {
	byHash map[string][]graph.Reference

	head          string
	headBranch    string
	current       string
	currentRemote string
	currentBase   string
}

func (p *Provider) collectRefsLocked() (*refIndex, error) {
	idx := &refIndex{byHash: map[string][]graph.Reference{}}
	headRef, err := p.repo.Head()
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return idx, nil
		}
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	idx.head = headRef.Hash().String()
	if headRef.Name().IsBranch() {
		idx.current = headRef.Name().String()
		idx.headBranch = headRef.Name().Short()
	} else {
		// Detached HEAD still gets a marker so the row is labelled.
		idx.add(idx.head, graph.Reference{ID: "HEAD", Name: "HEAD", Kind: graph.RefOther})
	}

	refs, err := p.repo.References()
	if err != nil {
		return nil, err
	}
	defer refs.Close()
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name()
		hash := ref.Hash()
		var kind graph.RefKind
		switch {
		case name.IsBranch():
			kind = graph.RefBranch
		case name.IsRemote():
			if strings.HasSuffix(name.Short(), "/HEAD") {
				return nil
			}
			kind = graph.RefRemote
		case name.IsTag():
			kind = graph.RefTag
			if peeled, ok := p.peelTagCommit(hash); ok {
				hash = peeled
			}
		default:
			return nil
		}
		idx.add(hash.String(), graph.Reference{ID: name.String(), Name: name.Short(), Kind: kind})
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.resolveUpstreamLocked(idx)
	return idx, nil
}

// resolveUpstreamLocked fills in the remote-tracking ref of the current branch
// and, when the remote publishes a default branch, the base ref.
func (p *Provider) resolveUpstreamLocked(idx *refIndex) {
	if idx.headBranch == "" {
		return
	}
	cfg, err := p.repo.Config()
	if err != nil {
		return
	}
	branch, ok := cfg.Branches[idx.headBranch]
	if !ok || branch.Remote == "" || branch.Merge == "" {
		return
	}
	remoteName := plumbing.NewRemoteReferenceName(branch.Remote, branch.Merge.Short())
	if _, err := p.repo.Reference(remoteName, true); err == nil {
		idx.currentRemote = remoteName.String()
	}
	baseName := plumbing.NewRemoteHEADReferenceName(branch.Remote)
	if baseRef, err := p.repo.Reference(baseName, true); err == nil {
		idx.currentBase = baseName.String()
		idx.add(baseRef.Hash().String(), graph.Reference{
			ID:   baseName.String(),
			Name: branch.Remote,
			Kind: graph.RefBase,
		})
	}
}

func (idx *refIndex) add(hash string, ref graph.Reference) {
	idx.byHash[hash] = append(idx.byHash[hash], ref)
}

// peelTagCommit follows annotated tags (possibly nested) to the commit they
// ultimately point at. Lightweight tags already point at a commit.
func (p *Provider) peelTagCommit(hash plumbing.Hash) (plumbing.Hash, bool) {
	if hash == plumbing.ZeroHash {
		return plumbing.ZeroHash, false
	}
	if _, err := p.repo.CommitObject(hash); err == nil {
		return hash, true
	}
	cur := hash
	for range 8 {
		tag, err := p.repo.TagObject(cur)
		if err != nil {
			return plumbing.ZeroHash, false
		}
		switch tag.TargetType {
		case plumbing.CommitObject:
			return tag.Target, true
		case plumbing.TagObject:
			cur = tag.Target
		default:
			return plumbing.ZeroHash, false
		}
	}
	return plumbing.ZeroHash, false
}
