package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pmezard/go-difflib/difflib"
)

// FileChange describes one file touched by a commit relative to its first
// parent, including a rendered unified diff. Binary files carry an empty Diff.
type FileChange struct {
	Path    string
	OldPath string
	Status  string
	Binary  bool
	Diff    string
}

// CommitFiles returns the changed-file list of a commit, diffed against its
// first parent (against the empty tree for root commits).
func (p *Provider) CommitFiles(hash string) ([]FileChange, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	commit, err := p.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("resolve commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}
	var parentTree *object.Tree
	if commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return nil, err
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return nil, err
		}
	}
	changes, err := object.DiffTreeWithOptions(context.Background(), parentTree, tree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}

	files := make([]FileChange, 0, len(changes))
	for _, change := range changes {
		fc, err := newFileChange(change)
		if err != nil {
			return nil, err
		}
		files = append(files, fc)
	}
	return files, nil
}

// CommitHeader formats the commit metadata block shown above the diff.
func (p *Provider) CommitHeader(hash string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	commit, err := p.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return "", fmt.Errorf("resolve commit %s: %w", hash, err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "commit %s\n", commit.Hash)
	appendSignatureLine(&b, "Author", commit.Author)
	committer := commit.Committer
	if committer.Name == "" && committer.Email == "" && committer.When.IsZero() {
		committer = commit.Author
	}
	appendSignatureLine(&b, "Committer", committer)
	b.WriteString("\n")
	message := strings.TrimRight(commit.Message, "\n")
	if message == "" {
		b.WriteString("    (no commit message)\n")
		return b.String(), nil
	}
	for line := range strings.SplitSeq(message, "\n") {
		if line == "" {
			b.WriteString("\n")
			continue
		}
		fmt.Fprintf(&b, "    %s\n", line)
	}
	return b.String(), nil
}

func newFileChange(change *object.Change) (FileChange, error) {
	from, to, err := change.Files()
	if err != nil {
		return FileChange{}, err
	}
	fc := FileChange{
		Path:    change.To.Name,
		OldPath: change.From.Name,
	}
	switch {
	case change.From.Name == "":
		fc.Status = "added"
	case change.To.Name == "":
		fc.Status = "deleted"
		fc.Path = change.From.Name
	case change.From.Name != change.To.Name:
		fc.Status = "renamed"
	default:
		fc.Status = "modified"
	}
	binary, err := binaryFiles(from, to)
	if err != nil {
		return FileChange{}, err
	}
	if binary {
		fc.Binary = true
		return fc, nil
	}
	fromLines, err := fileLines(from)
	if err != nil {
		return FileChange{}, err
	}
	toLines, err := fileLines(to)
	if err != nil {
		return FileChange{}, err
	}
	diffText, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        fromLines,
		B:        toLines,
		FromFile: diffLabel("a", change.From.Name),
		ToFile:   diffLabel("b", change.To.Name),
		Context:  3,
	})
	if err != nil {
		return FileChange{}, err
	}
	fc.Diff = diffText
	return fc, nil
}

func diffLabel(prefix, path string) string {
	if path == "" {
		return "/dev/null"
	}
	return fmt.Sprintf("%s/%s", prefix, path)
}

func binaryFiles(from, to *object.File) (bool, error) {
	for _, f := range []*object.File{from, to} {
		if f == nil {
			continue
		}
		binary, err := f.IsBinary()
		if err != nil {
			return false, err
		}
		if binary {
			return true, nil
		}
	}
	return false, nil
}

func fileLines(f *object.File) ([]string, error) {
	if f == nil {
		return []string{}, nil
	}
	content, err := f.Contents()
	if err != nil {
		return nil, err
	}
	return difflib.SplitLines(content), nil
}

func appendSignatureLine(b *strings.Builder, label string, sig object.Signature) {
	fmt.Fprintf(b, "%s: %s <%s>", label, sig.Name, sig.Email)
	if !sig.When.IsZero() {
		fmt.Fprintf(b, "  %s", sig.When.Format("2006-01-02 15:04:05 -0700"))
	}
	b.WriteByte('\n')
}
