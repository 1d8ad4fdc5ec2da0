package gui

import (
	"fmt"
	"strings"

	"github.com/okapilab/gitlanes/internal/git"
)

// renderCommitDetails assembles the detail-pane text: the commit header
// followed by one section per changed file. The returned sections map file
// paths to the 1-based line their "diff --git" header lands on.
func renderCommitDetails(header string, files []git.FileChange) (string, []fileSection) {
	var b strings.Builder
	b.WriteString(strings.TrimRight(header, "\n"))
	b.WriteString("\n")
	line := strings.Count(b.String(), "\n") + 1

	sections := make([]fileSection, 0, len(files))
	for _, fc := range files {
		b.WriteString("\n")
		line++
		sections = append(sections, fileSection{Path: fc.Path, Line: line})
		oldPath := fc.OldPath
		if oldPath == "" {
			oldPath = fc.Path
		}
		fmt.Fprintf(&b, "diff --git a/%s b/%s\n", oldPath, fc.Path)
		line++
		if fc.Status == "renamed" {
			fmt.Fprintf(&b, "rename from %s\nrename to %s\n", oldPath, fc.Path)
			line += 2
		}
		body := fc.Diff
		if fc.Binary {
			body = fmt.Sprintf("Binary files a/%s and b/%s differ\n", oldPath, fc.Path)
		}
		if body == "" {
			continue
		}
		if !strings.HasSuffix(body, "\n") {
			body += "\n"
		}
		b.WriteString(body)
		line += strings.Count(body, "\n")
	}
	return strings.TrimRight(b.String(), "\n"), sections
}

func fileSectionIndexForLine(sections []fileSection, line int) int {
	if len(sections) == 0 || line <= 0 {
		return 0
	}
	target := 0
	for i, sec := range sections {
		if line < sec.Line {
			break
		}
		target = i
	}
	return target
}

func diffLineTag(line string) string {
	switch {
	case strings.HasPrefix(line, "diff --git"):
		return "diffHeader"
	case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
		return "diffAdd"
	case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
		return "diffDel"
	default:
		return ""
	}
}

func diffPathFromLine(line string) (string, bool) {
	const prefix = "diff --git "
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	segment := strings.TrimSpace(line[len(prefix):])
	tokens := diffLineTokens(segment)
	if len(tokens) < 2 {
		return "", true
	}
	return normalizeDiffPath(tokens[1]), true
}

func diffLineTokens(s string) []string {
	var tokens []string
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			break
		}
		if s[0] == '"' {
			var buf strings.Builder
			escaped := false
			i := 1
			for i < len(s) {
				ch := s[i]
				if escaped {
					buf.WriteByte(ch)
					escaped = false
					i++
					continue
				}
				if ch == '\\' {
					escaped = true
					i++
					continue
				}
				if ch == '"' {
					i++
					break
				}
				buf.WriteByte(ch)
				i++
			}
			tokens = append(tokens, buf.String())
			s = s[i:]
			continue
		}
		j := 0
		for j < len(s) && s[j] != ' ' && s[j] != '\t' {
			j++
		}
		tokens = append(tokens, s[:j])
		s = s[j:]
	}
	return tokens
}

func normalizeDiffPath(token string) string {
	token = strings.TrimPrefix(token, "a/")
	token = strings.TrimPrefix(token, "b/")
	return token
}

func diffLineCode(line string) (string, int, bool) {
	if line == "" {
		return "", 0, false
	}
	switch line[0] {
	case '+', '-', ' ':
		if strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---") {
			return "", 0, false
		}
		if strings.HasPrefix(line, "\\ ") {
			return "", 0, false
		}
		return line[1:], 1, true
	default:
		return "", 0, false
	}
}
