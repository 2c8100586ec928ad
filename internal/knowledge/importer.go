package knowledge

import (
	"context"
	"crypto/sha1"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultIncludes matches the reference document formats the importer
// understands.
var DefaultIncludes = []string{"**/*.md", "**/*.txt"}

// ImportDir walks root and adds every matching reference document to the
// base, split into one snippet per section. Include and exclude are
// doublestar glob patterns evaluated against the path relative to root.
// It returns the number of snippets imported.
func ImportDir(ctx context.Context, base *Base, root string, includes, excludes []string) (int, error) {
	if len(includes) == 0 {
		includes = DefaultIncludes
	}

	var snippets []Snippet

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !matchesAny(includes, rel) || matchesAny(excludes, rel) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}

		topic := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
		for i, section := range splitSections(string(data)) {
			snippets = append(snippets, Snippet{
				ID:      snippetID(rel, i),
				Content: section,
				Source:  rel,
				Topic:   topic,
			})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := base.Add(ctx, snippets); err != nil {
		return 0, err
	}
	return len(snippets), nil
}

func matchesAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// splitSections breaks a document at markdown headings so each snippet
// stays focused on one subject. Documents without headings become a
// single snippet.
func splitSections(text string) []string {
	lines := strings.Split(text, "\n")

	var sections []string
	var current []string

	flush := func() {
		s := strings.TrimSpace(strings.Join(current, "\n"))
		if s != "" {
			sections = append(sections, s)
		}
		current = current[:0]
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "#") {
			flush()
		}
		current = append(current, line)
	}
	flush()

	return sections
}

func snippetID(rel string, section int) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s#%d", rel, section)))
	return fmt.Sprintf("%x", sum[:8])
}
