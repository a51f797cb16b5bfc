package ui

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/abdullathedruid/devhub/internal/git"
)

// GitPanel holds what the git panel shows.
type GitPanel struct {
	Status *git.Status
	Last   *git.Commit
	Err    error
}

// Render returns the panel lines for the given width.
func (p GitPanel) Render(width int, now time.Time) []string {
	if p.Err != nil {
		return []string{Truncate(p.Err.Error(), width)}
	}
	if p.Status == nil {
		return []string{"Not a git repository"}
	}

	st := p.Status
	branch := st.Branch
	if st.Detached {
		branch = "DETACHED HEAD (" + st.Branch + ")"
	}
	lines := []string{ColorBold + Truncate(" "+branch, width-1) + ColorReset}
	if p.Last != nil {
		age := FormatDuration(int64(now.Sub(p.Last.Time).Seconds()))
		lines = append(lines, ColorDim+Truncate(fmt.Sprintf(" %s %s", p.Last.Hash, age), width)+ColorReset)
	}
	lines = append(lines, "")

	if st.Clean() {
		return append(lines, "No changes")
	}
	section := func(title, color string, files []string) {
		if len(files) == 0 {
			return
		}
		lines = append(lines, fmt.Sprintf("%s (%d)", title, len(files)))
		for _, f := range files {
			lines = append(lines, color+Truncate("  "+f, width)+ColorReset)
		}
	}
	section("Staged", ColorGreen, st.Staged)
	section("Modified", ColorYellow, st.Modified)
	section("Untracked", ColorRed, st.Untracked)
	return lines
}

// FolderListing lists a directory, folders first, hidden entries last.
func FolderListing(dir string, width int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		ah, bh := strings.HasPrefix(a.Name(), "."), strings.HasPrefix(b.Name(), ".")
		if ah != bh {
			return !ah
		}
		if a.IsDir() != b.IsDir() {
			return a.IsDir()
		}
		return a.Name() < b.Name()
	})

	lines := []string{ColorBold + Truncate(" "+dir, width-1) + ColorReset, ""}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			lines = append(lines, ColorBlue+Truncate(" "+name+"/", width)+ColorReset)
			continue
		}
		lines = append(lines, Truncate(" "+name, width))
	}
	if len(entries) == 0 {
		lines = append(lines, "(empty)")
	}
	return lines, nil
}
