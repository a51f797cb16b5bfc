package git

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// maxUntrackedBytes bounds the size of an untracked file rendered into the
// diff.
const maxUntrackedBytes = 256 * 1024

// CurrentDiff returns everything a commit would record: tracked changes
// against HEAD (or the empty tree before the first commit) followed by
// untracked text files rendered as new-file diffs. StateDir is left out.
func (r *Repo) CurrentDiff() (string, error) {
	base := "HEAD"
	if !r.HasCommits() {
		base = EmptyTree
	}
	tracked, err := r.run("", append([]string{"diff", "--no-color", "--no-ext-diff", base}, workTree...)...)
	if err != nil {
		return "", err
	}

	out, err := r.run("", append([]string{"ls-files", "--others", "--exclude-standard", "-z"}, workTree...)...)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(tracked)
	for _, name := range strings.Split(out, "\x00") {
		if name == "" {
			continue
		}
		d, ok := r.untrackedDiff(name)
		if !ok {
			continue
		}
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
		b.WriteString(d)
	}
	return b.String(), nil
}

// untrackedDiff renders a new file as a unified diff. Binary, oversized and
// unreadable files are skipped.
func (r *Repo) untrackedDiff(name string) (string, bool) {
	path := filepath.Join(r.Root, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() > maxUntrackedBytes {
		return "", false
	}
	content, err := os.ReadFile(path)
	if err != nil || isBinary(content) {
		return "", false
	}

	header := fmt.Sprintf("diff --git a/%s b/%s\nnew file mode 100644\n", name, name)
	if len(content) == 0 {
		return header, true
	}
	edits := myers.ComputeEdits(span.URIFromPath(name), "", string(content))
	unified := fmt.Sprint(gotextdiff.ToUnified("/dev/null", "b/"+name, "", edits))
	if !strings.HasSuffix(unified, "\n") {
		unified += "\n"
	}
	return header + unified, true
}

func isBinary(content []byte) bool {
	if len(content) > 8000 {
		content = content[:8000]
	}
	return bytes.IndexByte(content, 0) >= 0
}

// DiffStat summarizes a diff per file as "name +added -removed".
func DiffStat(diff string) []string {
	var (
		stats          []string
		name           string
		added, removed int
	)
	flush := func() {
		if name != "" {
			stats = append(stats, fmt.Sprintf("%s +%d -%d", name, added, removed))
		}
	}
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "diff --git "):
			flush()
			name, added, removed = diffName(line), 0, 0
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	flush()
	return stats
}

func diffName(header string) string {
	if i := strings.LastIndex(header, " b/"); i >= 0 {
		return header[i+3:]
	}
	return strings.TrimPrefix(header, "diff --git ")
}
