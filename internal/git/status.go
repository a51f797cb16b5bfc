package git

import "strings"

// Status is the work tree state shown in the git panel.
type Status struct {
	Branch    string
	Detached  bool
	Staged    []string
	Modified  []string
	Untracked []string
}

// Clean reports whether there is nothing to commit.
func (s *Status) Clean() bool {
	return len(s.Staged) == 0 && len(s.Modified) == 0 && len(s.Untracked) == 0
}

// Status reads the branch and the changed files.
func (r *Repo) Status() (*Status, error) {
	branch, detached, err := r.Branch()
	if err != nil {
		return nil, err
	}

	out, err := r.run("", append([]string{"status", "--porcelain=v1", "-z", "--untracked-files=all"}, workTree...)...)
	if err != nil {
		return nil, err
	}
	st := parseStatus(out)
	st.Branch = branch
	st.Detached = detached
	return st, nil
}

// parseStatus reads "git status --porcelain=v1 -z" output. A file changed
// both in the index and the work tree is listed as staged and modified.
func parseStatus(out string) *Status {
	st := &Status{}
	entries := strings.Split(out, "\x00")
	for i := 0; i < len(entries); i++ {
		e := entries[i]
		if len(e) < 4 {
			continue
		}
		x, y, path := e[0], e[1], e[3:]
		if x == 'R' || x == 'C' {
			// the source path follows as its own entry
			i++
		}
		switch {
		case x == '?' && y == '?':
			st.Untracked = append(st.Untracked, path)
			continue
		case x == '!' && y == '!':
			continue
		}
		if x != ' ' {
			st.Staged = append(st.Staged, path)
		}
		if y != ' ' {
			st.Modified = append(st.Modified, path)
		}
	}
	return st
}
