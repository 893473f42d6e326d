package llm

import (
	"fmt"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// diffDigest is the diff as sent to a provider: a per-file change summary,
// the (possibly truncated) body, and a note describing what was cut.
type diffDigest struct {
	Summary string
	Body    string
	Note    string
}

// digestDiff summarizes a unified diff and truncates it at file boundaries
// once maxBytes is exceeded. Unparseable input is cut at a line boundary
// without a summary. maxBytes <= 0 disables truncation.
func digestDiff(diff string, maxBytes int) diffDigest {
	if strings.TrimSpace(diff) == "" {
		return diffDigest{}
	}

	fileDiffs, err := godiff.ParseMultiFileDiff([]byte(diff))
	if err != nil || len(fileDiffs) == 0 {
		body, cut := truncateLines(diff, maxBytes)
		d := diffDigest{Body: body}
		if cut {
			d.Note = fmt.Sprintf("(diff truncated to %d bytes)", maxBytes)
		}
		return d
	}

	var summary strings.Builder
	for _, fd := range fileDiffs {
		st := fd.Stat()
		fmt.Fprintf(&summary, "- %s (+%d/-%d)\n", fileName(fd), st.Added+st.Changed, st.Deleted+st.Changed)
	}

	d := diffDigest{Summary: summary.String(), Body: diff}
	if maxBytes <= 0 || len(diff) <= maxBytes {
		return d
	}

	var body strings.Builder
	full := 0
	for _, fd := range fileDiffs {
		rendered, err := godiff.PrintFileDiff(fd)
		if err != nil {
			break
		}
		if body.Len()+len(rendered) > maxBytes {
			if full == 0 {
				part, _ := truncateLines(string(rendered), maxBytes)
				body.WriteString(part)
			}
			break
		}
		body.Write(rendered)
		full++
	}

	d.Body = body.String()
	d.Note = fmt.Sprintf("(diff truncated at %d bytes: %d of %d files shown in full)", maxBytes, full, len(fileDiffs))
	return d
}

// fileName returns the post-change path, or the original one for deletions.
func fileName(fd *godiff.FileDiff) string {
	name := strings.TrimPrefix(fd.NewName, "b/")
	if name == "" || name == "/dev/null" {
		name = strings.TrimPrefix(fd.OrigName, "a/")
	}
	return name
}

// truncateLines cuts s to at most maxBytes, ending on a newline when possible.
func truncateLines(s string, maxBytes int) (string, bool) {
	if maxBytes <= 0 || len(s) <= maxBytes {
		return s, false
	}
	cut := s[:maxBytes]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i+1]
	}
	return cut, true
}
