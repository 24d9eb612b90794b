package chains

import "regexp"

// junkPattern is one entry in the ordered filename deny list. First match
// wins; the name is used in logs so a dropped chain can be traced to the
// rule that rejected it.
type junkPattern struct {
	Name string
	re   *regexp.Regexp
}

// junkPatterns is the full deny list for attachment filenames. The chat is
// full of re-uploads and placeholder files; a junk name means the chain
// cannot be matched to a real CV and is dropped before translation.
var junkPatterns = []junkPattern{
	{"empty", regexp.MustCompile(`^\s*$`)},
	{"test-file", regexp.MustCompile(`(?i)^test[ _-]?\d*\.pdf$`)},
	{"placeholder-run", regexp.MustCompile(`(?i)^x{2,}\.pdf$`)},
	{"numbered-duplicate", regexp.MustCompile(`(?i)\(\d+\)\.pdf$`)},
	{"generic-name", regexp.MustCompile(`(?i)^(resume|cv|резюме|document)\.pdf$`)},
}

// JunkReason returns the name of the first deny-list pattern the filename
// matches, or "" when the filename is acceptable.
func JunkReason(filename string) string {
	for _, p := range junkPatterns {
		if p.re.MatchString(filename) {
			return p.Name
		}
	}
	return ""
}

// IsJunkFilename reports whether an attachment filename is on the deny list.
func IsJunkFilename(filename string) bool {
	return JunkReason(filename) != ""
}
