package oracle

import "regexp"

// StderrSeverity classifies one line of analyzer stderr output.
type StderrSeverity int

const (
	// StderrInfo is routine diagnostic output, logged and ignored.
	StderrInfo StderrSeverity = iota
	// StderrFatal indicates the analyzer can no longer answer reliably;
	// the session is marked stale so the next query respawns it.
	StderrFatal
)

// Fatal condition patterns. The analyzer surfaces process-level trouble on
// stderr rather than as per-request error responses.
var fatalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^panic:`),
	regexp.MustCompile(`(?i)fatal error`),
	regexp.MustCompile(`(?i)out of memory`),
	regexp.MustCompile(`(?i)cannot allocate memory`),
	regexp.MustCompile(`(?i)workspace index corrupt`),
	regexp.MustCompile(`(?i)unrecoverable`),
}

// ClassifyStderr decides whether a stderr line is fatal to the session.
func ClassifyStderr(line string) StderrSeverity {
	for _, pattern := range fatalPatterns {
		if pattern.MatchString(line) {
			return StderrFatal
		}
	}
	return StderrInfo
}
