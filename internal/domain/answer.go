package domain

// NoSourcesSentinel is the single source entry returned when retrieval
// found no candidate chunks. Callers use it to distinguish "searched and
// found nothing" from "did not search" (an empty Sources slice).
const NoSourcesSentinel = "no sources found"

// Answer is the result of one question: the assembled prompt, the raw
// completion text, and the filenames of the chunks that grounded it.
// Transient, returned per question.
type Answer struct {
	Prompt     string
	Completion string
	Sources    []string
}

// Grounded reports whether the answer is backed by retrieved context.
func (a *Answer) Grounded() bool {
	if len(a.Sources) == 0 {
		return false
	}
	return a.Sources[0] != NoSourcesSentinel
}
