// Package contextual rescores candidates against the current moment.
//
// A predicate pairs a vocabulary with an applicability rule: it can match a
// song (exclusively against its core terms, or loosely against related ones)
// and it can match the current context snapshot (a date window, weather
// conditions, geography, a personal anniversary). Candidates matching an
// active predicate are boosted by dividing their score; candidates
// exclusively about an inactive predicate are penalized by multiplying it.
// Lower scores rank better throughout.
//
// Predicates are plain data plus optional hook functions; the scoring rule
// itself is implemented once in the engine and is uniform across the catalog.
package contextual
