package service

import "github.com/jfries/batchlens/internal/domain"

// WorkUnit is one (document, prompt, connection) triple requiring analysis.
type WorkUnit struct {
	DocumentID   string
	PromptID     string
	ConnectionID string
}

// SkipFunc reports whether a triple already has a terminal response and
// should be excluded from the matrix.
type SkipFunc func(documentID, promptID, connectionID string) bool

// MatrixResult is the outcome of a work-matrix computation. EmptyConfig
// distinguishes "nothing to do because no prompts or connections exist"
// from "nothing to do because everything is finished".
type MatrixResult struct {
	Pending     []WorkUnit
	Skipped     int
	EmptyConfig bool
}

// AllDone reports whether every triple of a non-empty configuration was
// skipped as already terminal.
func (m MatrixResult) AllDone() bool {
	return !m.EmptyConfig && len(m.Pending) == 0 && m.Skipped > 0
}

// BuildMatrix computes the cross-product of documents, connections, and
// prompts, dropping triples the skip predicate marks as already completed.
//
// Iteration order is fixed: documents outer, connections middle, prompts
// inner. The inputs arrive pre-sorted from the repositories, so resumption
// after a crash reproduces the same remaining work in the same order.
func BuildMatrix(docs []domain.Document, prompts []domain.Prompt, conns []domain.Connection, skip SkipFunc) MatrixResult {
	if len(prompts) == 0 || len(conns) == 0 {
		return MatrixResult{EmptyConfig: true}
	}

	result := MatrixResult{}
	for _, doc := range docs {
		for _, conn := range conns {
			for _, prompt := range prompts {
				if skip != nil && skip(doc.ID, prompt.ID, conn.ID) {
					result.Skipped++
					continue
				}
				result.Pending = append(result.Pending, WorkUnit{
					DocumentID:   doc.ID,
					PromptID:     prompt.ID,
					ConnectionID: conn.ID,
				})
			}
		}
	}
	return result
}
