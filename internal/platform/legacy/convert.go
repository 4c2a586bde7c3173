package legacy

import (
	"strings"

	"hradmin/internal/domain/access"
	"hradmin/internal/domain/evaluation"
	"hradmin/internal/domain/payroll"
)

func toRecord(doc formAccessDoc) access.Record {
	rec := access.Record{
		FormID:     idString(doc.FormID),
		FullAccess: doc.FullAccess,
		NoAccess:   doc.NoAccess,
		PartialAccess: access.PartialAccess{
			Enabled:     doc.PartialAccess.Enabled,
			Permissions: access.Normalize(doc.PartialAccess.Permissions),
		},
	}
	if level, ok := access.ParseLevel(doc.SelectedAccessLevel); ok {
		rec.SelectedAccessLevel = string(level)
	}
	return rec
}

// toScores keeps the weightage copied into each score when it was written
// and rebuilds missing weighted ratings from it.
func toScores(docs []scoreDoc) ([]evaluation.Score, float64, float64) {
	scores := make([]evaluation.Score, 0, len(docs))
	var total, weighted float64
	for _, doc := range docs {
		s := evaluation.Score{
			KPIID:     idString(doc.KPIID),
			Score:     number(doc.Score),
			Weightage: number(doc.Weightage),
		}
		if doc.WeightedRating.Type != 0 {
			s.WeightedRating = number(doc.WeightedRating)
		} else {
			s.WeightedRating = s.Score * s.Weightage / 100
		}
		scores = append(scores, s)
		total += s.Score
		weighted += s.WeightedRating
	}
	return scores, total, weighted
}

func toLines(docs []lineDoc) []payroll.Line {
	lines := make([]payroll.Line, 0, len(docs))
	for _, doc := range docs {
		lines = append(lines, payroll.Line{
			ID:     idString(doc.ID),
			Name:   strings.TrimSpace(doc.Name),
			Amount: payroll.Amount(number(doc.Amount)),
		})
	}
	return lines
}
