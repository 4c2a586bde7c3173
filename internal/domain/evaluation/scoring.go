package evaluation

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

type Action string

const (
	ActionUrgentMeeting Action = "Urgent Meeting"
	ActionHRMeeting     Action = "Hr Meeting"
	ActionMotivate      Action = "Motivate"
	ActionNothing       Action = "Nothing"
	ActionBonus         Action = "Bonus"
	ActionNone          Action = "None"
)

const (
	MaxTotalWeightage = 100.0
	MaxScore          = 5.0
	MaxWeekNumber     = 5
	// WeeksPerMonth is the fixed divisor for monthly ratings, whatever the
	// number of evaluated weeks.
	WeeksPerMonth = 4.0

	weightageEpsilon = 1e-9
)

var actionLadder = []struct {
	upTo   float64
	action Action
}{
	{1, ActionUrgentMeeting},
	{2, ActionHRMeeting},
	{3, ActionMotivate},
	{4, ActionNothing},
	{5, ActionBonus},
}

// ClassifyAction walks the ladder with inclusive upper bounds.
func ClassifyAction(totalWeightedRating float64) Action {
	for _, step := range actionLadder {
		if totalWeightedRating <= step.upTo {
			return step.action
		}
	}
	return ActionNone
}

// ComputeScores prices each raw score with its KPI weightage. Unknown KPIs
// weigh 0. Totals are not rounded.
func ComputeScores(raw []RawScore, weightageByKPI map[string]float64) ([]Score, float64, float64) {
	scores := make([]Score, 0, len(raw))
	var totalScore, totalWeighted float64
	for _, item := range raw {
		weightage := weightageByKPI[item.KPIID]
		weighted := item.Score * weightage / 100
		scores = append(scores, Score{
			KPIID:          item.KPIID,
			Score:          item.Score,
			Weightage:      weightage,
			WeightedRating: weighted,
		})
		totalScore += item.Score
		totalWeighted += weighted
	}
	return scores, totalScore, totalWeighted
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// WeightageExceededError reports a program set that would pass 100.
type WeightageExceededError struct {
	Current   float64
	Requested float64
}

func (e *WeightageExceededError) Error() string {
	return fmt.Sprintf("total weightage would be %.2f (current %.2f, requested %.2f), limit is %.0f",
		e.Current+e.Requested, e.Current, e.Requested, MaxTotalWeightage)
}

// CheckWeightage validates adding requested on top of the other programs' total.
func CheckWeightage(otherTotal, requested float64) error {
	if otherTotal+requested > MaxTotalWeightage+weightageEpsilon {
		return &WeightageExceededError{Current: otherTotal, Requested: requested}
	}
	return nil
}

// BuildWeeklySummary drops users without evaluation activity, ranks the
// rest by weighted rating and attaches an action.
func BuildWeeklySummary(totals []UserTotals) []WeeklySummaryRow {
	active := make([]UserTotals, 0, len(totals))
	for _, t := range totals {
		if t.TotalScore > 0 {
			active = append(active, t)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].TotalWeightedRating == active[j].TotalWeightedRating {
			return strings.ToLower(active[i].UserName) < strings.ToLower(active[j].UserName)
		}
		return active[i].TotalWeightedRating > active[j].TotalWeightedRating
	})

	rows := make([]WeeklySummaryRow, 0, len(active))
	for _, t := range active {
		rows = append(rows, WeeklySummaryRow{
			UserID:              t.UserID,
			UserName:            t.UserName,
			Email:               t.Email,
			TotalScore:          Round2(t.TotalScore),
			TotalWeightedRating: Round2(t.TotalWeightedRating),
			Action:              ClassifyAction(t.TotalWeightedRating),
		})
	}
	return rows
}

// MonthlyAverages turns per-month weighted sums into twelve ratings.
func MonthlyAverages(weightedByMonth map[int]float64) []MonthlyRating {
	out := make([]MonthlyRating, 0, 12)
	for m := 1; m <= 12; m++ {
		out = append(out, MonthlyRating{
			Month:  m,
			Name:   time.Month(m).String(),
			Rating: Round2(weightedByMonth[m] / WeeksPerMonth),
		})
	}
	return out
}

// BuildMonthlySummary rates every active user for one month.
func BuildMonthlySummary(totals []UserTotals) []MonthlySummaryRow {
	rows := make([]MonthlySummaryRow, 0, len(totals))
	for _, t := range totals {
		if t.TotalScore <= 0 {
			continue
		}
		rating := t.TotalWeightedRating / WeeksPerMonth
		rows = append(rows, MonthlySummaryRow{
			UserID:   t.UserID,
			UserName: t.UserName,
			Email:    t.Email,
			Rating:   Round2(rating),
			Action:   ClassifyAction(rating),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Rating == rows[j].Rating {
			return strings.ToLower(rows[i].UserName) < strings.ToLower(rows[j].UserName)
		}
		return rows[i].Rating > rows[j].Rating
	})
	return rows
}

// PeriodOf returns the month and year an evaluation counts towards.
func PeriodOf(weekStart time.Time) (int, int) {
	return int(weekStart.Month()), weekStart.Year()
}
