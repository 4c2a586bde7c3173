package legacy

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"hradmin/internal/domain/access"
)

func decode[T any](t *testing.T, doc bson.D) T {
	t.Helper()
	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out T
	if err := bson.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestNumberIsLenient(t *testing.T) {
	type holder struct {
		V bson.RawValue `bson:"v"`
	}
	tests := []struct {
		value any
		want  float64
	}{
		{12.5, 12.5},
		{int32(7), 7},
		{int64(9), 9},
		{" 42.25 ", 42.25},
		{"abc", 0},
		{true, 0},
		{nil, 0},
	}
	for _, tc := range tests {
		h := decode[holder](t, bson.D{{Key: "v", Value: tc.value}})
		if got := number(h.V); got != tc.want {
			t.Fatalf("number(%v) = %v, want %v", tc.value, got, tc.want)
		}
	}

	missing := decode[holder](t, bson.D{})
	if number(missing.V) != 0 {
		t.Fatal("missing field should read as 0")
	}
}

func TestIDStringAcceptsObjectIDAndHex(t *testing.T) {
	type holder struct {
		V bson.RawValue `bson:"v"`
	}
	oid := primitive.NewObjectID()
	if got := idString(decode[holder](t, bson.D{{Key: "v", Value: oid}}).V); got != oid.Hex() {
		t.Fatalf("expected %s, got %s", oid.Hex(), got)
	}
	if got := idString(decode[holder](t, bson.D{{Key: "v", Value: oid.Hex()}}).V); got != oid.Hex() {
		t.Fatalf("expected %s, got %s", oid.Hex(), got)
	}
	if got := idString(decode[holder](t, bson.D{{Key: "v", Value: 12}}).V); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}

func TestToRecord(t *testing.T) {
	formID := primitive.NewObjectID()
	doc := decode[formAccessDoc](t, bson.D{
		{Key: "formId", Value: formID},
		{Key: "fullAccess", Value: false},
		{Key: "noAccess", Value: false},
		{Key: "partialAccess", Value: bson.D{
			{Key: "enabled", Value: true},
			{Key: "permissions", Value: bson.D{{Key: "view", Value: true}, {Key: "applyKpi", Value: true}}},
		}},
		{Key: "selectedAccessLevel", Value: "Partial Access"},
	})

	rec := toRecord(doc)
	if rec.FormID != formID.Hex() {
		t.Fatalf("unexpected form id %q", rec.FormID)
	}
	if rec.Access().Level != access.LevelPartial || !rec.Access().Allows(access.FlagApplyKPI) {
		t.Fatalf("expected partial access with applyKpi, got %+v", rec.Access())
	}
	if rec.PartialAccess.Permissions[access.FlagEdit] {
		t.Fatal("missing flags should default to false")
	}
	if _, ok := rec.PartialAccess.Permissions[access.FlagApplyRPT]; !ok {
		t.Fatal("expected normalized permission set")
	}
	if rec.SelectedAccessLevel != string(access.LevelPartial) {
		t.Fatalf("unexpected selected level %q", rec.SelectedAccessLevel)
	}
}

func TestToScoresRebuildsWeightedRating(t *testing.T) {
	doc := decode[evaluationDoc](t, bson.D{
		{Key: "_id", Value: primitive.NewObjectID()},
		{Key: "scores", Value: bson.A{
			bson.D{{Key: "kpiId", Value: "a"}, {Key: "score", Value: 4}, {Key: "weightage", Value: 50}, {Key: "weightedRating", Value: 2.0}},
			bson.D{{Key: "kpiId", Value: "b"}, {Key: "score", Value: "3"}, {Key: "weightage", Value: 50}},
		}},
	})

	scores, total, weighted := toScores(doc.Scores)
	if len(scores) != 2 || total != 7 {
		t.Fatalf("unexpected scores %+v total %v", scores, total)
	}
	if scores[1].WeightedRating != 1.5 || weighted != 3.5 {
		t.Fatalf("expected rebuilt rating 1.5 and total 3.5, got %v and %v", scores[1].WeightedRating, weighted)
	}
}

func TestToLines(t *testing.T) {
	doc := decode[payrollDoc](t, bson.D{
		{Key: "_id", Value: primitive.NewObjectID()},
		{Key: "basicSalary", Value: "50000"},
		{Key: "allowances", Value: bson.A{bson.D{{Key: "name", Value: " Housing "}, {Key: "amount", Value: 5000}}}},
		{Key: "deductions", Value: bson.A{bson.D{{Key: "name", Value: "Tax"}, {Key: "amount", Value: "2000"}}}},
	})

	allowances := withIDs(toLines(doc.Allowances))
	if allowances[0].Name != "Housing" || allowances[0].Amount != 5000 || allowances[0].ID == "" {
		t.Fatalf("unexpected allowance %+v", allowances[0])
	}
	if number(doc.BasicSalary) != 50000 || toLines(doc.Deductions)[0].Amount != 2000 {
		t.Fatalf("unexpected amounts")
	}
}
