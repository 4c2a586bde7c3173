package legacy

import (
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type roleDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

type formDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
}

type userDoc struct {
	ID             primitive.ObjectID `bson:"_id"`
	Name           string             `bson:"name"`
	Email          string             `bson:"email"`
	Phone          bson.RawValue      `bson:"phone"`
	Address        string             `bson:"address"`
	Password       string             `bson:"password"`
	IsActive       *bool              `bson:"isActive"`
	RoleID         bson.RawValue      `bson:"roleId"`
	JobDescription string             `bson:"jobDescription"`
	ResetPassword  bool               `bson:"resetPassword"`
	ProfileImage   string             `bson:"profileImage"`
	CreatedAt      time.Time          `bson:"createdAt"`
}

type partialDoc struct {
	Enabled     bool            `bson:"enabled"`
	Permissions map[string]bool `bson:"permissions"`
}

type formAccessDoc struct {
	FormID              bson.RawValue `bson:"formId"`
	FullAccess          bool          `bson:"fullAccess"`
	NoAccess            bool          `bson:"noAccess"`
	PartialAccess       partialDoc    `bson:"partialAccess"`
	SelectedAccessLevel string        `bson:"selectedAccessLevel"`
}

type accessControlDoc struct {
	ID         primitive.ObjectID `bson:"_id"`
	UserID     bson.RawValue      `bson:"userId"`
	RoleID     bson.RawValue      `bson:"roleId"`
	FormAccess []formAccessDoc    `bson:"formAccess"`
}

type programDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"Name"`
	Description string             `bson:"Description"`
	Weightage   bson.RawValue      `bson:"Weightage"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

type scoreDoc struct {
	KPIID          bson.RawValue `bson:"kpiId"`
	Score          bson.RawValue `bson:"score"`
	Weightage      bson.RawValue `bson:"weightage"`
	WeightedRating bson.RawValue `bson:"weightedRating"`
}

type evaluationDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	UserID      bson.RawValue      `bson:"userId"`
	EvaluatedBy bson.RawValue      `bson:"evaluatedBy"`
	WeekNumber  bson.RawValue      `bson:"weekNumber"`
	WeekStart   time.Time          `bson:"weekStart"`
	WeekEnd     time.Time          `bson:"weekEnd"`
	Scores      []scoreDoc         `bson:"scores"`
	Comments    string             `bson:"comments"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

type payItemDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

type lineDoc struct {
	ID     bson.RawValue `bson:"_id"`
	Name   string        `bson:"name"`
	Amount bson.RawValue `bson:"amount"`
}

type payrollDoc struct {
	ID               primitive.ObjectID `bson:"_id"`
	UserID           bson.RawValue      `bson:"userId"`
	EmploymentType   string             `bson:"employmentType"`
	PayrollFrequency string             `bson:"payrollFrequency"`
	BasicSalary      bson.RawValue      `bson:"basicSalary"`
	Allowances       []lineDoc          `bson:"allowances"`
	Deductions       []lineDoc          `bson:"deductions"`
	CreatedAt        time.Time          `bson:"createdAt"`
}

// idString reads a reference stored as an ObjectID or a hex string.
func idString(v bson.RawValue) string {
	switch v.Type {
	case bsontype.ObjectID:
		return v.ObjectID().Hex()
	case bsontype.String:
		return strings.TrimSpace(v.StringValue())
	}
	return ""
}

// number reads numeric fields that older documents stored as strings.
// Missing or non-numeric values read as 0.
func number(v bson.RawValue) float64 {
	var f float64
	switch v.Type {
	case bsontype.Double:
		f = v.Double()
	case bsontype.Int32:
		f = float64(v.Int32())
	case bsontype.Int64:
		f = float64(v.Int64())
	case bsontype.Decimal128:
		parsed, err := strconv.ParseFloat(v.Decimal128().String(), 64)
		if err != nil {
			return 0
		}
		f = parsed
	case bsontype.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.StringValue()), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func text(v bson.RawValue) string {
	switch v.Type {
	case bsontype.String:
		return v.StringValue()
	case bsontype.Int32, bsontype.Int64, bsontype.Double:
		return strconv.FormatFloat(number(v), 'f', -1, 64)
	}
	return ""
}

func orNow(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t
}
