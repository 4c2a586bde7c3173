package legacy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"hradmin/internal/domain/access"
	"hradmin/internal/domain/evaluation"
	"hradmin/internal/domain/payroll"
	"hradmin/internal/platform/db"
	"hradmin/internal/platform/logger"
)

// Collection names used by the MongoDB deployment being migrated.
const (
	collRoles       = "roles"
	collForms       = "accesscontrolform"
	collUsers       = "users"
	collAccess      = "useraccesscontrol"
	collPrograms    = "evaluationprograms"
	collEvaluations = "weeklyevaluations"
	collAllowances  = "allowances"
	collDeductions  = "deductions"
	collPayroll     = "payrollsetup"
)

type Report map[string]int

type Importer struct {
	Source *mongo.Database
	DB     *pgxpool.Pool
	Now    func() time.Time
}

// Connect opens and pings the source database.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, client.Database(database), nil
}

func NewImporter(source *mongo.Database, pool *pgxpool.Pool) *Importer {
	return &Importer{Source: source, DB: pool, Now: time.Now}
}

// Run copies every collection in dependency order. Rows that already
// exist are left alone, so the import can be repeated.
func (im *Importer) Run(ctx context.Context) (Report, error) {
	report := Report{}
	steps := []struct {
		name string
		run  func(context.Context) (int, error)
	}{
		{collRoles, im.importRoles},
		{collForms, im.importForms},
		{collUsers, im.importUsers},
		{collAccess, im.importAccess},
		{collPrograms, im.importPrograms},
		{collEvaluations, im.importEvaluations},
		{collAllowances, func(ctx context.Context) (int, error) { return im.importPayItems(ctx, collAllowances, payroll.ItemAllowance) }},
		{collDeductions, func(ctx context.Context) (int, error) { return im.importPayItems(ctx, collDeductions, payroll.ItemDeduction) }},
		{collPayroll, im.importPayroll},
	}
	for _, step := range steps {
		n, err := step.run(ctx)
		if err != nil {
			return report, fmt.Errorf("import %s: %w", step.name, err)
		}
		report[step.name] = n
		logger.From(ctx).Info("legacy collection imported", "collection", step.name, "inserted", n)
	}

	if err := access.NewStore(im.DB).EnsureMatrices(ctx); err != nil {
		return report, fmt.Errorf("fill access matrices: %w", err)
	}
	return report, nil
}

// each decodes every document of a collection into T and hands it to fn.
func each[T any](ctx context.Context, coll *mongo.Collection, fn func(T) error) error {
	cursor, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	for cursor.Next(ctx) {
		var doc T
		if err := cursor.Decode(&doc); err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return cursor.Err()
}

// insert skips rows whose references did not make it across.
func (im *Importer) insert(ctx context.Context, sql string, args ...any) (int, error) {
	tag, err := im.DB.Exec(ctx, sql, args...)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			logger.From(ctx).Warn("legacy row skipped", "id", args[0], "err", err)
			return 0, nil
		}
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (im *Importer) importRoles(ctx context.Context) (int, error) {
	now := im.Now().UTC()
	total := 0
	err := each(ctx, im.Source.Collection(collRoles), func(doc roleDoc) error {
		n, err := im.insert(ctx, `
      INSERT INTO roles (id, name, description, created_at, updated_at)
      VALUES ($1, $2, $3, $4, $4)
      ON CONFLICT DO NOTHING
    `, doc.ID.Hex(), strings.TrimSpace(doc.Name), doc.Description, orNow(doc.CreatedAt, now))
		total += n
		return err
	})
	return total, err
}

func (im *Importer) importForms(ctx context.Context) (int, error) {
	total := 0
	position := 0
	err := each(ctx, im.Source.Collection(collForms), func(doc formDoc) error {
		n, err := im.insert(ctx, `
      INSERT INTO access_forms (id, name, description, position)
      VALUES ($1, $2, $3, $4)
      ON CONFLICT DO NOTHING
    `, doc.ID.Hex(), strings.TrimSpace(doc.Name), doc.Description, position)
		position++
		total += n
		return err
	})
	return total, err
}

func (im *Importer) importUsers(ctx context.Context) (int, error) {
	now := im.Now().UTC()
	total := 0
	err := each(ctx, im.Source.Collection(collUsers), func(doc userDoc) error {
		roleID := idString(doc.RoleID)
		if roleID == "" || doc.Password == "" {
			logger.From(ctx).Warn("legacy user skipped", "userId", doc.ID.Hex(), "reason", "missing role or password")
			return nil
		}
		active := true
		if doc.IsActive != nil {
			active = *doc.IsActive
		}
		n, err := im.insert(ctx, `
      INSERT INTO users (id, name, email, phone, address, password_hash, is_active, role_id,
                         job_description, reset_password, profile_image, created_at, updated_at)
      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
      ON CONFLICT DO NOTHING
    `, doc.ID.Hex(), strings.TrimSpace(doc.Name), strings.ToLower(strings.TrimSpace(doc.Email)),
			text(doc.Phone), doc.Address, doc.Password, active, roleID, doc.JobDescription,
			doc.ResetPassword, doc.ProfileImage, orNow(doc.CreatedAt, now))
		total += n
		return err
	})
	return total, err
}

func (im *Importer) importAccess(ctx context.Context) (int, error) {
	total := 0
	err := each(ctx, im.Source.Collection(collAccess), func(doc accessControlDoc) error {
		userID, roleID := idString(doc.UserID), idString(doc.RoleID)
		if userID == "" || roleID == "" {
			return nil
		}
		if _, err := im.insert(ctx, `
      INSERT INTO user_access_controls (id, user_id, role_id)
      VALUES ($1, $2, $3)
      ON CONFLICT DO NOTHING
    `, doc.ID.Hex(), userID, roleID); err != nil {
			return err
		}
		var controlID string
		if err := im.DB.QueryRow(ctx, "SELECT id FROM user_access_controls WHERE user_id = $1", userID).Scan(&controlID); err != nil {
			if db.IsNoRows(err) {
				return nil
			}
			return err
		}
		for _, fa := range doc.FormAccess {
			rec := toRecord(fa)
			if rec.FormID == "" {
				continue
			}
			n, err := im.insert(ctx, `
        INSERT INTO form_access (access_control_id, user_id, form_id, full_access, no_access,
                                 partial_enabled, permissions, selected_access_level)
        SELECT $1, $2, $3, $4, $5, $6, $7, NULLIF($8, '')
        WHERE EXISTS (SELECT 1 FROM access_forms WHERE id = $3)
        ON CONFLICT DO NOTHING
      `, controlID, userID, rec.FormID, rec.FullAccess, rec.NoAccess, rec.PartialAccess.Enabled,
				rec.PartialAccess.Permissions, rec.SelectedAccessLevel)
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	return total, err
}

func (im *Importer) importPrograms(ctx context.Context) (int, error) {
	now := im.Now().UTC()
	total := 0
	err := each(ctx, im.Source.Collection(collPrograms), func(doc programDoc) error {
		n, err := im.insert(ctx, `
      INSERT INTO evaluation_programs (id, name, description, weightage, created_at, updated_at)
      VALUES ($1, $2, $3, $4, $5, $5)
      ON CONFLICT DO NOTHING
    `, doc.ID.Hex(), strings.TrimSpace(doc.Name), doc.Description, number(doc.Weightage), orNow(doc.CreatedAt, now))
		total += n
		return err
	})
	return total, err
}

func (im *Importer) importEvaluations(ctx context.Context) (int, error) {
	now := im.Now().UTC()
	total := 0
	err := each(ctx, im.Source.Collection(collEvaluations), func(doc evaluationDoc) error {
		userID := idString(doc.UserID)
		if userID == "" || doc.WeekStart.IsZero() {
			return nil
		}
		scores, totalScore, totalWeighted := toScores(doc.Scores)
		month, year := evaluation.PeriodOf(doc.WeekStart)
		n, err := im.insert(ctx, `
      INSERT INTO weekly_evaluations (id, user_id, evaluated_by, week_number, week_start, week_end,
                                      period_month, period_year, scores, comments, total_score,
                                      total_weighted_rating, created_at, updated_at)
      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
      ON CONFLICT DO NOTHING
    `, doc.ID.Hex(), userID, idString(doc.EvaluatedBy), int(number(doc.WeekNumber)), doc.WeekStart,
			orNow(doc.WeekEnd, doc.WeekStart), month, year, scores, doc.Comments, totalScore, totalWeighted,
			orNow(doc.CreatedAt, now))
		total += n
		return err
	})
	return total, err
}

func (im *Importer) importPayItems(ctx context.Context, collection string, itemType payroll.ItemType) (int, error) {
	now := im.Now().UTC()
	total := 0
	err := each(ctx, im.Source.Collection(collection), func(doc payItemDoc) error {
		n, err := im.insert(ctx, `
      INSERT INTO pay_items (id, type, name, description, created_at, updated_at)
      VALUES ($1, $2, $3, $4, $5, $5)
      ON CONFLICT DO NOTHING
    `, doc.ID.Hex(), string(itemType), strings.TrimSpace(doc.Name), doc.Description, orNow(doc.CreatedAt, now))
		total += n
		return err
	})
	return total, err
}

func (im *Importer) importPayroll(ctx context.Context) (int, error) {
	now := im.Now().UTC()
	total := 0
	err := each(ctx, im.Source.Collection(collPayroll), func(doc payrollDoc) error {
		userID := idString(doc.UserID)
		if userID == "" {
			return nil
		}
		allowances, deductions := withIDs(toLines(doc.Allowances)), withIDs(toLines(doc.Deductions))
		basic := payroll.Amount(number(doc.BasicSalary))
		salary := payroll.ComputeSalary(basic, allowances, deductions)
		n, err := im.insert(ctx, `
      INSERT INTO payroll_setups (id, user_id, employment_type, payroll_frequency, basic_salary,
                                  allowances, deductions, gross_salary, net_amount, created_at, updated_at)
      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
      ON CONFLICT DO NOTHING
    `, doc.ID.Hex(), userID, doc.EmploymentType, doc.PayrollFrequency, salary.BasicSalary,
			allowances, deductions, salary.GrossSalary, salary.NetAmount, orNow(doc.CreatedAt, now))
		total += n
		return err
	})
	return total, err
}

func withIDs(lines []payroll.Line) []payroll.Line {
	for i := range lines {
		if lines[i].ID == "" {
			lines[i].ID = db.NewID()
		}
	}
	return lines
}
