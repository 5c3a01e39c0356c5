// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type collectionIndexes struct {
	name    string
	indexes []mongo.IndexModel
}

/*
EnsureAll reconciles every collection's indexes at startup. Each set is
idempotent; problems are aggregated so one bad collection does not hide
another and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var problems []string
	for _, ci := range all() {
		if err := ensureIndexSet(ctx, db.Collection(ci.name), ci.indexes, logger); err != nil {
			problems = append(problems, ci.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// all lists the desired index sets per collection.
func all() []collectionIndexes {
	return []collectionIndexes{
		{"students", students()},
		{"admins", admins()},
		{"companies", companies()},
		{"applications", applications()},
		{"announcements", announcements()},
		{"quizzes", quizzes()},
		{"attempts", attempts()},
		{"problems", problems()},
		{"submissions", submissions()},
		{"resume_scans", byStudentCreated("resume_scans")},
		{"interview_sessions", byStudentCreated("interview_sessions")},
		{"communication_evals", byStudentCreated("communication_evals")},
		{"login_records", loginRecords()},
		{"audit_events", auditEvents()},
		{"password_resets", passwordResets()},
		{"oauth_states", oauthStates()},
	}
}

/* -------------------------------------------------------------------------- */
/* Reconciliation                                                             */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(b *bool) bool { return b != nil && *b }

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// IndexOptionsConflict: same keys already indexed under another name or options.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listIndexes(ctx context.Context, coll *mongo.Collection, logger *zap.Logger) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			logger.Warn("failed to decode existing index", zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel, logger *zap.Logger) error {
	var errs []string
	for _, m := range models {
		if err := reconcile(ctx, coll, m, logger); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// reconcile makes one desired index exist with the desired name and
// uniqueness, dropping and recreating an existing index on the same keys
// when they differ.
func reconcile(ctx context.Context, coll *mongo.Collection, m mongo.IndexModel, logger *zap.Logger) error {
	var name string
	var unique *bool
	if m.Options != nil {
		if m.Options.Name != nil {
			name = *m.Options.Name
		}
		unique = m.Options.Unique
	}
	sig := keySig(m.Keys.(bson.D))
	start := time.Now()
	log := logger.With(zap.String("collection", coll.Name()), zap.String("name", name), zap.String("keys", sig))

	ex, found := listIndexes(ctx, coll, logger)[sig]
	if found && boolVal(ex.Unique) == boolVal(unique) && (name == "" || ex.Name == name) {
		log.Debug("reusing existing index")
		return nil
	}
	if found {
		if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
			log.Warn("drop existing index failed", zap.String("existing", ex.Name), zap.Error(err))
			return fmt.Errorf("%s(%s): drop failed: %v", coll.Name(), name, err)
		}
		log.Info("dropped index to realign name/options", zap.String("existing", ex.Name))
	}

	created, err := coll.Indexes().CreateOne(ctx, m)
	if err != nil && isOptionsConflictErr(err) {
		if ex, ok := listIndexes(ctx, coll, logger)[sig]; ok {
			if boolVal(ex.Unique) == boolVal(unique) {
				log.Info("reusing existing index (post-conflict)", zap.String("existing", ex.Name))
				return nil
			}
			if _, dropErr := coll.Indexes().DropOne(ctx, ex.Name); dropErr != nil {
				log.Warn("failed to drop conflicting index", zap.Error(dropErr))
			}
			created, err = coll.Indexes().CreateOne(ctx, m)
		}
	}
	if err != nil {
		log.Warn("index ensure failed", zap.Duration("took", time.Since(start)), zap.Error(err))
		if isDuplicateKeyErr(err) && boolVal(unique) {
			return fmt.Errorf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name)
		}
		return fmt.Errorf("%s(%s): %v", coll.Name(), name, err)
	}
	log.Info("index ensured", zap.String("created_name", created), zap.Bool("unique", boolVal(unique)),
		zap.Duration("took", time.Since(start)))
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func idx(name string, keys ...bson.E) mongo.IndexModel {
	return mongo.IndexModel{Keys: bson.D(keys), Options: options.Index().SetName(name)}
}

func uniq(name string, keys ...bson.E) mongo.IndexModel {
	return mongo.IndexModel{Keys: bson.D(keys), Options: options.Index().SetUnique(true).SetName(name)}
}

func asc(k string) bson.E  { return bson.E{Key: k, Value: 1} }
func desc(k string) bson.E { return bson.E{Key: k, Value: -1} }

func students() []mongo.IndexModel {
	return []mongo.IndexModel{
		uniq("uniq_students_email", asc("email")),
		// Roll numbers and Google IDs are optional (Google sign-up, password
		// sign-up), so only documents that carry one take part.
		{
			Keys: bson.D{asc("roll_no")},
			Options: options.Index().SetUnique(true).SetName("uniq_students_rollno").
				SetPartialFilterExpression(bson.M{"roll_no": bson.M{"$gt": ""}}),
		},
		{
			Keys: bson.D{asc("google_id")},
			Options: options.Index().SetUnique(true).SetName("uniq_students_googleid").
				SetPartialFilterExpression(bson.M{"google_id": bson.M{"$type": "string"}}),
		},
		idx("idx_students_nameci__id", asc("name_ci"), asc("_id")),
		idx("idx_students_branch_year_placed", asc("branch"), asc("year"), asc("placed")),
		idx("idx_students_created", desc("created_at")),
	}
}

func admins() []mongo.IndexModel {
	return []mongo.IndexModel{
		uniq("uniq_admins_email", asc("email")),
	}
}

func companies() []mongo.IndexModel {
	return []mongo.IndexModel{
		idx("idx_companies_status_deadline", asc("status"), asc("deadline")),
		idx("idx_companies_nameci__id", asc("name_ci"), asc("_id")),
		idx("idx_companies_drivedate", asc("drive_date")),
	}
}

func applications() []mongo.IndexModel {
	return []mongo.IndexModel{
		// One application per student per company.
		uniq("uniq_applications_company_student", asc("company_id"), asc("student_id")),
		idx("idx_applications_student_applied", asc("student_id"), desc("applied_at")),
		idx("idx_applications_status", asc("status")),
	}
}

func announcements() []mongo.IndexModel {
	return []mongo.IndexModel{
		idx("idx_announcements_active_pinned_created", asc("active"), desc("pinned"), desc("created_at")),
	}
}

func quizzes() []mongo.IndexModel {
	return []mongo.IndexModel{
		idx("idx_quizzes_active_created", asc("active"), desc("created_at")),
		idx("idx_quizzes_endsat", asc("ends_at")),
	}
}

func attempts() []mongo.IndexModel {
	return []mongo.IndexModel{
		uniq("uniq_attempts_quiz_student", asc("quiz_id"), asc("student_id")),
		idx("idx_attempts_student_started", asc("student_id"), desc("started_at")),
		idx("idx_attempts_quiz_percentage", asc("quiz_id"), desc("percentage")),
	}
}

func problems() []mongo.IndexModel {
	return []mongo.IndexModel{
		uniq("uniq_problems_slug", asc("slug")),
		idx("idx_problems_difficulty_created", asc("difficulty"), desc("created_at")),
		idx("idx_problems_tags", asc("tags")),
	}
}

func submissions() []mongo.IndexModel {
	return []mongo.IndexModel{
		idx("idx_submissions_student_created", asc("student_id"), desc("created_at")),
		idx("idx_submissions_problem_created", asc("problem_id"), desc("created_at")),
		idx("idx_submissions_student_verdict_problem", asc("student_id"), asc("verdict"), asc("problem_id")),
	}
}

func byStudentCreated(coll string) []mongo.IndexModel {
	return []mongo.IndexModel{
		idx("idx_"+coll+"_student_created", asc("student_id"), desc("created_at")),
	}
}

func loginRecords() []mongo.IndexModel {
	return []mongo.IndexModel{
		idx("idx_logins_user_created", asc("user_id"), desc("created_at")),
		idx("idx_logins_created", desc("created_at")),
	}
}

func auditEvents() []mongo.IndexModel {
	return []mongo.IndexModel{
		idx("idx_audit_timestamp", desc("timestamp")),
		idx("idx_audit_category_event_timestamp", asc("category"), asc("event_type"), desc("timestamp")),
		idx("idx_audit_user_timestamp", asc("user_id"), desc("timestamp")),
	}
}

func passwordResets() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{asc("expires_at")},
			Options: options.Index().SetName("idx_pwreset_expires_ttl").SetExpireAfterSeconds(0),
		},
		idx("idx_pwreset_role_email", asc("role"), asc("email")),
	}
}

func oauthStates() []mongo.IndexModel {
	return []mongo.IndexModel{
		uniq("uniq_oauthstate_state", asc("state")),
		{
			Keys:    bson.D{asc("expires_at")},
			Options: options.Index().SetName("idx_oauthstate_expires_ttl").SetExpireAfterSeconds(0),
		},
	}
}
