// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/placementhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and attaches JSON-Schema
// validators. Servers without collMod/validator support are logged and
// skipped.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	existing := map[string]bool{}
	if names, err := db.ListCollectionNames(ctx, bson.M{}); err == nil {
		for _, n := range names {
			existing[n] = true
		}
	}

	var problems []string
	ensure := func(coll string, schema bson.M) {
		if !existing[coll] {
			if err := createCollection(ctx, db, coll, logger); err != nil {
				problems = append(problems, coll+": "+err.Error())
				return
			}
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				logger.Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
			return
		}
		logger.Debug("validator ensured", zap.String("collection", coll))
	}

	ensure("students", studentsSchema())
	ensure("admins", adminsSchema())
	ensure("companies", companiesSchema())
	ensure("applications", applicationsSchema())
	ensure("announcements", announcementsSchema())
	ensure("quizzes", quizzesSchema())
	ensure("attempts", attemptsSchema())
	ensure("problems", problemsSchema())
	ensure("submissions", submissionsSchema())

	for _, coll := range []string{
		"resume_scans", "interview_sessions", "communication_evals",
		"login_records", "audit_events", "password_resets", "oauth_states",
	} {
		ensure(coll, nil)
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func createCollection(ctx context.Context, db *mongo.Database, name string, logger *zap.Logger) error {
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			return nil
		}
		logger.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return err
	}
	logger.Info("created collection", zap.String("collection", name))
	return nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	return db.RunCommand(ctx, cmd).Err()
}

/* ------------------------- error helpers ------------------------- */

func commandErrorMatches(err error, code int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == code {
		return true
	}
	s := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func isNamespaceExistsErr(err error) bool {
	return commandErrorMatches(err, 48, "already exists", "namespace exists")
}

func isNoSuchCommand(err error) bool {
	return commandErrorMatches(err, 59, "no such command")
}

func isNotImplemented(err error) bool {
	return commandErrorMatches(err, 115, "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func schema(required bson.A, props bson.M) bson.M {
	return bson.M{"$jsonSchema": bson.M{"bsonType": "object", "required": required, "properties": props}}
}

func enumOf(values ...string) bson.M {
	a := make(bson.A, len(values))
	for i, v := range values {
		a[i] = v
	}
	return bson.M{"enum": a}
}

func studentsSchema() bson.M {
	return schema(bson.A{"name", "email", "password_hash", "status"}, bson.M{
		"name":    nonBlank,
		"email":   nonBlank,
		"roll_no": bson.M{"bsonType": "string"},
		"year":    bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0, "maximum": 6},
		"cgpa":    bson.M{"bsonType": bson.A{"double", "int"}, "minimum": 0, "maximum": 10},
		"status":  enumOf("active", "disabled"),
	})
}

func adminsSchema() bson.M {
	return schema(bson.A{"name", "email", "password_hash", "status"}, bson.M{
		"name":        nonBlank,
		"email":       nonBlank,
		"super_admin": bson.M{"bsonType": "bool"},
		"status":      enumOf("active", "disabled"),
	})
}

func companiesSchema() bson.M {
	return schema(bson.A{"name", "role", "deadline", "status"}, bson.M{
		"name":        nonBlank,
		"role":        nonBlank,
		"package_lpa": bson.M{"bsonType": bson.A{"double", "int"}, "minimum": 0},
		"min_cgpa":    bson.M{"bsonType": bson.A{"double", "int"}, "minimum": 0, "maximum": 10},
		"deadline":    bson.M{"bsonType": "date"},
		"status":      enumOf(models.CompanyOpen, models.CompanyClosed),
	})
}

func applicationsSchema() bson.M {
	return schema(bson.A{"company_id", "student_id", "status", "applied_at"}, bson.M{
		"company_id": bson.M{"bsonType": "objectId"},
		"student_id": bson.M{"bsonType": "objectId"},
		"status":     enumOf(models.ApplicationStatuses...),
	})
}

func announcementsSchema() bson.M {
	return schema(bson.A{"title", "content", "type", "active"}, bson.M{
		"title":  nonBlank,
		"type":   enumOf(string(models.AnnouncementInfo), string(models.AnnouncementWarning), string(models.AnnouncementDrive), string(models.AnnouncementResult)),
		"active": bson.M{"bsonType": "bool"},
		"pinned": bson.M{"bsonType": "bool"},
	})
}

func quizzesSchema() bson.M {
	return schema(bson.A{"title", "duration_minutes", "questions", "active"}, bson.M{
		"title":            nonBlank,
		"duration_minutes": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1},
		"questions": bson.M{
			"bsonType": "array",
			"items": bson.M{
				"bsonType": "object",
				"required": bson.A{"text", "options"},
				"properties": bson.M{
					"options": bson.M{"bsonType": "array", "minItems": 2},
				},
			},
		},
	})
}

func attemptsSchema() bson.M {
	return schema(bson.A{"quiz_id", "student_id", "started_at"}, bson.M{
		"quiz_id":    bson.M{"bsonType": "objectId"},
		"student_id": bson.M{"bsonType": "objectId"},
		"percentage": bson.M{"bsonType": bson.A{"double", "int"}, "minimum": 0, "maximum": 100},
	})
}

func problemsSchema() bson.M {
	return schema(bson.A{"title", "slug", "difficulty", "statement"}, bson.M{
		"title":      nonBlank,
		"slug":       bson.M{"bsonType": "string", "pattern": "^[a-z0-9]+(-[a-z0-9]+)*$"},
		"difficulty": enumOf(models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard),
	})
}

func submissionsSchema() bson.M {
	return schema(bson.A{"problem_id", "student_id", "language", "verdict"}, bson.M{
		"problem_id": bson.M{"bsonType": "objectId"},
		"student_id": bson.M{"bsonType": "objectId"},
		"verdict": enumOf(models.VerdictAccepted, models.VerdictWrongAnswer, models.VerdictRuntimeError,
			models.VerdictCompileError, models.VerdictTimeLimit),
	})
}
