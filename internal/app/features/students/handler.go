// internal/app/features/students/handler.go
package students

import (
	applicationstore "github.com/dalemusser/placementhub/internal/app/store/applications"
	attemptstore "github.com/dalemusser/placementhub/internal/app/store/attempts"
	communicationstore "github.com/dalemusser/placementhub/internal/app/store/communications"
	interviewstore "github.com/dalemusser/placementhub/internal/app/store/interviews"
	loginstore "github.com/dalemusser/placementhub/internal/app/store/logins"
	resumescanstore "github.com/dalemusser/placementhub/internal/app/store/resumescans"
	studentstore "github.com/dalemusser/placementhub/internal/app/store/students"
	submissionstore "github.com/dalemusser/placementhub/internal/app/store/submissions"
	"github.com/dalemusser/placementhub/internal/app/system/auditlog"
	"github.com/dalemusser/placementhub/internal/app/system/filestore"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the admin student directory and the student's own profile.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Files    filestore.Store
	AuditLog *auditlog.Logger

	Students     *studentstore.Store
	Applications *applicationstore.Store
	Attempts     *attemptstore.Store
	Submissions  *submissionstore.Store
	Scans        *resumescanstore.Store
	Interviews   *interviewstore.Store
	Comms        *communicationstore.Store
	Logins       *loginstore.Store
}

func NewHandler(db *mongo.Database, files filestore.Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:           db,
		Log:          logger,
		Files:        files,
		AuditLog:     audit,
		Students:     studentstore.New(db),
		Applications: applicationstore.New(db),
		Attempts:     attemptstore.New(db),
		Submissions:  submissionstore.New(db),
		Scans:        resumescanstore.New(db),
		Interviews:   interviewstore.New(db),
		Comms:        communicationstore.New(db),
		Logins:       loginstore.New(db),
	}
}
