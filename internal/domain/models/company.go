// internal/domain/models/company.go
package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Company status values.
const (
	CompanyOpen   = "open"
	CompanyClosed = "closed"
)

// Company is a recruiting drive posted by the placement cell.
// Description holds sanitised HTML.
type Company struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	Role        string             `bson:"role" json:"role"`
	Description string             `bson:"description" json:"description"`
	Location    string             `bson:"location,omitempty" json:"location,omitempty"`
	PackageLPA  float64            `bson:"package_lpa" json:"package_lpa"`
	MinCGPA     float64            `bson:"min_cgpa" json:"min_cgpa"`
	Branches    []string           `bson:"branches,omitempty" json:"branches"`
	Deadline    time.Time          `bson:"deadline" json:"deadline"`
	DriveDate   *time.Time         `bson:"drive_date,omitempty" json:"drive_date,omitempty"`
	LogoURL     string             `bson:"logo_url,omitempty" json:"logo_url,omitempty"`
	LogoKey     string             `bson:"logo_key,omitempty" json:"-"`
	Status      string             `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// IneligibleReasons lists why st may not apply to c at now. An empty result
// means the student is eligible. Branches are compared case-insensitively;
// an empty Branches list admits every branch.
func (c Company) IneligibleReasons(st Student, now time.Time) []string {
	var reasons []string
	if c.Status != CompanyOpen {
		reasons = append(reasons, "applications are closed")
	}
	if !now.Before(c.Deadline) {
		reasons = append(reasons, "the application deadline has passed")
	}
	if st.CGPA < c.MinCGPA {
		reasons = append(reasons, fmt.Sprintf("minimum CGPA is %.2f", c.MinCGPA))
	}
	if len(c.Branches) > 0 {
		ok := false
		for _, b := range c.Branches {
			if strings.EqualFold(b, st.Branch) {
				ok = true
				break
			}
		}
		if !ok {
			reasons = append(reasons, "your branch is not eligible")
		}
	}
	return reasons
}
