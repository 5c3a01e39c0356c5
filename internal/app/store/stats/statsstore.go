// internal/app/store/stats/statsstore.go
package statsstore

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/dalemusser/placementhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

// RegistrationMonths is how many calendar months (current included) the
// registration chart covers.
const RegistrationMonths = 6

// MonthCount is the number of registrations in one "YYYY-MM" bucket.
type MonthCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// BranchPlacement is placement progress for one branch.
type BranchPlacement struct {
	Branch     string  `bson:"_id" json:"branch"`
	Total      int64   `bson:"total" json:"total"`
	Placed     int64   `bson:"placed" json:"placed"`
	Percentage float64 `bson:"-" json:"percentage"`
}

// AdminStats is the admin dashboard payload.
type AdminStats struct {
	TotalStudents         int64             `json:"total_students"`
	PlacedStudents        int64             `json:"placed_students"`
	PlacementPercentage   float64           `json:"placement_percentage"`
	TotalCompanies        int64             `json:"total_companies"`
	OpenCompanies         int64             `json:"open_companies"`
	ApplicationsByStatus  map[string]int64  `json:"applications_by_status"`
	RegistrationsByMonth  []MonthCount      `json:"registrations_by_month"`
	BranchPlacement       []BranchPlacement `json:"branch_placement"`
	AverageQuizPercentage float64           `json:"average_quiz_percentage"`
}

// Percent returns part/whole as a percentage rounded to two decimals, 0 when whole is 0.
func Percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return Round2(part / whole * 100)
}

// Round2 rounds to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// FetchAdminStats runs every dashboard aggregation concurrently. The first
// failing query cancels the rest.
func FetchAdminStats(ctx context.Context, db *mongo.Database, now time.Time) (AdminStats, error) {
	var out AdminStats
	students := db.Collection("students")
	companies := db.Collection("companies")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		out.TotalStudents, err = students.CountDocuments(gctx, bson.M{})
		return err
	})
	g.Go(func() (err error) {
		out.PlacedStudents, err = students.CountDocuments(gctx, bson.M{"placed": true})
		return err
	})
	g.Go(func() (err error) {
		out.TotalCompanies, err = companies.CountDocuments(gctx, bson.M{})
		return err
	})
	g.Go(func() (err error) {
		out.OpenCompanies, err = companies.CountDocuments(gctx, bson.M{"status": models.CompanyOpen})
		return err
	})
	g.Go(func() (err error) {
		out.ApplicationsByStatus, err = applicationsByStatus(gctx, db.Collection("applications"))
		return err
	})
	g.Go(func() (err error) {
		out.RegistrationsByMonth, err = registrationsByMonth(gctx, students, now)
		return err
	})
	g.Go(func() (err error) {
		out.BranchPlacement, err = branchPlacement(gctx, students)
		return err
	})
	g.Go(func() (err error) {
		out.AverageQuizPercentage, err = averageQuizPercentage(gctx, db.Collection("attempts"))
		return err
	})

	if err := g.Wait(); err != nil {
		return AdminStats{}, err
	}
	out.PlacementPercentage = Percent(float64(out.PlacedStudents), float64(out.TotalStudents))
	return out, nil
}

func applicationsByStatus(ctx context.Context, c *mongo.Collection) (map[string]int64, error) {
	out := make(map[string]int64, len(models.ApplicationStatuses))
	for _, s := range models.ApplicationStatuses {
		out[s] = 0
	}
	cur, err := c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			N      int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Status] = row.N
	}
	return out, cur.Err()
}

// MonthKeys returns the last n month keys ending at now's month, oldest first.
func MonthKeys(now time.Time, n int) []string {
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = first.AddDate(0, i-(n-1), 0).Format("2006-01")
	}
	return keys
}

func registrationsByMonth(ctx context.Context, c *mongo.Collection, now time.Time) ([]MonthCount, error) {
	keys := MonthKeys(now, RegistrationMonths)
	start, _ := time.Parse("2006-01", keys[0])

	cur, err := c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"created_at": bson.M{"$gte": start}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{"format": "%Y-%m", "date": "$created_at"}},
			"n":   bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := make(map[string]int64, len(keys))
	for cur.Next(ctx) {
		var row struct {
			Month string `bson:"_id"`
			N     int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.Month] = row.N
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	out := make([]MonthCount, len(keys))
	for i, k := range keys {
		out[i] = MonthCount{Month: k, Count: counts[k]}
	}
	return out, nil
}

func branchPlacement(ctx context.Context, c *mongo.Collection) ([]BranchPlacement, error) {
	cur, err := c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":    "$branch",
			"total":  bson.M{"$sum": 1},
			"placed": bson.M{"$sum": bson.M{"$cond": bson.A{"$placed", 1, 0}}},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []BranchPlacement{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Percentage = Percent(float64(out[i].Placed), float64(out[i].Total))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Branch < out[j].Branch })
	return out, nil
}

func averageQuizPercentage(ctx context.Context, c *mongo.Collection) (float64, error) {
	cur, err := c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"submitted_at": bson.M{"$exists": true}}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "avg": bson.M{"$avg": "$percentage"}}}},
	})
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)
	var row struct {
		Avg float64 `bson:"avg"`
	}
	if cur.Next(ctx) {
		if err := cur.Decode(&row); err != nil {
			return 0, err
		}
	}
	return Round2(row.Avg), cur.Err()
}
