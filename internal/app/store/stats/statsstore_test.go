package statsstore_test

import (
	"reflect"
	"testing"
	"time"

	statsstore "github.com/dalemusser/placementhub/internal/app/store/stats"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"github.com/dalemusser/placementhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		part, whole, want float64
	}{
		{0, 0, 0},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{5, 5, 100},
	}
	for _, tc := range tests {
		if got := statsstore.Percent(tc.part, tc.whole); got != tc.want {
			t.Errorf("Percent(%v, %v) = %v, want %v", tc.part, tc.whole, got, tc.want)
		}
	}
}

func TestMonthKeys(t *testing.T) {
	now := time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC)
	want := []string{"2024-09", "2024-10", "2024-11", "2024-12", "2025-01", "2025-02"}
	if got := statsstore.MonthKeys(now, 6); !reflect.DeepEqual(got, want) {
		t.Errorf("MonthKeys = %v, want %v", got, want)
	}
}

func TestFetchAdminStats_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	st, err := statsstore.FetchAdminStats(ctx, db, time.Now())
	if err != nil {
		t.Fatalf("FetchAdminStats: %v", err)
	}
	if st.TotalStudents != 0 || st.PlacementPercentage != 0 || st.AverageQuizPercentage != 0 {
		t.Errorf("unexpected stats %+v", st)
	}
	if len(st.RegistrationsByMonth) != statsstore.RegistrationMonths {
		t.Errorf("months = %d", len(st.RegistrationsByMonth))
	}
	if len(st.ApplicationsByStatus) != len(models.ApplicationStatuses) {
		t.Errorf("statuses = %v", st.ApplicationsByStatus)
	}
}

func TestFetchAdminStats_WithData(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateStudent(ctx, "A", "a@x.edu", "R1", "CSE", 8)
	fx.CreateStudent(ctx, "B", "b@x.edu", "R2", "CSE", 7)
	fx.CreateStudent(ctx, "C", "c@x.edu", "R3", "ECE", 9)
	if _, err := db.Collection("students").UpdateByID(ctx, a.ID, bson.M{"$set": bson.M{"placed": true}}); err != nil {
		t.Fatalf("mark placed: %v", err)
	}
	fx.CreateCompany(ctx, "Acme", 7)

	now := time.Now().UTC()
	for _, pct := range []float64{50, 100} {
		if _, err := db.Collection("attempts").InsertOne(ctx, bson.M{"percentage": pct, "submitted_at": now}); err != nil {
			t.Fatalf("insert attempt: %v", err)
		}
	}
	if _, err := db.Collection("attempts").InsertOne(ctx, bson.M{"percentage": 0}); err != nil {
		t.Fatalf("insert open attempt: %v", err)
	}

	st, err := statsstore.FetchAdminStats(ctx, db, now)
	if err != nil {
		t.Fatalf("FetchAdminStats: %v", err)
	}
	if st.TotalStudents != 3 || st.PlacedStudents != 1 || st.PlacementPercentage != 33.33 {
		t.Errorf("placement = %d/%d %.2f", st.PlacedStudents, st.TotalStudents, st.PlacementPercentage)
	}
	if st.OpenCompanies != 1 || st.TotalCompanies != 1 {
		t.Errorf("companies = %d/%d", st.OpenCompanies, st.TotalCompanies)
	}
	if st.AverageQuizPercentage != 75 {
		t.Errorf("average = %v", st.AverageQuizPercentage)
	}
	last := st.RegistrationsByMonth[len(st.RegistrationsByMonth)-1]
	if last.Count != 3 {
		t.Errorf("this month registrations = %+v", last)
	}
	if len(st.BranchPlacement) != 2 || st.BranchPlacement[0].Branch != "CSE" || st.BranchPlacement[0].Percentage != 50 {
		t.Errorf("branches = %+v", st.BranchPlacement)
	}
}
