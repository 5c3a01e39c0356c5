package announcementstore_test

import (
	"testing"
	"time"

	announcementstore "github.com/dalemusser/placementhub/internal/app/store/announcements"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"github.com/dalemusser/placementhub/internal/testutil"
)

func TestList_VisibilityAndOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := announcementstore.New(db)

	now := time.Now().UTC()
	past, future := now.Add(-time.Hour), now.Add(time.Hour)

	mustCreate := func(a models.Announcement) models.Announcement {
		t.Helper()
		out, err := s.Create(ctx, a)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		return out
	}
	mustCreate(models.Announcement{Title: "old", Type: models.AnnouncementInfo, Active: true})
	pinned := mustCreate(models.Announcement{Title: "pinned", Type: models.AnnouncementDrive, Active: true, Pinned: true})
	mustCreate(models.Announcement{Title: "scheduled", Type: models.AnnouncementInfo, Active: true, StartsAt: &future})
	mustCreate(models.Announcement{Title: "expired", Type: models.AnnouncementInfo, Active: true, StartsAt: &past, EndsAt: &past})
	hidden := mustCreate(models.Announcement{Title: "hidden", Type: models.AnnouncementWarning, Active: false})

	visible, err := s.List(ctx, &now)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(visible) != 2 || visible[0].ID != pinned.ID {
		t.Fatalf("visible = %+v", visible)
	}
	all, _ := s.List(ctx, nil)
	if len(all) != 5 {
		t.Errorf("all = %d, want 5", len(all))
	}

	toggled, err := s.Toggle(ctx, hidden.ID)
	if err != nil || !toggled.Active {
		t.Fatalf("Toggle: %+v %v", toggled, err)
	}
	visible, _ = s.List(ctx, &now)
	if len(visible) != 3 {
		t.Errorf("after toggle visible = %d, want 3", len(visible))
	}

	pinned.EndsAt = &past
	if _, err := s.Replace(ctx, pinned); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	visible, _ = s.List(ctx, &now)
	if len(visible) != 2 {
		t.Errorf("after ending pinned visible = %d, want 2", len(visible))
	}
}
