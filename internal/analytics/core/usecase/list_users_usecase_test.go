package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"user-analytics-service/internal/analytics/core/domain"
	"user-analytics-service/internal/analytics/core/usecase"
	"user-analytics-service/internal/cache"
)

var listNow = time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

func listPopulation() []domain.UserRecord {
	return []domain.UserRecord{
		{ID: "u-1", Locale: "en", DeviceModel: "iPhone 15", MessagesSent: 80, LastActive: listNow.Add(-time.Hour), FirstOpen: listNow.AddDate(0, 0, -100)},
		{ID: "u-2", Locale: "de", DeviceModel: "Pixel 8", MessagesSent: 10, LastActive: listNow.AddDate(0, 0, -3), FirstOpen: listNow.AddDate(0, 0, -2)},
		{ID: "u-3", Locale: "en", DeviceModel: "iPhone 15", MessagesSent: 55, LastActive: listNow.AddDate(0, 0, -10), FirstOpen: listNow.AddDate(0, 0, -50)},
		{ID: "u-4", Locale: "fr", DeviceModel: "Galaxy S24", MessagesSent: 0, FirstOpen: listNow.AddDate(0, 0, -200)},
	}
}

func newListUseCase(store *fakeUserStore) *usecase.ListUsersUseCase {
	return usecase.NewListUsersUseCase(store, cache.New(fixedClock(listNow)), fixedClock(listNow))
}

func TestListUsers_DefaultSortMissingTimestampsLast(t *testing.T) {
	store := &fakeUserStore{ListUsersFn: staticUsers(listPopulation())}
	uc := newListUseCase(store)

	page, _, err := uc.Execute(context.Background(), usecase.ListUsersInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ids []string
	for _, r := range page.Rows {
		ids = append(ids, r.User.ID)
	}
	// Most recently active first; u-4 never active, so it sorts last.
	want := []string{"u-1", "u-2", "u-3", "u-4"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("default order = %v, want %v", ids, want)
	}
	if page.Total != 4 || page.Page != 1 || page.Limit != 20 {
		t.Errorf("page meta = total %d page %d limit %d", page.Total, page.Page, page.Limit)
	}
}

func TestListUsers_AscendingStillKeepsMissingLast(t *testing.T) {
	store := &fakeUserStore{ListUsersFn: staticUsers(listPopulation())}
	uc := newListUseCase(store)

	page, _, err := uc.Execute(context.Background(), usecase.ListUsersInput{SortBy: "lastActive", SortOrder: "asc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ids []string
	for _, r := range page.Rows {
		ids = append(ids, r.User.ID)
	}
	want := []string{"u-3", "u-2", "u-1", "u-4"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ascending order = %v, want %v", ids, want)
	}
}

func TestListUsers_UnknownSortFallsBack(t *testing.T) {
	store := &fakeUserStore{ListUsersFn: staticUsers(listPopulation())}
	uc := newListUseCase(store)

	page, _, err := uc.Execute(context.Background(), usecase.ListUsersInput{SortBy: "shoe_size", SortOrder: "asc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Fallback is lastActive descending, ignoring the asc order too.
	if page.Rows[0].User.ID != "u-1" {
		t.Errorf("fallback sort put %s first, want u-1", page.Rows[0].User.ID)
	}
}

func TestListUsers_FilterChain(t *testing.T) {
	store := &fakeUserStore{ListUsersFn: staticUsers(listPopulation())}
	uc := newListUseCase(store)

	tests := []struct {
		name string
		in   usecase.ListUsersInput
		want []string
	}{
		{"locale", usecase.ListUsersInput{Locale: "en"}, []string{"u-1", "u-3"}},
		{"device", usecase.ListUsersInput{Device: "Pixel 8"}, []string{"u-2"}},
		{"power segment", usecase.ListUsersInput{Segment: "power"}, []string{"u-1", "u-3"}},
		{"new segment", usecase.ListUsersInput{Segment: "new"}, []string{"u-2"}},
		{"at_risk includes never-active", usecase.ListUsersInput{Segment: "at_risk"}, []string{"u-3", "u-4"}},
		{"unknown segment means no segment filter", usecase.ListUsersInput{Segment: "bogus"}, []string{"u-1", "u-2", "u-3", "u-4"}},
		{"min messages", usecase.ListUsersInput{MinMessages: 55}, []string{"u-1", "u-3"}},
		{"date range excludes never-active", usecase.ListUsersInput{DateFrom: listNow.AddDate(0, 0, -5)}, []string{"u-1", "u-2"}},
		{"date to", usecase.ListUsersInput{DateTo: listNow.AddDate(0, 0, -5)}, []string{"u-3"}},
		{"combined", usecase.ListUsersInput{Locale: "en", MinMessages: 60}, []string{"u-1"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			page, _, err := uc.Execute(context.Background(), tc.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var ids []string
			for _, r := range page.Rows {
				ids = append(ids, r.User.ID)
			}
			if !reflect.DeepEqual(ids, tc.want) {
				t.Errorf("ids = %v, want %v", ids, tc.want)
			}
			if page.Total != len(tc.want) {
				t.Errorf("total = %d, want %d", page.Total, len(tc.want))
			}
		})
	}
}

func TestListUsers_SegmentCountsIgnoreFilter(t *testing.T) {
	store := &fakeUserStore{ListUsersFn: staticUsers(listPopulation())}
	uc := newListUseCase(store)

	page, _, err := uc.Execute(context.Background(), usecase.ListUsersInput{Locale: "fr"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("filtered total = %d, want 1", page.Total)
	}
	// Badges reflect the whole population even though the page is
	// filtered down to one user.
	if got := page.SegmentCounts[domain.SegmentAll]; got != 4 {
		t.Errorf("all badge = %d, want 4", got)
	}
	if got := page.SegmentCounts[domain.SegmentPower]; got != 2 {
		t.Errorf("power badge = %d, want 2", got)
	}
}

func TestListUsers_FilterValuesSortedFromFullPopulation(t *testing.T) {
	store := &fakeUserStore{ListUsersFn: staticUsers(listPopulation())}
	uc := newListUseCase(store)

	page, _, err := uc.Execute(context.Background(), usecase.ListUsersInput{Segment: "power"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(page.Locales, []string{"de", "en", "fr"}) {
		t.Errorf("locales = %v", page.Locales)
	}
	if !reflect.DeepEqual(page.Devices, []string{"Galaxy S24", "Pixel 8", "iPhone 15"}) {
		t.Errorf("devices = %v", page.Devices)
	}
}

func TestListUsers_Pagination(t *testing.T) {
	users := make([]domain.UserRecord, 45)
	for i := range users {
		users[i] = domain.UserRecord{
			ID:         fmt.Sprintf("u-%02d", i),
			LastActive: listNow.Add(-time.Duration(i) * time.Hour),
		}
	}
	store := &fakeUserStore{ListUsersFn: staticUsers(users)}
	uc := newListUseCase(store)

	page, _, err := uc.Execute(context.Background(), usecase.ListUsersInput{Page: 3, Limit: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Rows) != 5 || page.Total != 45 {
		t.Errorf("page 3: rows %d total %d, want 5 and 45", len(page.Rows), page.Total)
	}
	if page.Rows[0].User.ID != "u-40" {
		t.Errorf("page 3 starts at %s, want u-40", page.Rows[0].User.ID)
	}

	empty, _, err := uc.Execute(context.Background(), usecase.ListUsersInput{Page: 9, Limit: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(empty.Rows) != 0 || empty.Total != 45 {
		t.Errorf("past-the-end page: rows %d total %d", len(empty.Rows), empty.Total)
	}

	capped, _, err := uc.Execute(context.Background(), usecase.ListUsersInput{Page: 1, Limit: 9999})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if capped.Limit != 100 {
		t.Errorf("limit = %d, want capped at 100", capped.Limit)
	}
}

func TestListUsers_RowsCarryConversationCountsAndScores(t *testing.T) {
	store := &fakeUserStore{
		ListUsersFn: staticUsers(listPopulation()),
		CountConversationsFn: func(_ context.Context, userID string) (int, error) {
			if userID == "u-1" {
				return 4, nil
			}
			return 0, nil
		},
	}
	uc := newListUseCase(store)

	page, _, err := uc.Execute(context.Background(), usecase.ListUsersInput{Locale: "en"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, r := range page.Rows {
		wantCount := 0
		if r.User.ID == "u-1" {
			wantCount = 4
		}
		if r.ConversationCount != wantCount {
			t.Errorf("%s conversation count = %d, want %d", r.User.ID, r.ConversationCount, wantCount)
		}
		if want := domain.EngagementScore(&r.User, wantCount); r.EngagementScore != want {
			t.Errorf("%s engagement score = %d, want %d", r.User.ID, r.EngagementScore, want)
		}
	}
}

func TestListUsers_ConversationCountErrorFailsPage(t *testing.T) {
	boom := errors.New("subcollection scan failed")
	store := &fakeUserStore{
		ListUsersFn: staticUsers(listPopulation()),
		CountConversationsFn: func(context.Context, string) (int, error) {
			return 0, boom
		},
	}
	uc := newListUseCase(store)

	_, _, err := uc.Execute(context.Background(), usecase.ListUsersInput{})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
}

func TestListUsers_CacheKeyedByParams(t *testing.T) {
	store := &fakeUserStore{ListUsersFn: staticUsers(listPopulation())}
	uc := newListUseCase(store)

	if _, res, _ := uc.Execute(context.Background(), usecase.ListUsersInput{Locale: "en"}); res.Cached {
		t.Error("first query reported as cached")
	}
	if _, res, _ := uc.Execute(context.Background(), usecase.ListUsersInput{Locale: "en"}); !res.Cached {
		t.Error("repeat query not served from cache")
	}
	if _, res, _ := uc.Execute(context.Background(), usecase.ListUsersInput{Locale: "de"}); res.Cached {
		t.Error("different params served from cache")
	}
	if store.listUsersCalls != 2 {
		t.Errorf("store queried %d times, want 2", store.listUsersCalls)
	}
}
