package mysql

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomfinder/internal/domain"
)

func newMockRepo(t *testing.T) (*Repo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func rng(t *testing.T, in, out string) domain.DateRange {
	t.Helper()
	r, err := domain.NewDateRange(in, out)
	require.NoError(t, err)
	return r
}

func date(s string) time.Time {
	d, _ := domain.ParseDate(s)
	return d
}

func TestBookRange_DecrementsEveryNight(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT date, quota FROM room_inventory")).
		WithArgs(int64(7), "2025-06-01", "2025-06-03").
		WillReturnRows(sqlmock.NewRows([]string{"date", "quota"}).
			AddRow(date("2025-06-01"), 2).
			AddRow(date("2025-06-02"), 1))
	mock.ExpectExec(q("UPDATE room_inventory SET quota = quota - 1")).
		WithArgs(int64(7), "2025-06-01", "2025-06-03").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.BookRange(context.Background(), 7, rng(t, "2025-06-01", "2025-06-03")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRange_RollsBackWithoutUpdating(t *testing.T) {
	cases := []struct {
		name string
		rows *sqlmock.Rows
	}{
		{"sold out night", sqlmock.NewRows([]string{"date", "quota"}).
			AddRow(date("2025-06-01"), 3).
			AddRow(date("2025-06-02"), 0)},
		{"missing night", sqlmock.NewRows([]string{"date", "quota"}).
			AddRow(date("2025-06-01"), 3)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectBegin()
			mock.ExpectQuery(q("FOR UPDATE")).WillReturnRows(tc.rows)
			mock.ExpectRollback()

			err := repo.BookRange(context.Background(), 7, rng(t, "2025-06-01", "2025-06-03"))
			assert.ErrorIs(t, err, domain.ErrInsufficientInventory)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBookRange_PartialUpdateRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"date", "quota"}).
			AddRow(date("2025-06-01"), 1).
			AddRow(date("2025-06-02"), 1))
	mock.ExpectExec(q("UPDATE room_inventory")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := repo.BookRange(context.Background(), 7, rng(t, "2025-06-01", "2025-06-03"))
	assert.ErrorIs(t, err, domain.ErrInsufficientInventory)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOnlineHotel(t *testing.T) {
	repo, mock := newMockRepo(t)
	cols := []string{"id", "owner_id", "name", "address", "city", "lat", "lng", "star", "tags",
		"cover_image", "images", "status", "checking", "score", "review_count", "sort_order"}

	mock.ExpectQuery(q("FROM hotels")).WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			5, 1, "Harbor View", "1 Bund Rd", "Shanghai", 31.2, 121.5, 5, []byte(`["spa","river"]`),
			"cover.jpg", nil, 1, "PUBLISHED", 4.6, 120, 2))
	mock.ExpectQuery(q("FROM hotels")).WithArgs(int64(6)).
		WillReturnRows(sqlmock.NewRows(cols))

	h, err := repo.OnlineHotel(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Harbor View", h.Name)
	assert.Equal(t, []string{"spa", "river"}, h.Tags)
	assert.Equal(t, []string{}, h.Images)
	assert.True(t, h.Bookable())
	require.NotNil(t, h.Lat)
	assert.InDelta(t, 31.2, *h.Lat, 1e-9)

	_, err = repo.OnlineHotel(context.Background(), 6)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookableRoomType_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(q("h.checking = 'PUBLISHED'")).WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.BookableRoomType(context.Background(), 9)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRange(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(q("FROM room_inventory")).
		WithArgs(int64(3), "2025-06-01", "2025-06-03").
		WillReturnRows(sqlmock.NewRows([]string{"room_type_id", "date", "quota", "price"}).
			AddRow(3, date("2025-06-01"), 4, 0).
			AddRow(3, date("2025-06-02"), 1, 25000))

	rows, err := repo.LedgerRange(context.Background(), 3, rng(t, "2025-06-01", "2025-06-03"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(25000), rows[1].Price)
	assert.Equal(t, 1, rows[1].Quota)
}

func TestMaterializeLedger(t *testing.T) {
	repo, mock := newMockRepo(t)
	rt := domain.RoomType{ID: 4, TotalRooms: 6}
	mock.ExpectExec(q("INSERT IGNORE INTO room_inventory")).
		WithArgs(int64(4), "2025-06-01", 6, 0, int64(4), "2025-06-02", 6, 0, int64(4), "2025-06-03", 6, 0).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.MaterializeLedger(context.Background(), rt, date("2025-06-01"), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildExactQuery(t *testing.T) {
	query, args := buildExactQuery(domain.TierQuery{
		City:       "Shanghai",
		Keyword:    "50%",
		Dates:      rng(t, "2025-06-01", "2025-06-04"),
		GuestCount: 2,
		Rooms:      1,
		MinPrice:   10000,
		Exclude:    []int64{8, 9},
		Limit:      40,
	})
	assert.Contains(t, query, "HAVING COUNT(ri.date) >= ? AND MIN(ri.quota) >= ?")
	assert.Contains(t, query, "COALESCE(MIN(NULLIF(ri.price, 0)), rt.price) AS night_price")
	assert.Contains(t, query, "h.city = ?")
	assert.Contains(t, query, "h.id NOT IN (?,?)")
	assert.Contains(t, query, "HAVING min_price >= ?")
	assert.NotContains(t, query, "min_price <= ?")
	assert.Equal(t, []any{
		"2025-06-01", "2025-06-04", 2, 3, 1,
		"Shanghai", `%50\%%`, `%50\%%`, `%50\%%`, int64(8), int64(9),
		int64(10000),
		40,
	}, args)
}

func TestBuildStaticAndGlobalQuery(t *testing.T) {
	tq := domain.TierQuery{City: "shang", Keyword: "bund", GuestCount: 3, MaxPrice: 90000, Limit: 10}

	query, args := buildStaticQuery(tq)
	assert.Contains(t, query, "LEFT JOIN room_types rt ON rt.hotel_id = h.id AND rt.capacity >= ?")
	assert.Contains(t, query, "h.city LIKE ?")
	assert.NotContains(t, query, "room_inventory")
	assert.Equal(t, []any{3, "%shang%", "%bund%", "%bund%", "%bund%", int64(90000), 10}, args)

	query, args = buildGlobalQuery(tq)
	assert.NotContains(t, query, "LIKE ? OR")
	assert.NotContains(t, query, "HAVING")
	assert.Equal(t, []any{"%shang%", 10}, args)
}

func TestCandidateOrderFollowsSortMode(t *testing.T) {
	cases := map[domain.SortMode]string{
		domain.SortPriceLow:  "ORDER BY min_price ASC, h.sort_order",
		domain.SortPriceHigh: "ORDER BY min_price DESC, h.sort_order",
		domain.SortRating:    "ORDER BY h.score * LN(h.review_count + 10) DESC, h.sort_order",
		domain.SortDefault:   "ORDER BY h.sort_order, h.score DESC",
	}
	for mode, want := range cases {
		tq := domain.TierQuery{Dates: rng(t, "2025-06-01", "2025-06-02"), GuestCount: 1, Rooms: 1, Sort: mode, Limit: 5}
		for name, build := range map[string]func(domain.TierQuery) (string, []any){
			"exact": buildExactQuery, "static": buildStaticQuery, "global": buildGlobalQuery,
		} {
			query, args := build(tq)
			assert.Contains(t, query, want, "%s/%s", name, mode)
			assert.True(t, strings.HasSuffix(query, "\nLIMIT ?"), "%s/%s", name, mode)
			assert.Equal(t, 5, args[len(args)-1])
		}
	}
}

func TestSearchStatic_ScansCandidates(t *testing.T) {
	repo, mock := newMockRepo(t)
	cols := []string{"id", "name", "address", "city", "cover_image", "tags", "score", "review_count",
		"sort_order", "min_price", "has_window", "has_breakfast", "children_friendly"}
	mock.ExpectQuery(q("FROM hotels h")).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "A", "addr", "Shanghai", "", []byte(`["view"]`), 4.2, 10, 0, 30000, 1, 0, 0).
			AddRow(2, "B", "addr", "Shanghai", "", nil, 0.0, 0, 1, 0, 0, 0, 0))

	out, err := repo.SearchStatic(context.Background(), domain.TierQuery{Limit: 10, GuestCount: 1})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []string{"view"}, out[0].Tags)
	assert.True(t, out[0].HasWindow)
	assert.Equal(t, int64(30000), out[0].MinPrice)
	assert.Equal(t, []string{}, out[1].Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchExact_NoDatesSkipsQuery(t *testing.T) {
	repo, mock := newMockRepo(t)
	out, err := repo.SearchExact(context.Background(), domain.TierQuery{})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}
