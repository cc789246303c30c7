package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"roomfinder/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

type scanner interface {
	Scan(dest ...any) error
}

// jsonStrings decodes a JSON array column; NULL and malformed values give an empty list.
func jsonStrings(b []byte) []string {
	out := []string{}
	if len(b) > 0 {
		_ = json.Unmarshal(b, &out)
	}
	return out
}

func (r *Repo) OnlineHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	var (
		h            domain.Hotel
		lat, lng     sql.NullFloat64
		tags, images []byte
		checking     string
	)
	err := r.db.QueryRowContext(ctx, onlineHotelSQL, id).Scan(
		&h.ID, &h.OwnerID, &h.Name, &h.Address, &h.City,
		&lat, &lng, &h.Star, &tags, &h.CoverImage, &images,
		&h.Status, &checking, &h.Score, &h.ReviewCount, &h.SortOrder,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Hotel{}, domain.ErrNotFound
		}
		return domain.Hotel{}, err
	}
	if lat.Valid && lng.Valid {
		h.Lat, h.Lng = &lat.Float64, &lng.Float64
	}
	h.Checking = domain.ReviewState(checking)
	h.Tags = jsonStrings(tags)
	h.Images = jsonStrings(images)
	return h, nil
}

func scanRoomType(s scanner) (domain.RoomType, error) {
	var (
		rt     domain.RoomType
		images []byte
	)
	if err := s.Scan(
		&rt.ID, &rt.HotelID, &rt.Name, &rt.Price, &rt.BedInfo, &images, &rt.Capacity,
		&rt.HasWindow, &rt.HasBreakfast, &rt.ChildrenFriendly, &rt.SortOrder, &rt.TotalRooms,
	); err != nil {
		return domain.RoomType{}, err
	}
	rt.Images = jsonStrings(images)
	return rt, nil
}

func (r *Repo) roomType(ctx context.Context, query string, id int64) (domain.RoomType, error) {
	rt, err := scanRoomType(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RoomType{}, domain.ErrNotFound
	}
	return rt, err
}

func (r *Repo) RoomType(ctx context.Context, id int64) (domain.RoomType, error) {
	return r.roomType(ctx, roomTypeSQL, id)
}

func (r *Repo) BookableRoomType(ctx context.Context, id int64) (domain.RoomType, error) {
	return r.roomType(ctx, bookableRoomTypeSQL, id)
}

func (r *Repo) roomTypes(ctx context.Context, query string, args ...any) ([]domain.RoomType, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RoomType
	for rows.Next() {
		rt, err := scanRoomType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r *Repo) HotelRoomTypes(ctx context.Context, hotelID int64) ([]domain.RoomType, error) {
	return r.roomTypes(ctx, hotelRoomTypesSQL, hotelID)
}

// AllRoomTypes is used by the materializer.
func (r *Repo) AllRoomTypes(ctx context.Context) ([]domain.RoomType, error) {
	return r.roomTypes(ctx, allRoomTypesSQL)
}

func (r *Repo) ledger(ctx context.Context, query string, id int64, rng domain.DateRange) ([]domain.LedgerRow, error) {
	rows, err := r.db.QueryContext(ctx, query, id, rng.From(), rng.To())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LedgerRow
	for rows.Next() {
		var lr domain.LedgerRow
		if err := rows.Scan(&lr.RoomTypeID, &lr.Date, &lr.Quota, &lr.Price); err != nil {
			return nil, err
		}
		out = append(out, lr)
	}
	return out, rows.Err()
}

func (r *Repo) LedgerRange(ctx context.Context, roomTypeID int64, rng domain.DateRange) ([]domain.LedgerRow, error) {
	return r.ledger(ctx, ledgerRangeSQL, roomTypeID, rng)
}

func (r *Repo) HotelLedger(ctx context.Context, hotelID int64, rng domain.DateRange) ([]domain.LedgerRow, error) {
	return r.ledger(ctx, hotelLedgerSQL, hotelID, rng)
}

// BookRange decrements quota by one on every night of rng inside a single
// transaction. The rows are locked first so concurrent bookings of the same
// room type serialize; any missing or sold-out night rolls everything back.
func (r *Repo) BookRange(ctx context.Context, roomTypeID int64, rng domain.DateRange) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, lockLedgerRangeSQL, roomTypeID, rng.From(), rng.To())
	if err != nil {
		return err
	}
	nights := 0
	var short []string
	for rows.Next() {
		var (
			d     time.Time
			quota int
		)
		if err = rows.Scan(&d, &quota); err != nil {
			rows.Close()
			return err
		}
		nights++
		if quota <= 0 {
			short = append(short, d.Format(domain.DateLayout))
		}
	}
	if err = rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	switch {
	case nights < rng.Nights():
		return fmt.Errorf("%w: %d of %d nights open for sale", domain.ErrInsufficientInventory, nights, rng.Nights())
	case len(short) > 0:
		return fmt.Errorf("%w: sold out on %s", domain.ErrInsufficientInventory, strings.Join(short, ", "))
	}

	res, err := tx.ExecContext(ctx, decrementLedgerRangeSQL, roomTypeID, rng.From(), rng.To())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if int(n) != rng.Nights() {
		return fmt.Errorf("%w: %d of %d nights decremented", domain.ErrInsufficientInventory, n, rng.Nights())
	}
	return tx.Commit()
}

// MaterializeLedger inserts one row per night in [from, from+days) for the room
// type. Existing rows are left as they are.
func (r *Repo) MaterializeLedger(ctx context.Context, rt domain.RoomType, from time.Time, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	values := make([]string, 0, days)
	args := make([]any, 0, days*4)
	for i := 0; i < days; i++ {
		values = append(values, "(?,?,?,?)")
		args = append(args, rt.ID, from.AddDate(0, 0, i).Format(domain.DateLayout), rt.TotalRooms, 0)
	}
	res, err := r.db.ExecContext(ctx, insertLedgerPrefix+strings.Join(values, ","), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
