package mysql

import (
	"context"
	"fmt"
	"strings"

	"roomfinder/internal/domain"
)

// Every tier selects the same candidate columns so one scan reads any of them.
const candidateColumns = `
  h.id, h.name, h.address, h.city, h.cover_image, h.tags, h.score, h.review_count, h.sort_order,
  %[1]s AS min_price,
  MAX(COALESCE(%[2]s.has_window, 0)) AS has_window,
  MAX(COALESCE(%[2]s.has_breakfast, 0)) AS has_breakfast,
  MAX(COALESCE(%[2]s.children_friendly, 0)) AS children_friendly`

// The other hotel columns are functionally dependent on h.id.
const candidateGroupBy = `
GROUP BY h.id`

const curatedOrder = "h.sort_order, h.score DESC, h.review_count DESC, h.id"

// candidateOrder applies the LIMIT along the requested sort key. Relevance needs
// keyword similarity, which is scored in Go, so the default mode keeps the
// curated order.
func candidateOrder(mode domain.SortMode) string {
	var key string
	switch mode {
	case domain.SortPriceLow:
		key = "min_price ASC, "
	case domain.SortPriceHigh:
		key = "min_price DESC, "
	case domain.SortRating:
		key = "h.score * LN(h.review_count + 10) DESC, "
	}
	return "\nORDER BY " + key + curatedOrder + "\nLIMIT ?"
}

// Per room type: nights covered and scarcest quota over the range. The price is
// the cheapest priced night; the base price applies only when no night carries
// one. Missing ledger rows leave the room type out.
const qualifyingRoomsSQL = `
SELECT rt.id, rt.hotel_id, rt.has_window, rt.has_breakfast, rt.children_friendly,
       COALESCE(MIN(NULLIF(ri.price, 0)), rt.price) AS night_price
FROM room_types rt
JOIN room_inventory ri
  ON ri.room_type_id = rt.id AND ri.date >= ? AND ri.date < ?
WHERE rt.capacity >= ?
GROUP BY rt.id, rt.hotel_id, rt.price, rt.has_window, rt.has_breakfast, rt.children_friendly
HAVING COUNT(ri.date) >= ? AND MIN(ri.quota) >= ?`

// clauses accumulates AND-ed predicates with their positional args.
type clauses struct {
	preds []string
	args  []any
}

func (c *clauses) add(pred string, args ...any) {
	c.preds = append(c.preds, pred)
	c.args = append(c.args, args...)
}

func (c *clauses) sql(keyword string) string {
	if len(c.preds) == 0 {
		return ""
	}
	return "\n" + keyword + " " + strings.Join(c.preds, " AND ")
}

func likeArg(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func (c *clauses) keyword(kw string) {
	if kw == "" {
		return
	}
	p := likeArg(kw)
	c.add("(h.name LIKE ? OR h.city LIKE ? OR CAST(h.tags AS CHAR) LIKE ?)", p, p, p)
}

func (c *clauses) exclude(ids []int64) {
	if len(ids) == 0 {
		return
	}
	ph := make([]string, len(ids))
	for i, id := range ids {
		ph[i] = "?"
		c.args = append(c.args, id)
	}
	c.preds = append(c.preds, "h.id NOT IN ("+strings.Join(ph, ",")+")")
}

func priceHaving(q domain.TierQuery) clauses {
	var h clauses
	if q.MinPrice > 0 {
		h.add("min_price >= ?", q.MinPrice)
	}
	if q.MaxPrice > 0 {
		h.add("min_price <= ?", q.MaxPrice)
	}
	return h
}

func columns(minPrice, roomAlias string) string {
	return fmt.Sprintf(candidateColumns, minPrice, roomAlias)
}

// buildExactQuery: hotels with at least one room type that covers every night
// with enough rooms and capacity. City matches exactly.
func buildExactQuery(q domain.TierQuery) (string, []any) {
	args := []any{q.Dates.From(), q.Dates.To(), q.GuestCount, q.Dates.Nights(), q.Rooms}

	var w clauses
	w.add("h.status = 1")
	if q.City != "" {
		w.add("h.city = ?", q.City)
	}
	w.keyword(q.Keyword)
	w.exclude(q.Exclude)
	having := priceHaving(q)

	var b strings.Builder
	b.WriteString("SELECT")
	b.WriteString(columns("MIN(qr.night_price)", "qr"))
	b.WriteString("\nFROM hotels h\nJOIN (")
	b.WriteString(qualifyingRoomsSQL)
	b.WriteString("\n) qr ON qr.hotel_id = h.id")
	b.WriteString(w.sql("WHERE"))
	b.WriteString(candidateGroupBy)
	b.WriteString(having.sql("HAVING"))
	b.WriteString(candidateOrder(q.Sort))

	args = append(args, w.args...)
	args = append(args, having.args...)
	args = append(args, q.Limit)
	return b.String(), args
}

// buildStaticQuery ignores the ledger. Hotels without room types still match
// with a zero min price; city matching is by substring.
func buildStaticQuery(q domain.TierQuery) (string, []any) {
	args := []any{q.GuestCount}

	var w clauses
	w.add("h.status = 1")
	if q.City != "" {
		w.add("h.city LIKE ?", likeArg(q.City))
	}
	w.keyword(q.Keyword)
	w.exclude(q.Exclude)
	having := priceHaving(q)

	var b strings.Builder
	b.WriteString("SELECT")
	b.WriteString(columns("COALESCE(MIN(rt.price), 0)", "rt"))
	b.WriteString("\nFROM hotels h\nLEFT JOIN room_types rt ON rt.hotel_id = h.id AND rt.capacity >= ?")
	b.WriteString(w.sql("WHERE"))
	b.WriteString(candidateGroupBy)
	b.WriteString(having.sql("HAVING"))
	b.WriteString(candidateOrder(q.Sort))

	args = append(args, w.args...)
	args = append(args, having.args...)
	args = append(args, q.Limit)
	return b.String(), args
}

// buildGlobalQuery keeps only the city filter.
func buildGlobalQuery(q domain.TierQuery) (string, []any) {
	var w clauses
	w.add("h.status = 1")
	if q.City != "" {
		w.add("h.city LIKE ?", likeArg(q.City))
	}
	w.exclude(q.Exclude)

	var b strings.Builder
	b.WriteString("SELECT")
	b.WriteString(columns("COALESCE(MIN(rt.price), 0)", "rt"))
	b.WriteString("\nFROM hotels h\nLEFT JOIN room_types rt ON rt.hotel_id = h.id")
	b.WriteString(w.sql("WHERE"))
	b.WriteString(candidateGroupBy)
	b.WriteString(candidateOrder(q.Sort))

	return b.String(), append(w.args, q.Limit)
}

func (r *Repo) SearchExact(ctx context.Context, q domain.TierQuery) ([]domain.HotelCandidate, error) {
	if q.Dates.Nights() < 1 {
		return nil, nil
	}
	query, args := buildExactQuery(q)
	return r.candidates(ctx, query, args)
}

func (r *Repo) SearchStatic(ctx context.Context, q domain.TierQuery) ([]domain.HotelCandidate, error) {
	query, args := buildStaticQuery(q)
	return r.candidates(ctx, query, args)
}

func (r *Repo) SearchGlobal(ctx context.Context, q domain.TierQuery) ([]domain.HotelCandidate, error) {
	query, args := buildGlobalQuery(q)
	return r.candidates(ctx, query, args)
}

func (r *Repo) candidates(ctx context.Context, query string, args []any) ([]domain.HotelCandidate, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.HotelCandidate
	for rows.Next() {
		var (
			c    domain.HotelCandidate
			tags []byte
		)
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Address, &c.City, &c.CoverImage, &tags,
			&c.Score, &c.ReviewCount, &c.SortOrder,
			&c.MinPrice, &c.HasWindow, &c.HasBreakfast, &c.ChildrenFriendly,
		); err != nil {
			return nil, err
		}
		c.Tags = jsonStrings(tags)
		out = append(out, c)
	}
	return out, rows.Err()
}
