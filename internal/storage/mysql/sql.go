package mysql

// -----------------------------------------------------------------------------
// CATALOG READS
// -----------------------------------------------------------------------------

const onlineHotelSQL = `
SELECT id, owner_id, name, address, city, lat, lng, star, tags, cover_image, images,
       status, checking, score, review_count, sort_order
FROM hotels
WHERE id = ? AND status = 1
`

const roomTypeColumns = `
  rt.id, rt.hotel_id, rt.name, rt.price, rt.bed_info, rt.images, rt.capacity,
  rt.has_window, rt.has_breakfast, rt.children_friendly, rt.sort_order, rt.total_rooms`

const roomTypeSQL = `SELECT` + roomTypeColumns + `
FROM room_types rt
WHERE rt.id = ?
`

const hotelRoomTypesSQL = `SELECT` + roomTypeColumns + `
FROM room_types rt
WHERE rt.hotel_id = ?
ORDER BY rt.sort_order, rt.id
`

// Only room types of an online, published hotel can be booked.
const bookableRoomTypeSQL = `SELECT` + roomTypeColumns + `
FROM room_types rt
JOIN hotels h ON h.id = rt.hotel_id
WHERE rt.id = ? AND h.status = 1 AND h.checking = 'PUBLISHED'
`

const allRoomTypesSQL = `SELECT` + roomTypeColumns + `
FROM room_types rt
ORDER BY rt.id
`

// -----------------------------------------------------------------------------
// LEDGER
// -----------------------------------------------------------------------------

// Ranges are half-open: [check_in, check_out).
const ledgerRangeSQL = `
SELECT room_type_id, date, quota, price
FROM room_inventory
WHERE room_type_id = ? AND date >= ? AND date < ?
ORDER BY date
`

const hotelLedgerSQL = `
SELECT ri.room_type_id, ri.date, ri.quota, ri.price
FROM room_inventory ri
JOIN room_types rt ON rt.id = ri.room_type_id
WHERE rt.hotel_id = ? AND ri.date >= ? AND ri.date < ?
ORDER BY ri.room_type_id, ri.date
`

const lockLedgerRangeSQL = `
SELECT date, quota
FROM room_inventory
WHERE room_type_id = ? AND date >= ? AND date < ?
ORDER BY date
FOR UPDATE
`

// quota > 0 keeps the row from going negative even if the lock read were stale.
const decrementLedgerRangeSQL = `
UPDATE room_inventory
SET quota = quota - 1
WHERE room_type_id = ? AND date >= ? AND date < ? AND quota > 0
`

const insertLedgerPrefix = "INSERT IGNORE INTO room_inventory (room_type_id, date, quota, price)\nVALUES "
