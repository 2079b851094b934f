package mysql

const upsertDealSQL = `
INSERT INTO deals
  (deal_uid, kind, source, title, origin, destination, hotel_location,
   price, currency, availability, score, tags, metadata, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  kind           = VALUES(kind),
  source         = VALUES(source),
  title          = VALUES(title),
  origin         = VALUES(origin),
  destination    = VALUES(destination),
  hotel_location = VALUES(hotel_location),
  price          = VALUES(price),
  currency       = VALUES(currency),
  availability   = VALUES(availability),
  score          = VALUES(score),
  tags           = VALUES(tags),
  metadata       = VALUES(metadata),
  created_at     = VALUES(created_at),
  updated_at     = CURRENT_TIMESTAMP
`

const upsertWatchSQL = `
INSERT INTO watches
  (watch_uid, target_uid, threshold_price, min_inventory, user_ref, status, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  target_uid      = VALUES(target_uid),
  threshold_price = VALUES(threshold_price),
  min_inventory   = VALUES(min_inventory),
  user_ref        = VALUES(user_ref),
  status          = VALUES(status)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const dealColumns = `
  deal_uid, kind, source, title, origin, destination, hotel_location,
  price, currency, availability, score, tags, metadata, created_at`

const listDealsSQL = `
SELECT` + dealColumns + `
FROM deals
ORDER BY created_at, deal_uid
`

const getDealSQL = `
SELECT` + dealColumns + `
FROM deals
WHERE deal_uid = ?
`

const listWatchesSQL = `
SELECT watch_uid, target_uid, threshold_price, min_inventory, user_ref, status, created_at
FROM watches
WHERE (? = '' OR status = ?)
ORDER BY created_at, watch_uid
`
