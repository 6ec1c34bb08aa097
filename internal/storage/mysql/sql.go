package mysql

const insertReviewSQL = `
INSERT INTO reviews
  (id, business_id, user_id, author, is_anonymous, rating,
   service_rating, quality_rating, value_rating, atmosphere_rating,
   comment, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Insertion order is the collection order the overlay relies on.
const listReviewsSQL = `
SELECT
  id, business_id, user_id, author, is_anonymous, rating,
  service_rating, quality_rating, value_rating, atmosphere_rating,
  comment, created_at, helpful, hidden
FROM reviews
WHERE business_id = ?
ORDER BY created_at ASC, id ASC
`

const listUpvotesSQL = `
SELECT u.review_id, u.user_id
FROM review_upvotes u
JOIN reviews r ON r.id = u.review_id
WHERE r.business_id = ?
ORDER BY u.review_id, u.user_id
`

const listReportsSQL = `
SELECT p.review_id, p.reason, p.created_at
FROM review_reports p
JOIN reviews r ON r.id = p.review_id
WHERE r.business_id = ?
ORDER BY p.created_at ASC, p.id ASC
`

// The (review_id, user_id) primary key makes upvoting idempotent per user;
// INSERT IGNORE reports whether the vote was new via rows-affected.
const insertUpvoteSQL = `
INSERT IGNORE INTO review_upvotes (review_id, user_id) VALUES (?, ?)
`

const bumpHelpfulSQL = `
UPDATE reviews SET helpful = helpful + 1 WHERE id = ?
`

const insertReportSQL = `
INSERT INTO review_reports (review_id, reason) VALUES (?, ?)
`

const hideAtThresholdSQL = `
UPDATE reviews
SET hidden = hidden OR (SELECT COUNT(*) FROM review_reports WHERE review_id = ?) >= 3
WHERE id = ?
`

const getHiddenSQL = `
SELECT hidden FROM reviews WHERE id = ?
`
