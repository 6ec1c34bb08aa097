package mysql

import (
	"context"
	"database/sql"

	"localspot/internal/domain"
)

// Store is the persisted review collection, keyed by business id. Counters
// and the hidden flag are maintained with atomic statements rather than a
// load-mutate-save of a serialized collection, so concurrent writers cannot
// lose each other's updates.
type Store struct{ db *sql.DB }

func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) AddReview(ctx context.Context, r domain.Review) error {
	_, err := s.db.ExecContext(ctx, insertReviewSQL,
		r.ID,
		r.BusinessID,
		r.UserID,
		r.Author,
		r.IsAnonymous,
		r.Rating,
		r.Service,
		r.Quality,
		r.Value,
		r.Atmosphere,
		nullStr(r.Comment),
		r.Date,
	)
	return err
}

// GetReviews returns the business's full review list in insertion order,
// with upvoter sets and reports attached. Hidden reviews are included; the
// overlay decides visibility.
func (s *Store) GetReviews(ctx context.Context, businessID string) ([]domain.Review, error) {
	rows, err := s.db.QueryContext(ctx, listReviewsSQL, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	index := make(map[string]int)
	for rows.Next() {
		var r domain.Review
		var comment sql.NullString
		if err := rows.Scan(
			&r.ID, &r.BusinessID, &r.UserID, &r.Author, &r.IsAnonymous, &r.Rating,
			&r.Service, &r.Quality, &r.Value, &r.Atmosphere,
			&comment, &r.Date, &r.Helpful, &r.Hidden,
		); err != nil {
			return nil, err
		}
		if comment.Valid {
			r.Comment = comment.String
		}
		index[r.ID] = len(out)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}

	if err := s.attachUpvotes(ctx, businessID, out, index); err != nil {
		return nil, err
	}
	if err := s.attachReports(ctx, businessID, out, index); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) attachUpvotes(ctx context.Context, businessID string, reviews []domain.Review, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, listUpvotesSQL, businessID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var reviewID, userID string
		if err := rows.Scan(&reviewID, &userID); err != nil {
			return err
		}
		if i, ok := index[reviewID]; ok {
			reviews[i].UpvotedBy = append(reviews[i].UpvotedBy, userID)
		}
	}
	return rows.Err()
}

func (s *Store) attachReports(ctx context.Context, businessID string, reviews []domain.Review, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, listReportsSQL, businessID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var reviewID string
		var rep domain.Report
		if err := rows.Scan(&reviewID, &rep.Reason, &rep.Date); err != nil {
			return err
		}
		if i, ok := index[reviewID]; ok {
			reviews[i].Reports = append(reviews[i].Reports, rep)
		}
	}
	return rows.Err()
}

// Upvote records one helpful vote, idempotent per user. The helpful counter
// moves in the same transaction as the vote row, keeping count == set size.
func (s *Store) Upvote(ctx context.Context, reviewID, userID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, insertUpvoteSQL, reviewID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		// already voted
		return false, tx.Commit()
	}
	if _, err := tx.ExecContext(ctx, bumpHelpfulSQL, reviewID); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// Report appends a moderation report and hides the review once it has three.
// Returns the resulting hidden state. The review row itself is never
// deleted; hiding only removes it from aggregates.
func (s *Store) Report(ctx context.Context, reviewID, reason string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, insertReportSQL, reviewID, reason); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, hideAtThresholdSQL, reviewID, reviewID); err != nil {
		return false, err
	}
	var hidden bool
	if err := tx.QueryRowContext(ctx, getHiddenSQL, reviewID).Scan(&hidden); err != nil {
		if err == sql.ErrNoRows {
			return false, domain.ErrNotFound
		}
		return false, err
	}
	return hidden, tx.Commit()
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
