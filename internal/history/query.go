// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/lexical-graph/pkg/types"
)

const defaultLimit = 50

// QueryOptions filters generation history.
type QueryOptions struct {
	// Term restricts results to one source term.
	Term string

	// Status restricts results to one outcome.
	Status types.GenerationStatus

	// Since drops attempts started before this time when non-zero.
	Since time.Time

	// Limit caps the result count. Zero uses 50; negative means no limit.
	Limit int
}

// Recent returns matching attempts, newest first, with their skipped
// entries.
func (s *Store) Recent(ctx context.Context, opts QueryOptions) ([]types.GenerationResult, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT id, term, model, status, nodes_created, nodes_updated,
			edges_created, edges_updated, error, started_at, duration_ms
		FROM generations
		WHERE 1=1`)

	if opts.Term != "" {
		qb.WriteString(` AND term = ?`)
		args = append(args, opts.Term)
	}
	if opts.Status != "" {
		qb.WriteString(` AND status = ?`)
		args = append(args, string(opts.Status))
	}
	if !opts.Since.IsZero() {
		qb.WriteString(` AND started_at >= ?`)
		args = append(args, opts.Since.UnixNano())
	}

	qb.WriteString(` ORDER BY started_at DESC, rowid DESC`)

	limit := opts.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	if limit > 0 {
		qb.WriteString(` LIMIT ?`)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var results []types.GenerationResult
	for rows.Next() {
		var (
			r          types.GenerationResult
			status     string
			model      sql.NullString
			errText    sql.NullString
			startedAt  int64
			durationMS int64
		)
		if err := rows.Scan(
			&r.ID, &r.Term, &model, &status, &r.NodesCreated, &r.NodesUpdated,
			&r.EdgesCreated, &r.EdgesUpdated, &errText, &startedAt, &durationMS,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		r.Status = types.GenerationStatus(status)
		r.Model = model.String
		r.Error = errText.String
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.StartedAt = time.Unix(0, startedAt).UTC()
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range results {
		sk, err := s.skipped(ctx, results[i].ID)
		if err != nil {
			return nil, err
		}
		results[i].Skipped = sk
	}
	return results, nil
}

func (s *Store) skipped(ctx context.Context, id string) ([]types.SkippedEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT relation, idx, lemma, code, reason FROM skipped_entries
		WHERE generation_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("querying skipped entries: %w", err)
	}
	defer rows.Close()

	var out []types.SkippedEntry
	for rows.Next() {
		var (
			sk       types.SkippedEntry
			relation string
			lemma    sql.NullString
			reason   sql.NullString
		)
		if err := rows.Scan(&relation, &sk.Index, &lemma, &sk.Code, &reason); err != nil {
			return nil, fmt.Errorf("scanning skipped entry: %w", err)
		}
		sk.Relation = types.RelationType(relation)
		sk.Lemma = lemma.String
		sk.Reason = reason.String
		out = append(out, sk)
	}
	return out, rows.Err()
}

// LastSuccess returns the newest attempt for term that applied a batch,
// whether fully or with skipped entries.
func (s *Store) LastSuccess(ctx context.Context, term string) (types.GenerationResult, bool, error) {
	results, err := s.Recent(ctx, QueryOptions{Term: term, Limit: -1})
	if err != nil {
		return types.GenerationResult{}, false, err
	}
	for _, r := range results {
		if !r.Failed() {
			return r, true, nil
		}
	}
	return types.GenerationResult{}, false, nil
}

// Generated returns the subset of terms with at least one applied batch.
func (s *Store) Generated(ctx context.Context, terms []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, t := range terms {
		var n int
		err := s.db.QueryRowContext(ctx,
			`SELECT count(*) FROM generations WHERE term = ? AND status != ?`,
			t, string(types.StatusFailed),
		).Scan(&n)
		if err != nil {
			return nil, fmt.Errorf("checking %q: %w", t, err)
		}
		if n > 0 {
			out[t] = true
		}
	}
	return out, nil
}
