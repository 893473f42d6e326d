package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/dualreview/internal/domain/model"
	"github.com/ericfisherdev/dualreview/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PreferenceStore = (*PreferenceRepo)(nil)

// PreferenceRepo is the SQLite implementation of the PreferenceStore port.
type PreferenceRepo struct {
	db  *DB
	now func() time.Time
}

// NewPreferenceRepo creates a new PreferenceRepo backed by the given DB.
func NewPreferenceRepo(db *DB) *PreferenceRepo {
	return &PreferenceRepo{db: db, now: time.Now}
}

// Get returns the record for key, or nil, nil when none exists.
func (r *PreferenceRepo) Get(ctx context.Context, key string) (*model.PullRequestPreference, error) {
	const query = `SELECT focus, strictness, preferred_model, onboarded FROM pr_preferences WHERE pr_key = ?`

	var (
		focusJSON  string
		strictness string
		prefModel  string
		onboarded  bool
	)
	err := r.db.Reader.QueryRowContext(ctx, query, key).Scan(&focusJSON, &strictness, &prefModel, &onboarded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preference %q: %w", key, err)
	}

	focus, err := decodeFocus(focusJSON)
	if err != nil {
		return nil, fmt.Errorf("decode focus for %q: %w", key, err)
	}

	return &model.PullRequestPreference{
		Focus:          focus,
		Strictness:     model.Strictness(strictness),
		PreferredModel: model.Model(prefModel),
		Onboarded:      onboarded,
	}, nil
}

// Save upserts focus, strictness and model for key. The onboarded column is
// only written on insert.
func (r *PreferenceRepo) Save(ctx context.Context, key string, pref model.PullRequestPreference) error {
	const query = `
		INSERT INTO pr_preferences (pr_key, focus, strictness, preferred_model, onboarded, updated_at)
		VALUES (?, ?, ?, ?, 0, ?)
		ON CONFLICT(pr_key) DO UPDATE SET
			focus           = excluded.focus,
			strictness      = excluded.strictness,
			preferred_model = excluded.preferred_model,
			updated_at      = excluded.updated_at`

	focusJSON, err := encodeFocus(pref.Focus)
	if err != nil {
		return fmt.Errorf("encode focus for %q: %w", key, err)
	}

	_, err = r.db.Writer.ExecContext(ctx, query,
		key, focusJSON, string(pref.Strictness), string(pref.PreferredModel), r.timestamp())
	if err != nil {
		return fmt.Errorf("save preference %q: %w", key, err)
	}

	return nil
}

// MarkOnboarded sets onboarded for key in a single statement; the conditional
// update touches no row when the flag was already set.
func (r *PreferenceRepo) MarkOnboarded(ctx context.Context, key string) (bool, error) {
	const query = `
		INSERT INTO pr_preferences (pr_key, onboarded, updated_at)
		VALUES (?, 1, ?)
		ON CONFLICT(pr_key) DO UPDATE SET
			onboarded  = 1,
			updated_at = excluded.updated_at
		WHERE pr_preferences.onboarded = 0`

	result, err := r.db.Writer.ExecContext(ctx, query, key, r.timestamp())
	if err != nil {
		return false, fmt.Errorf("mark onboarded %q: %w", key, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}

	return rows == 1, nil
}

// Delete removes the record for key. A missing record is not an error.
func (r *PreferenceRepo) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM pr_preferences WHERE pr_key = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete preference %q: %w", key, err)
	}

	return nil
}

func (r *PreferenceRepo) timestamp() string {
	return r.now().UTC().Format(time.RFC3339)
}

func encodeFocus(focus []model.Focus) (string, error) {
	data, err := json.Marshal(model.FocusStrings(focus))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeFocus(s string) ([]model.Focus, error) {
	var tags []string
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, nil
	}

	focus := make([]model.Focus, 0, len(tags))
	for _, tag := range tags {
		focus = append(focus, model.Focus(tag))
	}
	return model.NormalizeFocus(focus), nil
}
