package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/flagforgelabs/flagforge/internal/feature/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const featureColumns = `id, project_id, name, kind, description, default_enabled,
	initial_value_type, initial_value_int, initial_value_str, initial_value_bool,
	metadata, created_at, updated_at`

const stateColumns = `id, feature_id, environment_id, identity_id, enabled,
	value_type, value_int, value_str, value_bool, created_at, updated_at`

const featureSegmentColumns = `id, feature_id, segment_id, environment_id, enabled,
	value_type, value_int, value_str, value_bool, priority, created_at`

func (r *repo) Create(ctx context.Context, db *gorm.DB, feature *domain.Feature) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO features (`+featureColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		feature.ID,
		feature.ProjectID,
		feature.Name,
		feature.Kind,
		feature.Description,
		feature.DefaultEnabled,
		feature.InitialValue.Type,
		feature.InitialValue.Int,
		feature.InitialValue.Str,
		feature.InitialValue.Bool,
		feature.Metadata,
		feature.CreatedAt,
		feature.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, projectID, id snowflake.ID) (*domain.Feature, error) {
	var f domain.Feature
	err := db.WithContext(ctx).Raw(
		`SELECT `+featureColumns+` FROM features WHERE project_id = ? AND id = ?`,
		projectID,
		id,
	).Scan(&f).Error
	if err != nil {
		return nil, err
	}
	if f.ID == 0 {
		return nil, nil
	}
	return &f, nil
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, projectID snowflake.ID, name string) (*domain.Feature, error) {
	var f domain.Feature
	err := db.WithContext(ctx).Raw(
		`SELECT `+featureColumns+` FROM features
		 WHERE project_id = ? AND lower(name) = ? LIMIT 1`,
		projectID,
		strings.ToLower(name),
	).Scan(&f).Error
	if err != nil {
		return nil, err
	}
	if f.ID == 0 {
		return nil, nil
	}
	return &f, nil
}

func (r *repo) ListByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID) ([]domain.Feature, error) {
	var items []domain.Feature
	err := db.WithContext(ctx).Raw(
		`SELECT `+featureColumns+` FROM features WHERE project_id = ? ORDER BY id ASC`,
		projectID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, feature *domain.Feature) error {
	return db.WithContext(ctx).Exec(
		`UPDATE features SET name = ?, kind = ?, description = ?, updated_at = ?
		 WHERE project_id = ? AND id = ?`,
		feature.Name,
		feature.Kind,
		feature.Description,
		feature.UpdatedAt,
		feature.ProjectID,
		feature.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, projectID, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM features WHERE project_id = ? AND id = ?`,
		projectID,
		id,
	).Error
}

func (r *repo) CreateState(ctx context.Context, db *gorm.DB, state *domain.FeatureState) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO feature_states (`+stateColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		state.ID,
		state.FeatureID,
		state.EnvironmentID,
		state.IdentityID,
		state.Enabled,
		state.Value.Type,
		state.Value.Int,
		state.Value.Str,
		state.Value.Bool,
		state.CreatedAt,
		state.UpdatedAt,
	).Error
}

func (r *repo) FindEnvironmentState(ctx context.Context, db *gorm.DB, featureID, environmentID snowflake.ID) (*domain.FeatureState, error) {
	var s domain.FeatureState
	err := db.WithContext(ctx).Raw(
		`SELECT `+stateColumns+` FROM feature_states
		 WHERE feature_id = ? AND environment_id = ? AND identity_id IS NULL LIMIT 1`,
		featureID,
		environmentID,
	).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == 0 {
		return nil, nil
	}
	return &s, nil
}

func (r *repo) FindIdentityState(ctx context.Context, db *gorm.DB, featureID, identityID snowflake.ID) (*domain.FeatureState, error) {
	var s domain.FeatureState
	err := db.WithContext(ctx).Raw(
		`SELECT `+stateColumns+` FROM feature_states
		 WHERE feature_id = ? AND identity_id = ? LIMIT 1`,
		featureID,
		identityID,
	).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == 0 {
		return nil, nil
	}
	return &s, nil
}

func (r *repo) ListEnvironmentStates(ctx context.Context, db *gorm.DB, environmentID snowflake.ID) ([]domain.FeatureState, error) {
	var items []domain.FeatureState
	err := db.WithContext(ctx).Raw(
		`SELECT `+stateColumns+` FROM feature_states
		 WHERE environment_id = ? AND identity_id IS NULL ORDER BY feature_id ASC`,
		environmentID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListIdentityStates(ctx context.Context, db *gorm.DB, identityID snowflake.ID) ([]domain.FeatureState, error) {
	var items []domain.FeatureState
	err := db.WithContext(ctx).Raw(
		`SELECT `+stateColumns+` FROM feature_states
		 WHERE identity_id = ? ORDER BY feature_id ASC`,
		identityID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateState(ctx context.Context, db *gorm.DB, state *domain.FeatureState) error {
	return db.WithContext(ctx).Exec(
		`UPDATE feature_states
		 SET enabled = ?, value_type = ?, value_int = ?, value_str = ?, value_bool = ?, updated_at = ?
		 WHERE id = ?`,
		state.Enabled,
		state.Value.Type,
		state.Value.Int,
		state.Value.Str,
		state.Value.Bool,
		state.UpdatedAt,
		state.ID,
	).Error
}

func (r *repo) DeleteState(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM feature_states WHERE id = ?`, id).Error
}

func (r *repo) DeleteStatesByFeature(ctx context.Context, db *gorm.DB, featureID snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM feature_states WHERE feature_id = ?`, featureID).Error
}

func (r *repo) CreateFeatureSegment(ctx context.Context, db *gorm.DB, fs *domain.FeatureSegment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO feature_segments (`+featureSegmentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fs.ID,
		fs.FeatureID,
		fs.SegmentID,
		fs.EnvironmentID,
		fs.Enabled,
		fs.Value.Type,
		fs.Value.Int,
		fs.Value.Str,
		fs.Value.Bool,
		fs.Priority,
		fs.CreatedAt,
	).Error
}

func (r *repo) FindFeatureSegment(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.FeatureSegment, error) {
	var fs domain.FeatureSegment
	err := db.WithContext(ctx).Raw(
		`SELECT `+featureSegmentColumns+` FROM feature_segments WHERE id = ?`,
		id,
	).Scan(&fs).Error
	if err != nil {
		return nil, err
	}
	if fs.ID == 0 {
		return nil, nil
	}
	return &fs, nil
}

func (r *repo) ListFeatureSegments(ctx context.Context, db *gorm.DB, featureID, environmentID snowflake.ID) ([]domain.FeatureSegment, error) {
	var items []domain.FeatureSegment
	err := db.WithContext(ctx).Raw(
		`SELECT `+featureSegmentColumns+` FROM feature_segments
		 WHERE feature_id = ? AND environment_id = ? ORDER BY priority ASC, id ASC`,
		featureID,
		environmentID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListFeatureSegmentsByEnvironment(ctx context.Context, db *gorm.DB, environmentID snowflake.ID) ([]domain.FeatureSegment, error) {
	var items []domain.FeatureSegment
	err := db.WithContext(ctx).Raw(
		`SELECT `+featureSegmentColumns+` FROM feature_segments
		 WHERE environment_id = ? ORDER BY feature_id ASC, priority ASC, id ASC`,
		environmentID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) DeleteFeatureSegment(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM feature_segments WHERE id = ?`, id).Error
}

func (r *repo) DeleteFeatureSegmentsByFeature(ctx context.Context, db *gorm.DB, featureID snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM feature_segments WHERE feature_id = ?`, featureID).Error
}
