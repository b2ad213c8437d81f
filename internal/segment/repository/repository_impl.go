package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/flagforgelabs/flagforge/internal/segment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, segment *domain.Segment) error {
	if err := db.WithContext(ctx).Exec(
		`INSERT INTO segments (id, project_id, name, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		segment.ID,
		segment.ProjectID,
		segment.Name,
		segment.Description,
		segment.CreatedAt,
		segment.UpdatedAt,
	).Error; err != nil {
		return err
	}
	return r.insertRules(ctx, db, segment.ID, nil, segment.Rules)
}

func (r *repo) insertRules(ctx context.Context, db *gorm.DB, segmentID snowflake.ID, parentID *snowflake.ID, rules []domain.SegmentRule) error {
	for i := range rules {
		rule := &rules[i]
		if err := db.WithContext(ctx).Exec(
			`INSERT INTO segment_rules (id, segment_id, parent_id, type)
			 VALUES (?, ?, ?, ?)`,
			rule.ID,
			segmentID,
			parentID,
			rule.Type,
		).Error; err != nil {
			return err
		}
		for _, cond := range rule.Conditions {
			if err := db.WithContext(ctx).Exec(
				`INSERT INTO segment_conditions (id, rule_id, operator, property, value)
				 VALUES (?, ?, ?, ?, ?)`,
				cond.ID,
				rule.ID,
				cond.Operator,
				cond.Property,
				cond.Value,
			).Error; err != nil {
				return err
			}
		}
		if err := r.insertRules(ctx, db, segmentID, &rule.ID, rule.Rules); err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, projectID, id snowflake.ID) (*domain.Segment, error) {
	var s domain.Segment
	err := db.WithContext(ctx).Raw(
		`SELECT id, project_id, name, description, created_at, updated_at
		 FROM segments WHERE project_id = ? AND id = ?`,
		projectID,
		id,
	).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == 0 {
		return nil, nil
	}
	if err := r.loadTrees(ctx, db, []*domain.Segment{&s}); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repo) ListByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID) ([]domain.Segment, error) {
	var items []domain.Segment
	err := db.WithContext(ctx).Raw(
		`SELECT id, project_id, name, description, created_at, updated_at
		 FROM segments WHERE project_id = ? ORDER BY id ASC`,
		projectID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	refs := make([]*domain.Segment, len(items))
	for i := range items {
		refs[i] = &items[i]
	}
	if err := r.loadTrees(ctx, db, refs); err != nil {
		return nil, err
	}
	return items, nil
}

// loadTrees fetches all rule and condition rows for the given segments
// in two queries and assembles the trees in memory.
func (r *repo) loadTrees(ctx context.Context, db *gorm.DB, segments []*domain.Segment) error {
	if len(segments) == 0 {
		return nil
	}
	ids := make([]snowflake.ID, len(segments))
	for i, s := range segments {
		ids[i] = s.ID
	}

	var rules []domain.SegmentRule
	if err := db.WithContext(ctx).Raw(
		`SELECT id, segment_id, parent_id, type
		 FROM segment_rules WHERE segment_id IN ? ORDER BY id ASC`,
		ids,
	).Scan(&rules).Error; err != nil {
		return err
	}

	var conditions []domain.Condition
	if len(rules) > 0 {
		ruleIDs := make([]snowflake.ID, len(rules))
		for i, rule := range rules {
			ruleIDs[i] = rule.ID
		}
		if err := db.WithContext(ctx).Raw(
			`SELECT id, rule_id, operator, property, value
			 FROM segment_conditions WHERE rule_id IN ? ORDER BY id ASC`,
			ruleIDs,
		).Scan(&conditions).Error; err != nil {
			return err
		}
	}

	byRule := make(map[snowflake.ID][]domain.Condition)
	for _, c := range conditions {
		byRule[c.RuleID] = append(byRule[c.RuleID], c)
	}

	nodes := make(map[snowflake.ID]*domain.SegmentRule, len(rules))
	children := make(map[snowflake.ID][]snowflake.ID)
	roots := make(map[snowflake.ID][]snowflake.ID)
	for i := range rules {
		rule := rules[i]
		rule.Conditions = byRule[rule.ID]
		nodes[rule.ID] = &rule
	}
	for _, rule := range rules {
		if rule.ParentID != nil && nodes[*rule.ParentID] != nil {
			children[*rule.ParentID] = append(children[*rule.ParentID], rule.ID)
			continue
		}
		roots[rule.SegmentID] = append(roots[rule.SegmentID], rule.ID)
	}

	var build func(id snowflake.ID) domain.SegmentRule
	build = func(id snowflake.ID) domain.SegmentRule {
		rule := *nodes[id]
		for _, childID := range children[id] {
			rule.Rules = append(rule.Rules, build(childID))
		}
		return rule
	}

	for _, s := range segments {
		s.Rules = nil
		for _, id := range roots[s.ID] {
			s.Rules = append(s.Rules, build(id))
		}
	}
	return nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, segment *domain.Segment) error {
	return db.WithContext(ctx).Exec(
		`UPDATE segments SET name = ?, description = ?, updated_at = ?
		 WHERE project_id = ? AND id = ?`,
		segment.Name,
		segment.Description,
		segment.UpdatedAt,
		segment.ProjectID,
		segment.ID,
	).Error
}

func (r *repo) ReplaceRules(ctx context.Context, db *gorm.DB, segment *domain.Segment) error {
	if err := r.deleteRules(ctx, db, segment.ID); err != nil {
		return err
	}
	return r.insertRules(ctx, db, segment.ID, nil, segment.Rules)
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, projectID, id snowflake.ID) error {
	if err := r.deleteRules(ctx, db, id); err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(
		`DELETE FROM segments WHERE project_id = ? AND id = ?`,
		projectID,
		id,
	).Error
}

func (r *repo) deleteRules(ctx context.Context, db *gorm.DB, segmentID snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM segment_conditions WHERE rule_id IN
		 (SELECT id FROM segment_rules WHERE segment_id = ?)`,
		segmentID,
	).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(
		`DELETE FROM segment_rules WHERE segment_id = ?`,
		segmentID,
	).Error
}
