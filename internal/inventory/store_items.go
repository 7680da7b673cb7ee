package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"partscope/internal/services"
)

const defaultItemName = "Item"

// Create inserts a single item and returns the stored record.
func (s *Store) Create(ctx context.Context, item NewItem) (*Item, error) {
	items, err := s.CreateMany(ctx, []NewItem{item})
	if err != nil {
		return nil, err
	}
	return items[0], nil
}

// CreateMany inserts every item in one transaction. Either all rows are stored
// or none are; results keep the input order.
func (s *Store) CreateMany(ctx context.Context, items []NewItem) ([]*Item, error) {
	if len(items) == 0 {
		return nil, services.Validationf("no items to create")
	}
	prepared := make([]NewItem, len(items))
	for i, item := range items {
		normalized, err := normalizeNewItem(item)
		if err != nil {
			return nil, err
		}
		prepared[i] = normalized
	}

	var created []*Item
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		created = created[:0]
		for _, item := range prepared {
			now := s.timestamp()
			res, err := tx.ExecContext(ctx,
				`INSERT INTO inventory_items (name, image_path, status, owner, notes, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				item.Name, item.ImagePath, string(item.Status), item.Owner, item.Notes, now, now,
			)
			if err != nil {
				if isUniqueViolation(err) {
					return services.Validationf("image_path %q is already registered", item.ImagePath)
				}
				return fmt.Errorf("insert item: %w", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("last insert id: %w", err)
			}
			stored, err := getItem(ctx, tx, id)
			if err != nil {
				return err
			}
			created = append(created, stored)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func normalizeNewItem(item NewItem) (NewItem, error) {
	item.ImagePath = strings.TrimSpace(item.ImagePath)
	if item.ImagePath == "" {
		return item, services.Validationf("image_path is required")
	}
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		item.Name = defaultItemName
	}
	if item.Status == "" {
		item.Status = StatusAwaitingReview
	} else if status, ok := ParseStatus(string(item.Status)); ok {
		item.Status = status
	} else {
		return item, services.Validationf("status %q is not allowed", item.Status)
	}
	item.Owner = strings.TrimSpace(item.Owner)
	item.Notes = strings.TrimSpace(item.Notes)
	return item, nil
}

// Get fetches a single item, returning a not-found error when it is absent.
func (s *Store) Get(ctx context.Context, id int64) (*Item, error) {
	return getItem(ctx, s.db, id)
}

func getItem(ctx context.Context, q queryer, id int64) (*Item, error) {
	row := q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.NotFoundf("item %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get item %d: %w", id, err)
	}
	return item, nil
}

// GetMany returns the existing subset of ids in the order they were given.
// Unknown ids and duplicates are skipped.
func (s *Store) GetMany(ctx context.Context, ids []int64) ([]*Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM inventory_items WHERE id IN (`+makePlaceholders(len(ids))+`)`,
		int64Args(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	found, err := scanItems(rows)
	if err != nil {
		return nil, fmt.Errorf("scan items: %w", err)
	}
	byID := make(map[int64]*Item, len(found))
	for _, item := range found {
		byID[item.ID] = item
	}
	ordered := make([]*Item, 0, len(found))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			ordered = append(ordered, item)
			delete(byID, id)
		}
	}
	return ordered, nil
}

// List returns items ordered by creation time.
func (s *Store) List(ctx context.Context, filter Filter) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items`
	var args []any
	if len(filter.Statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(filter.Statuses)) + `)`
		for _, status := range filter.Statuses {
			args = append(args, string(status))
		}
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	items, err := scanItems(rows)
	if err != nil {
		return nil, fmt.Errorf("scan items: %w", err)
	}
	return items, nil
}

// Count returns the number of stored items.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM inventory_items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

// Update applies patch to a single item inside one transaction.
func (s *Store) Update(ctx context.Context, id int64, patch Patch) (*Item, error) {
	var updated *Item
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getItem(ctx, tx, id)
		if err != nil {
			return err
		}
		next, err := patch.Apply(*current)
		if err != nil {
			return err
		}
		if err := s.writeFields(ctx, tx, next); err != nil {
			return err
		}
		updated, err = getItem(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateMany applies the batch patch to every existing id in one transaction
// and returns how many items changed. Missing ids are skipped.
func (s *Store) UpdateMany(ctx context.Context, ids []int64, batch BatchPatch) (int, error) {
	if err := batch.Validate(); err != nil {
		return 0, err
	}
	patch := batch.Patch()
	var updated int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		updated = 0
		seen := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			current, err := getItem(ctx, tx, id)
			if errors.Is(err, services.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			next, err := patch.Apply(*current)
			if err != nil {
				return err
			}
			if err := s.writeFields(ctx, tx, next); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

func (s *Store) writeFields(ctx context.Context, tx *sql.Tx, item Item) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE inventory_items SET name = ?, status = ?, owner = ?, notes = ?, updated_at = ? WHERE id = ?`,
		item.Name, string(item.Status), item.Owner, item.Notes, s.timestamp(), item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item %d: %w", item.ID, err)
	}
	return nil
}

// RecordClassification stores a classification result and, when status is
// non-nil, the status derived from it. A prediction log row is written in the
// same transaction.
func (s *Store) RecordClassification(ctx context.Context, id int64, result Classification, status *Status) (*Item, error) {
	result, err := NewClassification(result.Score)
	if err != nil {
		return nil, err
	}
	var updated *Item
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getItem(ctx, tx, id)
		if err != nil {
			return err
		}
		next := current.Status
		if status != nil {
			next = *status
		}
		score, label := classificationArgs(&result)
		now := s.timestamp()
		if _, err := tx.ExecContext(ctx,
			`UPDATE inventory_items SET score = ?, label = ?, status = ?, updated_at = ? WHERE id = ?`,
			score, label, string(next), now, id,
		); err != nil {
			return fmt.Errorf("record classification for item %d: %w", id, err)
		}
		if err := insertPrediction(ctx, tx, &id, result, SourceClassify, now); err != nil {
			return err
		}
		updated, err = getItem(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteMany removes the given ids and returns how many rows were deleted.
// Unknown ids are ignored.
func (s *Store) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM inventory_items WHERE id IN (`+makePlaceholders(len(ids))+`)`,
			int64Args(ids)...,
		)
		if err != nil {
			return fmt.Errorf("delete items: %w", err)
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
