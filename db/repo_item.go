package db

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rental_backend/apierrors"
	"rental_backend/models"
)

// --- inventory primitives ---

// AllocateItem picks the free unit of the type with the lowest id and flips it
// to unavailable. The candidate row is locked for the rest of the transaction
// and the flip is guarded by `is_available = TRUE`, so two concurrent
// allocations can never agree on the same unit: the loser walks to the next
// candidate and gets NoneAvailable once the type is exhausted.
func (r *Repo) AllocateItem(ctx context.Context, itemTypeID string) (*models.Item, error) {
	tx := r.DB.WithContext(ctx)
	var candidates []models.Item
	if err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("type_id = ? AND is_available = TRUE AND is_deleted = FALSE", itemTypeID).
		Order("id").
		Limit(5).
		Find(&candidates).Error; err != nil {
		return nil, err
	}
	for i := range candidates {
		res := tx.Model(&models.Item{}).
			Where("id = ? AND is_available = TRUE", candidates[i].ID).
			Update("is_available", false)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			candidates[i].IsAvailable = false
			return &candidates[i], nil
		}
	}
	return nil, apierrors.NoneAvailable(itemTypeID)
}

// ReleaseItem is idempotent: freeing an already-free item is a no-op.
func (r *Repo) ReleaseItem(ctx context.Context, itemID string) error {
	return r.DB.WithContext(ctx).Model(&models.Item{}).
		Where("id = ?", itemID).
		Update("is_available", true).Error
}

func (r *Repo) OccupyItem(ctx context.Context, itemID string) error {
	return r.DB.WithContext(ctx).Model(&models.Item{}).
		Where("id = ?", itemID).
		Update("is_available", false).Error
}

// --- item types ---

func (r *Repo) ItemTypeExists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.ItemType{}).
		Where("id = ? AND is_deleted = FALSE", id).
		Count(&n).Error
	return n > 0, err
}

func (r *Repo) CreateItemType(ctx context.Context, it *models.ItemType) error {
	return r.DB.WithContext(ctx).Create(it).Error
}

func (r *Repo) FindItemType(ctx context.Context, id string) (*models.ItemType, error) {
	var it models.ItemType
	if err := r.DB.WithContext(ctx).
		First(&it, "id = ? AND is_deleted = FALSE", id).Error; err != nil {
		return nil, translateNotFound(err, "ItemType", id)
	}
	n, err := r.CountFreeItems(ctx, id)
	if err != nil {
		return nil, err
	}
	it.FreeItemsCount = n
	return &it, nil
}

// ListItemTypes returns all types with their free-unit counts. The tombstone
// filter is an explicit parameter, not a hidden query default.
func (r *Repo) ListItemTypes(ctx context.Context, includeDeleted bool) ([]models.ItemType, error) {
	q := r.DB.WithContext(ctx).Model(&models.ItemType{}).Order("created_at")
	if !includeDeleted {
		q = q.Where("is_deleted = FALSE")
	}
	var types []models.ItemType
	if err := q.Find(&types).Error; err != nil {
		return nil, err
	}
	for i := range types {
		n, err := r.CountFreeItems(ctx, types[i].ID)
		if err != nil {
			return nil, err
		}
		types[i].FreeItemsCount = n
	}
	return types, nil
}

func (r *Repo) UpdateItemType(ctx context.Context, id string, set map[string]any) (*models.ItemType, error) {
	res := r.DB.WithContext(ctx).Model(&models.ItemType{}).
		Where("id = ? AND is_deleted = FALSE", id).
		Updates(set)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apierrors.ObjectNotFound("ItemType", id)
	}
	return r.FindItemType(ctx, id)
}

// DeleteItemType tombstones the type. Session history keeps referencing its
// items, so rows are never removed.
func (r *Repo) DeleteItemType(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Model(&models.ItemType{}).
		Where("id = ? AND is_deleted = FALSE", id).
		Update("is_deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierrors.ObjectNotFound("ItemType", id)
	}
	return nil
}

func (r *Repo) CountFreeItems(ctx context.Context, itemTypeID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Item{}).
		Where("type_id = ? AND is_available = TRUE AND is_deleted = FALSE", itemTypeID).
		Count(&n).Error
	return n, err
}

// --- items ---

func (r *Repo) CreateItem(ctx context.Context, it *models.Item) error {
	return r.DB.WithContext(ctx).Create(it).Error
}

func (r *Repo) FindItem(ctx context.Context, id string) (*models.Item, error) {
	var it models.Item
	if err := r.DB.WithContext(ctx).
		First(&it, "id = ? AND is_deleted = FALSE", id).Error; err != nil {
		return nil, translateNotFound(err, "Item", id)
	}
	return &it, nil
}

func (r *Repo) ListItems(ctx context.Context, itemTypeID string, includeDeleted bool) ([]models.Item, error) {
	q := r.DB.WithContext(ctx).Model(&models.Item{}).Order("created_at")
	if itemTypeID != "" {
		q = q.Where("type_id = ?", itemTypeID)
	}
	if !includeDeleted {
		q = q.Where("is_deleted = FALSE")
	}
	var items []models.Item
	err := q.Find(&items).Error
	return items, err
}

func (r *Repo) SetItemAvailability(ctx context.Context, id string, available bool) (*models.Item, error) {
	res := r.DB.WithContext(ctx).Model(&models.Item{}).
		Where("id = ? AND is_deleted = FALSE", id).
		Updates(map[string]any{"is_available": available, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apierrors.ObjectNotFound("Item", id)
	}
	return r.FindItem(ctx, id)
}

// DeleteItem tombstones a unit. Units held by a session in a holding state
// cannot be deleted.
func (r *Repo) DeleteItem(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var held int64
		if err := tx.Model(&models.RentalSession{}).
			Where("item_id = ? AND status IN ?", id, statusStrings(models.HoldingStatuses)).
			Count(&held).Error; err != nil {
			return err
		}
		if held > 0 {
			return apierrors.ForbiddenAction("Item")
		}
		res := tx.Model(&models.Item{}).
			Where("id = ? AND is_deleted = FALSE", id).
			Update("is_deleted", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apierrors.ObjectNotFound("Item", id)
		}
		return nil
	})
}
