package services

import (
	"errors"
	"sync"

	"github.com/takoucam/marketplace/models"
	"github.com/takoucam/marketplace/utils"
	"gorm.io/gorm"
)

// feeWriteMutex spans every deactivate-others + activate write pair so two
// concurrent activations can never leave two fees of one type active.
var feeWriteMutex sync.Mutex

// GetActivePercentage returns the active fee percentage for a type, or 0 when
// none is active.
func GetActivePercentage(db *gorm.DB, feeType string) float64 {
	var fee models.Fee
	err := db.Where("type = ? AND is_active = ?", feeType, true).First(&fee).Error
	if err != nil {
		return 0
	}
	return fee.Percentage
}

// CreateFee stores a new fee. When the fee is created active, every other
// active fee of the same type is deactivated in the same transaction.
func CreateFee(db *gorm.DB, fee *models.Fee) error {
	feeWriteMutex.Lock()
	defer feeWriteMutex.Unlock()

	return db.Transaction(func(tx *gorm.DB) error {
		if fee.IsActive {
			if err := deactivateOthers(tx, fee.Type, 0); err != nil {
				return err
			}
		}
		return tx.Create(fee).Error
	})
}

// ActivateFee activates a fee and deactivates every other fee of its type
// atomically.
func ActivateFee(db *gorm.DB, feeID uint) (*models.Fee, error) {
	feeWriteMutex.Lock()
	defer feeWriteMutex.Unlock()

	var fee models.Fee

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&fee, feeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFoundError("fee not found")
			}
			return err
		}

		if err := deactivateOthers(tx, fee.Type, fee.ID); err != nil {
			return err
		}

		fee.IsActive = true
		return tx.Save(&fee).Error
	})
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

// UpdateFee applies partial changes. Activating a fee, or moving it to a new
// type while active, deactivates the other active fees of the target type.
func UpdateFee(db *gorm.DB, feeID uint, updates map[string]interface{}) (*models.Fee, error) {
	feeWriteMutex.Lock()
	defer feeWriteMutex.Unlock()

	var fee models.Fee

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&fee, feeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFoundError("fee not found")
			}
			return err
		}

		targetType := fee.Type
		if newType, ok := updates["type"].(string); ok {
			targetType = newType
		}

		willBeActive := fee.IsActive
		if newActive, ok := updates["is_active"].(bool); ok {
			willBeActive = newActive
		}

		if willBeActive {
			if err := deactivateOthers(tx, targetType, fee.ID); err != nil {
				return err
			}
		}

		return tx.Model(&fee).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

// DeleteFee removes a fee. Deleting the sole active fee of a type is rejected
// so pricing never silently drops to zero.
func DeleteFee(db *gorm.DB, feeID uint) error {
	feeWriteMutex.Lock()
	defer feeWriteMutex.Unlock()

	return db.Transaction(func(tx *gorm.DB) error {
		var fee models.Fee
		if err := tx.First(&fee, feeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFoundError("fee not found")
			}
			return err
		}

		if fee.IsActive {
			var activeCount int64
			if err := tx.Model(&models.Fee{}).
				Where("type = ? AND is_active = ?", fee.Type, true).
				Count(&activeCount).Error; err != nil {
				return err
			}
			if activeCount <= 1 {
				return utils.NewConflictError("cannot delete the only active %s fee; activate another fee of this type first", fee.Type)
			}
		}

		return tx.Delete(&fee).Error
	})
}

func deactivateOthers(tx *gorm.DB, feeType string, exceptID uint) error {
	return tx.Model(&models.Fee{}).
		Where("type = ? AND is_active = ? AND id <> ?", feeType, true, exceptID).
		Update("is_active", false).Error
}
