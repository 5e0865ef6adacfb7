package trading

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/nakulchoubisa/option-sell-bot/internal/types"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// GetOpenPositionBySymbol returns the single OPEN position for a symbol, or
// nil when none exists.
func (d *Database) GetOpenPositionBySymbol(symbol string) (*types.Position, error) {
	var pos types.Position
	err := d.db.Where("symbol = ? AND status = ?", symbol, types.PositionOpen).First(&pos).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", types.ErrStore, err)
	}
	return &pos, nil
}

// GetPosition returns a position by id, or nil when it does not exist.
func (d *Database) GetPosition(id uint) (*types.Position, error) {
	var pos types.Position
	if err := d.db.First(&pos, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", types.ErrStore, err)
	}
	return &pos, nil
}

// ListPositions returns all positions, oldest first.
func (d *Database) ListPositions() ([]types.Position, error) {
	var positions []types.Position
	if err := d.db.Order("id").Find(&positions).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrStore, err)
	}
	return positions, nil
}

// ListOrders returns all orders, oldest first.
func (d *Database) ListOrders() ([]types.Order, error) {
	var orders []types.Order
	if err := d.db.Order("id").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrStore, err)
	}
	return orders, nil
}

// GetOrdersForPosition returns all orders recorded against a position,
// including cancelled and rejected ones.
func (d *Database) GetOrdersForPosition(positionID uint) ([]types.Order, error) {
	var orders []types.Order
	if err := d.db.Where("position_id = ?", positionID).Order("id").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrStore, err)
	}
	return orders, nil
}

// ApplyFill upserts the position and appends the fill's order row in a
// single transaction, so a failure cannot leave an updated position without
// its order record or vice versa.
func (d *Database) ApplyFill(pos *types.Position, order *types.Order) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return fmt.Errorf("%w: %v", types.ErrStore, err)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Save(pos).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("%w: %v", types.ErrStore, err)
	}

	order.PositionID = pos.ID
	if err := tx.Create(order).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("%w: %v", types.ErrStore, err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("%w: %v", types.ErrStore, err)
	}
	return nil
}

// CloseWithExit records the reversing exit order and marks the position
// CLOSED in one transaction.
func (d *Database) CloseWithExit(pos *types.Position, exit *types.Order) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return fmt.Errorf("%w: %v", types.ErrStore, err)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	exit.PositionID = pos.ID
	if err := tx.Create(exit).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("%w: %v", types.ErrStore, err)
	}

	if err := tx.Save(pos).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("%w: %v", types.ErrStore, err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("%w: %v", types.ErrStore, err)
	}
	return nil
}
