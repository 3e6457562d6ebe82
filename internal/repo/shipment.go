package repo

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"github.com/Skotchmaster/bookstore_checkout/internal/models"
)

func (r *GormRepo) SaveShipmentEvent(ctx context.Context, payload []byte) (*models.ShipmentEvent, error) {
	ev := &models.ShipmentEvent{
		Payload:    datatypes.JSON(payload),
		ReceivedAt: time.Now().UTC(),
	}
	if err := r.DB.WithContext(ctx).Create(ev).Error; err != nil {
		return nil, err
	}
	return ev, nil
}
