package usecase

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/modules/estate/datagateway"
	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/gaze-network/estate-ordinals/pkg/broadcast"
	"github.com/gaze-network/estate-ordinals/pkg/logger"
	"github.com/gaze-network/estate-ordinals/pkg/logger/slogx"
	"github.com/google/uuid"
)

func (u *Usecase) CreateProperty(ctx context.Context, property entity.Property) (*entity.Property, error) {
	var errList []error
	if property.Title == "" {
		errList = append(errList, errors.New("'title' is required"))
	}
	if property.Description == "" {
		errList = append(errList, errors.New("'description' is required"))
	}
	if property.Supply <= 0 {
		errList = append(errList, errors.New("'supply' must be positive"))
	}
	if !property.Price.IsPositive() {
		errList = append(errList, errors.New("'price' must be positive"))
	}
	if property.Sold < 0 {
		errList = append(errList, errors.New("'sold' must be non-negative"))
	}
	if err := validateInscriptionId(property.InscriptionId); err != nil {
		errList = append(errList, err)
	}
	if err := validationError(errList); err != nil {
		return nil, errors.WithStack(err)
	}

	now := u.now()
	property.Id = uuid.New()
	property.Status = utils.Default(property.Status, entity.PropertyStatusActive)
	property.CreatedAt = now
	property.UpdatedAt = now
	if err := u.estateDg.CreateProperty(ctx, property); err != nil {
		return nil, errors.Wrap(err, "failed to create property")
	}
	return &property, nil
}

func (u *Usecase) GetProperties(ctx context.Context) ([]*entity.Property, error) {
	properties, err := u.estateDg.GetProperties(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get properties")
	}
	return properties, nil
}

func (u *Usecase) GetPropertyById(ctx context.Context, id uuid.UUID) (*entity.Property, error) {
	property, err := u.estateDg.GetPropertyById(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get property")
	}
	return property, nil
}

// UpdateProperty applies a partial update. A non-nil soldShareAmount is added to the
// sold counter in the same transaction and announced with a sold event.
func (u *Usecase) UpdateProperty(ctx context.Context, id uuid.UUID, params datagateway.UpdatePropertyParams, soldShareAmount *int64) (*entity.Property, error) {
	var errList []error
	if params.InscriptionId != nil {
		if err := validateInscriptionId(*params.InscriptionId); err != nil {
			errList = append(errList, err)
		}
	}
	if params.Supply != nil && *params.Supply <= 0 {
		errList = append(errList, errors.New("'supply' must be positive"))
	}
	if params.Price != nil && !params.Price.IsPositive() {
		errList = append(errList, errors.New("'price' must be positive"))
	}
	if params.Sold != nil && *params.Sold < 0 {
		errList = append(errList, errors.New("'sold' must be non-negative"))
	}
	if soldShareAmount != nil && *soldShareAmount <= 0 {
		errList = append(errList, errors.New("'soldShareAmount' must be positive"))
	}
	if err := validationError(errList); err != nil {
		return nil, errors.WithStack(err)
	}

	if soldShareAmount == nil {
		property, err := u.estateDg.UpdateProperty(ctx, id, params)
		if err != nil {
			return nil, errors.Wrap(err, "failed to update property")
		}
		return property, nil
	}

	tx, err := u.estateDg.BeginEstateTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil {
			logger.WarnContext(ctx, "failed to rollback transaction", slogx.Error(err))
		}
	}()

	property, err := tx.UpdateProperty(ctx, id, params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update property")
	}
	sold, err := tx.IncrementPropertySold(ctx, id, *soldShareAmount)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update property sold")
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}
	property.Sold = sold

	u.broadcastSold(ctx, id, *soldShareAmount)
	return property, nil
}

// UpdateForSold atomically adds amount to the sold counter of a property and announces it.
func (u *Usecase) UpdateForSold(ctx context.Context, propertyId uuid.UUID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, errs.NewPublicError("'amount' must be positive")
	}
	sold, err := u.estateDg.IncrementPropertySold(ctx, propertyId, amount)
	if err != nil {
		return 0, errors.Wrap(err, "failed to update property sold")
	}
	u.broadcastSold(ctx, propertyId, amount)
	return sold, nil
}

func (u *Usecase) broadcastSold(ctx context.Context, propertyId uuid.UUID, amount int64) {
	if err := u.broadcaster.Broadcast(ctx, broadcast.NewSoldEvent(propertyId.String(), amount)); err != nil {
		logger.WarnContext(ctx, "Failed to broadcast sold event",
			slogx.String("propertyId", propertyId.String()),
			slogx.Error(err),
		)
		return
	}
	logger.InfoContext(ctx, "Sold shares", slogx.String("propertyId", propertyId.String()), slogx.Int64("amount", amount))
}

func (u *Usecase) DeleteProperty(ctx context.Context, id uuid.UUID) error {
	if err := u.estateDg.DeleteProperty(ctx, id); err != nil {
		return errors.Wrap(err, "failed to delete property")
	}
	return nil
}

var allowedImageTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/gif":  {},
	"image/webp": {},
}

// UploadPropertyImage stores the image in the object store and sets the property image url.
func (u *Usecase) UploadPropertyImage(ctx context.Context, id uuid.UUID, filename string, contentType string, body io.Reader) (*entity.Property, error) {
	if u.objectStore == nil {
		return nil, errs.WithPublicMessage(errors.Wrap(errs.Unsupported, "object store is not configured"), "image upload is disabled")
	}
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if _, ok := allowedImageTypes[contentType]; !ok {
		return nil, errs.NewPublicError(fmt.Sprintf("unsupported image type %q", contentType))
	}
	if _, err := u.estateDg.GetPropertyById(ctx, id); err != nil {
		return nil, errors.Wrap(err, "failed to get property")
	}

	key := fmt.Sprintf("properties/%s/%s%s", id, uuid.New(), strings.ToLower(path.Ext(filename)))
	url, err := u.objectStore.Upload(ctx, key, body, contentType)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upload property image")
	}
	property, err := u.estateDg.UpdateProperty(ctx, id, datagateway.UpdatePropertyParams{ImageURL: &url})
	if err != nil {
		return nil, errors.Wrap(err, "failed to update property image")
	}
	return property, nil
}
