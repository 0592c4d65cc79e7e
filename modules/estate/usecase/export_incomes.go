package usecase

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common/errs"
	"github.com/gaze-network/estate-ordinals/modules/estate/internal/entity"
	"github.com/gaze-network/estate-ordinals/pkg/parquetutils"
	"github.com/samber/lo"
)

const ParquetContentType = "application/vnd.apache.parquet"

type IncomeKind string

const (
	IncomeKindUser     IncomeKind = "user"
	IncomeKindProperty IncomeKind = "property"
)

func (k IncomeKind) IsValid() bool {
	return k == IncomeKindUser || k == IncomeKindProperty
}

// UserIncomeRecord is a parquet row of the user income export. Amounts are decimal strings.
type UserIncomeRecord struct {
	Id         string `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Address    string `parquet:"name=address, type=BYTE_ARRAY, convertedtype=UTF8"`
	PropertyId string `parquet:"name=property_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Amount     string `parquet:"name=amount, type=BYTE_ARRAY, convertedtype=UTF8"`
	CreatedAt  int64  `parquet:"name=created_at, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
}

type PropertyIncomeRecord struct {
	Id         string `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	PropertyId string `parquet:"name=property_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Amount     string `parquet:"name=amount, type=BYTE_ARRAY, convertedtype=UTF8"`
	Status     int32  `parquet:"name=status, type=INT32"`
	CreatedAt  int64  `parquet:"name=created_at, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
}

type IncomeExport struct {
	Kind  IncomeKind
	Count int
	Data  []byte
}

// Filename is the download name of the export.
func (e *IncomeExport) Filename() string {
	return fmt.Sprintf("%s-incomes.parquet", e.Kind)
}

// ExportIncomes encodes every income of the given kind as a parquet file.
func (u *Usecase) ExportIncomes(ctx context.Context, kind IncomeKind) (*IncomeExport, error) {
	var (
		data  []byte
		count int
		err   error
	)
	switch kind {
	case IncomeKindUser:
		incomes, getErr := u.estateDg.GetUserIncomes(ctx)
		if getErr != nil {
			return nil, errors.Wrap(getErr, "failed to get user incomes")
		}
		count = len(incomes)
		data, err = parquetutils.WriteAll(lo.Map(incomes, func(i *entity.UserIncome, _ int) UserIncomeRecord {
			record := UserIncomeRecord{
				Id:        i.Id.String(),
				Address:   i.Address,
				Amount:    i.Amount.String(),
				CreatedAt: i.CreatedAt.UnixMilli(),
			}
			if i.PropertyId != nil {
				record.PropertyId = i.PropertyId.String()
			}
			return record
		}))
	case IncomeKindProperty:
		incomes, getErr := u.estateDg.GetPropertyIncomes(ctx)
		if getErr != nil {
			return nil, errors.Wrap(getErr, "failed to get property incomes")
		}
		count = len(incomes)
		data, err = parquetutils.WriteAll(lo.Map(incomes, func(i *entity.PropertyIncome, _ int) PropertyIncomeRecord {
			return PropertyIncomeRecord{
				Id:         i.Id.String(),
				PropertyId: i.PropertyId.String(),
				Amount:     i.Amount.String(),
				Status:     i.Status,
				CreatedAt:  i.CreatedAt.UnixMilli(),
			}
		}))
	default:
		return nil, errs.NewPublicError(fmt.Sprintf("unsupported income kind %q", kind))
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode incomes")
	}
	return &IncomeExport{Kind: kind, Count: count, Data: data}, nil
}

// UploadIncomeExport stores the export in the object store and returns its url.
func (u *Usecase) UploadIncomeExport(ctx context.Context, export *IncomeExport) (string, error) {
	if u.objectStore == nil {
		return "", errs.WithPublicMessage(errors.Wrap(errs.Unsupported, "object store is not configured"), "export upload is disabled")
	}
	key := fmt.Sprintf("exports/%s/%s", u.now().UTC().Format("20060102T150405Z"), export.Filename())
	url, err := u.objectStore.Upload(ctx, key, bytes.NewReader(export.Data), ParquetContentType)
	if err != nil {
		return "", errors.Wrap(err, "failed to upload income export")
	}
	return url, nil
}
