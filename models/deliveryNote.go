package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nexusvending/vending_backend/config"
	"github.com/nexusvending/vending_backend/utils"
	"github.com/shopspring/decimal"
)

type DeliveryNote struct {
	ID             int                 `gorm:"primary_key" json:"id"`
	Number         string              `gorm:"size:50;not null;uniqueIndex" json:"number"`
	Sender         string              `gorm:"size:255;not null" json:"sender"`
	RecipientName  string              `gorm:"size:255;not null" json:"recipient_name"`
	RecipientTaxId string              `gorm:"size:20;not null" json:"recipient_tax_id"`
	Notes          string              `gorm:"type:text" json:"notes"`
	IssueDate      time.Time           `gorm:"index;not null" json:"issue_date"`
	DeliveryDate   time.Time           `gorm:"not null" json:"delivery_date"`
	Lines          []*DeliveryNoteLine `gorm:"foreignKey:DeliveryNoteId;constraint:OnDelete:CASCADE" json:"lines"`
	CreatedAt      time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

type DeliveryNoteLine struct {
	ID             int             `gorm:"primary_key" json:"id"`
	DeliveryNoteId int             `gorm:"index;not null" json:"delivery_note_id"`
	Description    string          `gorm:"size:255;not null" json:"description"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
}

type NewDeliveryNote struct {
	Number         string                 `json:"number"`
	RecipientName  string                 `json:"recipient_name" binding:"required"`
	RecipientTaxId string                 `json:"recipient_tax_id" binding:"required"`
	Notes          string                 `json:"notes"`
	DeliveryDate   string                 `json:"delivery_date"`
	Lines          []*NewDeliveryNoteLine `json:"lines" binding:"required,min=1,dive"`
}

type NewDeliveryNoteLine struct {
	Description string          `json:"description" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// DeliveryNoteNumber builds REM-YYYYMMDD-NNNNNN from the last six digits of
// the millisecond clock.
func DeliveryNoteNumber(t time.Time) string {
	ms := t.UnixMilli() % 1000000
	return fmt.Sprintf("REM-%s-%06d", t.Format("20060102"), ms)
}

func (input *NewDeliveryNote) validate() (time.Time, error) {
	input.Number = strings.TrimSpace(input.Number)
	input.RecipientName = strings.TrimSpace(input.RecipientName)
	input.RecipientTaxId = strings.TrimSpace(input.RecipientTaxId)
	if input.RecipientName == "" || input.RecipientTaxId == "" {
		return time.Time{}, utils.NewValidationError("recipient name and tax id are required")
	}
	deliveryDate, err := parseDate("delivery date", input.DeliveryDate)
	if err != nil {
		return time.Time{}, err
	}
	if len(input.Lines) == 0 {
		return time.Time{}, utils.NewValidationError("delivery note needs at least one line")
	}
	for i, line := range input.Lines {
		if line == nil || strings.TrimSpace(line.Description) == "" {
			return time.Time{}, utils.NewValidationError("line %d: description is required", i+1)
		}
		if !line.Quantity.IsPositive() {
			return time.Time{}, utils.NewValidationError("line %d: quantity must be greater than zero", i+1)
		}
	}
	return deliveryDate, nil
}

func CreateDeliveryNote(ctx context.Context, input *NewDeliveryNote) (*DeliveryNote, error) {
	deliveryDate, err := input.validate()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if deliveryDate.IsZero() {
		deliveryDate = now
	}
	number := input.Number
	if number == "" {
		number = DeliveryNoteNumber(now)
	}
	if err := utils.ValidateUnique[DeliveryNote](ctx, "number", number, 0); err != nil {
		return nil, err
	}

	lines := make([]*DeliveryNoteLine, 0, len(input.Lines))
	for _, in := range input.Lines {
		lines = append(lines, &DeliveryNoteLine{
			Description: strings.TrimSpace(in.Description),
			Quantity:    in.Quantity,
		})
	}
	note := DeliveryNote{
		Number:         number,
		Sender:         config.CompanyName(),
		RecipientName:  input.RecipientName,
		RecipientTaxId: input.RecipientTaxId,
		Notes:          strings.TrimSpace(input.Notes),
		IssueDate:      now,
		DeliveryDate:   deliveryDate,
		Lines:          lines,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&note).Error; err != nil {
		return nil, utils.TranslateStoreError(err, "number", number)
	}
	return &note, nil
}

func GetDeliveryNote(ctx context.Context, id int) (*DeliveryNote, error) {
	return utils.FetchModel[DeliveryNote](ctx, id, "Lines")
}

// newest first
func ListDeliveryNotes(ctx context.Context) ([]*DeliveryNote, error) {
	return utils.FetchAllModels[DeliveryNote](ctx, "issue_date DESC, id DESC", "Lines")
}

func DeleteDeliveryNote(ctx context.Context, id int) (*DeliveryNote, error) {
	note, err := utils.FetchModel[DeliveryNote](ctx, id, "Lines")
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Where("delivery_note_id = ?", id).Delete(&DeliveryNoteLine{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(&DeliveryNote{}, id).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return note, nil
}
