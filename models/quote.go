package models

import (
	"context"
	"strings"
	"time"

	"github.com/nexusvending/vending_backend/config"
	"github.com/nexusvending/vending_backend/utils"
	"github.com/shopspring/decimal"
)

const DefaultQuoteValidityDays = 7

type Quote struct {
	ID            int             `gorm:"primary_key" json:"id"`
	Title         string          `gorm:"size:255;not null" json:"title"`
	Description   string          `gorm:"type:text" json:"description"`
	ClientName    string          `gorm:"size:255;not null" json:"client_name"`
	ClientContact string          `gorm:"size:255" json:"client_contact"`
	ValidityDays  int             `gorm:"not null;default:7" json:"validity_days"`
	IssueDate     time.Time       `gorm:"not null" json:"issue_date"`
	ExpiryDate    time.Time       `gorm:"index;not null" json:"expiry_date"`
	Total         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total"`
	Lines         []*QuoteLine    `gorm:"foreignKey:QuoteId;constraint:OnDelete:CASCADE" json:"lines"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type QuoteLine struct {
	ID          int             `gorm:"primary_key" json:"id"`
	QuoteId     int             `gorm:"index;not null" json:"quote_id"`
	Description string          `gorm:"size:255;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"subtotal"`
}

type NewQuote struct {
	Title         string          `json:"title" binding:"required"`
	Description   string          `json:"description"`
	ClientName    string          `json:"client_name" binding:"required"`
	ClientContact string          `json:"client_contact"`
	ValidityDays  int             `json:"validity_days"`
	IssueDate     string          `json:"issue_date"`
	Lines         []*NewQuoteLine `json:"lines" binding:"required,min=1,dive"`
}

type NewQuoteLine struct {
	Description string          `json:"description" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// IsExpired reports whether the quote's validity ended before now.
func (q Quote) IsExpired(now time.Time) bool {
	return q.ExpiryDate.Before(now)
}

func (input *NewQuote) validate() (time.Time, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.ClientName = strings.TrimSpace(input.ClientName)
	if input.Title == "" || input.ClientName == "" {
		return time.Time{}, utils.NewValidationError("quote title and client are required")
	}
	if input.ValidityDays == 0 {
		input.ValidityDays = DefaultQuoteValidityDays
	}
	if input.ValidityDays < 0 {
		return time.Time{}, utils.NewValidationError("validity days must be positive")
	}
	issueDate, err := parseDate("issue date", input.IssueDate)
	if err != nil {
		return time.Time{}, err
	}
	if issueDate.IsZero() {
		issueDate = time.Now().UTC()
	}
	if len(input.Lines) == 0 {
		return time.Time{}, utils.NewValidationError("quote needs at least one line")
	}
	for i, line := range input.Lines {
		if line == nil || strings.TrimSpace(line.Description) == "" {
			return time.Time{}, utils.NewValidationError("line %d: description is required", i+1)
		}
		if !line.Quantity.IsPositive() {
			return time.Time{}, utils.NewValidationError("line %d: quantity must be greater than zero", i+1)
		}
		if line.UnitPrice.IsNegative() {
			return time.Time{}, utils.NewValidationError("line %d: unit price cannot be negative", i+1)
		}
	}
	return issueDate, nil
}

func CreateQuote(ctx context.Context, input *NewQuote) (*Quote, error) {
	issueDate, err := input.validate()
	if err != nil {
		return nil, err
	}

	lines := make([]*QuoteLine, 0, len(input.Lines))
	total := decimal.Zero
	for _, in := range input.Lines {
		subtotal := Round2(in.Quantity.Mul(in.UnitPrice))
		lines = append(lines, &QuoteLine{
			Description: strings.TrimSpace(in.Description),
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Subtotal:    subtotal,
		})
		total = total.Add(subtotal)
	}
	quote := Quote{
		Title:         input.Title,
		Description:   strings.TrimSpace(input.Description),
		ClientName:    input.ClientName,
		ClientContact: strings.TrimSpace(input.ClientContact),
		ValidityDays:  input.ValidityDays,
		IssueDate:     issueDate,
		ExpiryDate:    issueDate.AddDate(0, 0, input.ValidityDays),
		Total:         total,
		Lines:         lines,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&quote).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

func GetQuote(ctx context.Context, id int) (*Quote, error) {
	return utils.FetchModel[Quote](ctx, id, "Lines")
}

// newest first
func ListQuotes(ctx context.Context) ([]*Quote, error) {
	return utils.FetchAllModels[Quote](ctx, "issue_date DESC, id DESC", "Lines")
}

func DeleteQuote(ctx context.Context, id int) (*Quote, error) {
	quote, err := utils.FetchModel[Quote](ctx, id, "Lines")
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Where("quote_id = ?", id).Delete(&QuoteLine{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(&Quote{}, id).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return quote, nil
}
