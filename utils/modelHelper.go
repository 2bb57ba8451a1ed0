package utils

import (
	"context"
	"errors"

	"github.com/nexusvending/vending_backend/config"
	"gorm.io/gorm"
)

/* DB fetching */

// fetch model from db
// (may return RecordNotFound)
func FetchModel[T any](ctx context.Context, id int, associations ...string) (*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	// preloading
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// fetch all models from db, ordered by orderBy (may be blank)
func FetchAllModels[T any](ctx context.Context, orderBy string, associations ...string) ([]*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	if orderBy != "" {
		dbCtx = dbCtx.Order(orderBy)
	}
	results := make([]*T, 0)
	if err := dbCtx.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// read model list from redis, falling back to db, then cache the result
func ListModel[T any](ctx context.Context, orderBy string, associations ...string) ([]*T, error) {
	results, err := RetrieveRedisList[T]()
	if err != nil {
		// a broken cache entry never blocks reads
		_ = RemoveRedisList[T]()
		results = nil
	}
	if results != nil {
		return results, nil
	}
	results, err = FetchAllModels[T](ctx, orderBy, associations...)
	if err != nil {
		return nil, err
	}
	if err := StoreRedisList[T](results); err != nil {
		config.LogError(config.GetLogger(), "utils", "ListModel", "caching list", GetTypeName[T](), err)
	}
	return results, nil
}
