package utils

import (
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/nexusvending/vending_backend/config"
)

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil || lifespan <= 0 {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	return reflect.TypeOf(v).Name()
}

func redisListKey[T any]() string {
	return GetTypeName[T]() + "List"
}

// store list
func StoreRedisList[T any](list []*T) error {
	return config.SetRedisObject(redisListKey[T](), list, GetCacheLifespan())
}

// retrieve a list.
// returns nil if it does not exist
func RetrieveRedisList[T any]() ([]*T, error) {
	var result []*T
	exists, err := config.GetRedisObject(redisListKey[T](), &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	if result == nil {
		result = make([]*T, 0)
	}
	return result, nil
}

// clear list, TypeList
func RemoveRedisList[T any]() error {
	return config.RemoveRedisKey(redisListKey[T]())
}
