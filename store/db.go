package store

import (
	"context"
	"strings"

	"kudos-bot/errs"
	"kudos-bot/model"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open creates or opens the sqlite database at path and migrates the schema.
//
// The pool is limited to one connection, so transactions never interleave
// and each check-then-write in this package is atomic.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	if err != nil {
		return nil, errs.Wrapf(err, "open database %s", path)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errs.Wrap(err, "get sql.DB")
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(model.All()...); err != nil {
		sqlDB.Close()
		return nil, errs.Wrap(err, "migrate")
	}
	return db, nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dsn(path string) string {
	pragmas := "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	if path != ":memory:" {
		pragmas += "&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + pragmas
}

// runInTx runs fn in a transaction and returns its result.
// Domain errors from fn pass through untouched; anything else is wrapped.
func runInTx[T any](ctx context.Context, db *gorm.DB, op string, fn func(tx *gorm.DB) (T, error)) (T, error) {
	var result T
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = fn(tx)
		return err
	})
	if err != nil {
		var zero T
		if errs.IsDomain(err) {
			return zero, err
		}
		return zero, errs.Wrap(err, op)
	}
	return result, nil
}
