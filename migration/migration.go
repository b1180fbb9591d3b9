package migration

import (
	"context"
	"errors"
	"sort"

	"github.com/rafflelab/backend/internal/entity"
	"github.com/rafflelab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type Migrator func(context.Context) error

var Migrators = map[string]Migrator{
	"0000": migrate0000,
	"0001": migrate0001,
}

// Migrate runs, in version order, every migrator which has not been recorded
// yet.
func Migrate(ctx context.Context) error {
	if err := xcontext.DB(ctx).AutoMigrate(&entity.Migration{}); err != nil {
		return err
	}

	versions := make([]string, 0, len(Migrators))
	for v := range Migrators {
		versions = append(versions, v)
	}
	sort.Strings(versions)

	for _, v := range versions {
		applied, err := isApplied(ctx, v)
		if err != nil {
			return err
		}

		if applied {
			continue
		}

		if err := Run(ctx, v); err != nil {
			return err
		}
	}

	return nil
}

// Run applies one migrator and records its version.
func Run(ctx context.Context, version string) error {
	migrator, ok := Migrators[version]
	if !ok {
		return errors.New("not found migration version " + version)
	}

	if err := migrator(ctx); err != nil {
		return err
	}

	xcontext.Logger(ctx).Infof("Migrated database to version %s", version)
	return xcontext.DB(ctx).Save(&entity.Migration{Version: version}).Error
}

func isApplied(ctx context.Context, version string) (bool, error) {
	var m entity.Migration
	err := xcontext.DB(ctx).Where("version=?", version).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}
