package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	appbackup "github.com/salescrm/backend/internal/application/backup"
	"github.com/salescrm/backend/internal/domain/backup"
	"github.com/salescrm/backend/internal/infrastructure/persistence/models"
)

const restoreBatchSize = 200

// snapshotPart dumps and reloads one physical table
type snapshotPart struct {
	table string
	dump  func(tx *gorm.DB) (json.RawMessage, int, error)
	load  func(tx *gorm.DB, raw json.RawMessage) (int, error)
}

func partOf[M any](table string) snapshotPart {
	return snapshotPart{
		table: table,
		dump: func(tx *gorm.DB) (json.RawMessage, int, error) {
			rows := make([]M, 0)
			if err := tx.Find(&rows).Error; err != nil {
				return nil, 0, fmt.Errorf("read %s: %w", table, err)
			}
			raw, err := json.Marshal(rows)
			if err != nil {
				return nil, 0, fmt.Errorf("encode %s: %w", table, err)
			}
			return raw, len(rows), nil
		},
		load: func(tx *gorm.DB, raw json.RawMessage) (int, error) {
			var rows []M
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &rows); err != nil {
					return 0, fmt.Errorf("decode %s: %w", table, err)
				}
			}
			if err := tx.Where("1 = 1").Delete(new(M)).Error; err != nil {
				return 0, fmt.Errorf("clear %s: %w", table, err)
			}
			if len(rows) == 0 {
				return 0, nil
			}
			// Select("*") keeps false and zero values that carry a column default
			if err := tx.Select("*").CreateInBatches(rows, restoreBatchSize).Error; err != nil {
				return 0, fmt.Errorf("insert %s: %w", table, err)
			}
			return len(rows), nil
		},
	}
}

// snapshotParts maps snapshot tables to their physical tables; the first part is counted
var snapshotParts = map[string][]snapshotPart{
	backup.TableRoles: {
		partOf[models.RoleModel]("roles"),
		partOf[models.RolePermissionModel]("role_permissions"),
	},
	backup.TableUsers: {
		partOf[models.UserModel]("users"),
		partOf[models.UserRoleModel]("user_roles"),
	},
	backup.TablePrimRates:      {partOf[models.PrimRateModel]("prim_rates")},
	backup.TablePrimPeriods:    {partOf[models.PrimPeriodModel]("prim_periods")},
	backup.TablePaymentMethods: {partOf[models.PaymentMethodModel]("payment_methods")},
	backup.TableSystemSettings: {partOf[models.SystemSettingModel]("system_settings")},
	backup.TableSales:          {partOf[models.SaleModel]("sales")},
}

// GormSnapshotter implements backup table dumps and restores using GORM
type GormSnapshotter struct {
	db *gorm.DB
}

// NewGormSnapshotter creates a new GormSnapshotter
func NewGormSnapshotter(db *gorm.DB) *GormSnapshotter {
	return &GormSnapshotter{db: db}
}

// Dump reads every row of tables inside one transaction
func (s *GormSnapshotter) Dump(ctx context.Context, tables []string) (map[string]json.RawMessage, map[string]int, error) {
	data := make(map[string]json.RawMessage)
	counts := make(map[string]int, len(tables))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			parts, ok := snapshotParts[table]
			if !ok {
				return fmt.Errorf("unknown snapshot table %q", table)
			}
			for i, p := range parts {
				raw, n, err := p.dump(tx)
				if err != nil {
					return err
				}
				data[p.table] = raw
				if i == 0 {
					counts[table] = n
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return data, counts, nil
}

// Replace clears tables and inserts data inside one transaction.
// A physical table missing from data is left empty.
func (s *GormSnapshotter) Replace(ctx context.Context, tables []string, data map[string]json.RawMessage) (map[string]int, error) {
	counts := make(map[string]int, len(tables))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			parts, ok := snapshotParts[table]
			if !ok {
				return fmt.Errorf("unknown snapshot table %q", table)
			}
			for i, p := range parts {
				n, err := p.load(tx, data[p.table])
				if err != nil {
					return err
				}
				if i == 0 {
					counts[table] = n
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

var _ appbackup.Snapshotter = (*GormSnapshotter)(nil)
