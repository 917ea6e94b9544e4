package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salescrm/backend/internal/domain/bulk"
	"github.com/salescrm/backend/internal/domain/sales"
)

func (m *SaleModel) AfterFind(tx *gorm.DB) error {
	reportCorruptJSON(tx, m.ID, jsonColumn{"transfers", m.Transfers, &[]sales.Transfer{}})
	return nil
}

func (m *ActivityLogModel) AfterFind(tx *gorm.DB) error {
	reportCorruptJSON(tx, m.ID, jsonColumn{"metadata", m.Metadata, &map[string]any{}})
	return nil
}

func (m *ImportBatchModel) AfterFind(tx *gorm.DB) error {
	reportCorruptJSON(tx, m.ID,
		jsonColumn{"error_details", m.ErrorDetails, &[]bulk.ErrorDetail{}},
		jsonColumn{"created_sale_ids", m.CreatedSaleIDs, &[]uuid.UUID{}},
	)
	return nil
}

func (m *BackupModel) AfterFind(tx *gorm.DB) error {
	reportCorruptJSON(tx, m.ID,
		jsonColumn{"tables", m.Tables, &[]string{}},
		jsonColumn{"record_counts", m.RecordCounts, &map[string]int{}},
	)
	return nil
}

func (m *CommunicationYearModel) AfterFind(tx *gorm.DB) error {
	reportCorruptJSON(tx, m.ID, jsonColumn{"monthly_targets", m.MonthlyTargets, &map[int]int{}})
	return nil
}
