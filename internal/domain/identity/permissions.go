package identity

import (
	"sort"
	"strings"

	"github.com/salescrm/backend/internal/domain/shared"
)

// Permission codes follow the resource:action pattern
const (
	PermSalesRead        = "sales:read"
	PermSalesReadAll     = "sales:read_all"
	PermSalesCreate      = "sales:create"
	PermSalesUpdate      = "sales:update"
	PermSalesDelete      = "sales:delete"
	PermSalesTransfer    = "sales:transfer"
	PermSalesPrimStatus  = "sales:prim_status"
	PermSalesExport      = "sales:export"
	PermSalesImport      = "sales:import"
	PermPrimsRead        = "prims:read"
	PermPrimsManage      = "prims:manage"
	PermUsersRead        = "users:read"
	PermUsersManage      = "users:manage"
	PermRolesManage      = "roles:manage"
	PermAnnounceManage   = "announcements:manage"
	PermCommRead         = "communications:read"
	PermCommReadAll      = "communications:read_all"
	PermCommManage       = "communications:manage"
	PermPenaltiesManage  = "penalties:manage"
	PermActivitiesRead   = "activities:read"
	PermActivitiesManage = "activities:manage"
	PermPaymentManage    = "payment_methods:manage"
	PermSettingsManage   = "settings:manage"
	PermBackupsManage    = "backups:manage"
	PermMigrationRun     = "migration:run"
)

// PermissionInfo describes one toggle of the role editor
type PermissionInfo struct {
	Code        string `json:"code"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

var permissionCatalog = map[string]string{
	PermSalesRead:        "Kendi satışlarını görüntüleme",
	PermSalesReadAll:     "Tüm satışları görüntüleme",
	PermSalesCreate:      "Satış ekleme",
	PermSalesUpdate:      "Satış düzenleme, iptal ve kapora dönüştürme",
	PermSalesDelete:      "Satış silme",
	PermSalesTransfer:    "Satışı başka temsilciye aktarma",
	PermSalesPrimStatus:  "Prim ödeme durumunu değiştirme",
	PermSalesExport:      "Satışları Excel'e aktarma",
	PermSalesImport:      "Excel ile satış içe aktarma ve geri alma",
	PermPrimsRead:        "Prim oranı ve hakedişleri görüntüleme",
	PermPrimsManage:      "Prim oranı ve dönem yönetimi",
	PermUsersRead:        "Kullanıcıları görüntüleme",
	PermUsersManage:      "Kullanıcı yönetimi",
	PermRolesManage:      "Rol ve yetki yönetimi",
	PermAnnounceManage:   "Duyuru yönetimi",
	PermCommRead:         "Kendi iletişim kayıtlarını görüntüleme",
	PermCommReadAll:      "Tüm iletişim kayıtlarını ve raporları görüntüleme",
	PermCommManage:       "İletişim yılı ve kota ayarları",
	PermPenaltiesManage:  "Ceza puanı ekleme ve iptal etme",
	PermActivitiesRead:   "Sistem aktivitelerini görüntüleme",
	PermActivitiesManage: "Eski aktiviteleri temizleme",
	PermPaymentManage:    "Ödeme yöntemi yönetimi",
	PermSettingsManage:   "Sistem ayarları yönetimi",
	PermBackupsManage:    "Yedekleme ve geri yükleme",
	PermMigrationRun:     "Veri taşıma işlemleri",
}

// IsKnownPermission reports whether code is in the permission catalogue
func IsKnownPermission(code string) bool {
	_, ok := permissionCatalog[code]
	return ok
}

// AllPermissionCodes returns every permission code, sorted
func AllPermissionCodes() []string {
	codes := make([]string, 0, len(permissionCatalog))
	for code := range permissionCatalog {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// PermissionCatalog returns the catalogue sorted by code
func PermissionCatalog() []PermissionInfo {
	codes := AllPermissionCodes()
	infos := make([]PermissionInfo, 0, len(codes))
	for _, code := range codes {
		resource, action, _ := strings.Cut(code, ":")
		infos = append(infos, PermissionInfo{
			Code:        code,
			Resource:    resource,
			Action:      action,
			Description: permissionCatalog[code],
		})
	}
	return infos
}

// NormalizePermissions trims, lowercases and deduplicates codes, rejecting unknown ones
func NormalizePermissions(codes []string) ([]string, error) {
	seen := make(map[string]bool, len(codes))
	result := make([]string, 0, len(codes))
	for _, raw := range codes {
		code := strings.ToLower(strings.TrimSpace(raw))
		if code == "" {
			continue
		}
		if !IsKnownPermission(code) {
			return nil, shared.NewDomainError("INVALID_PERMISSION", "Bilinmeyen yetki: "+raw)
		}
		if !seen[code] {
			seen[code] = true
			result = append(result, code)
		}
	}
	sort.Strings(result)
	return result, nil
}
