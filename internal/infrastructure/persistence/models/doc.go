// Package models contains GORM persistence models that map to database tables.
// Domain entities stay free of GORM tags; each model converts with ToDomain and
// FromDomain, and repositories only talk to the database through these models.
//
// Files:
//   - base.go: shared id/timestamp/version columns
//   - identity.go: users, user_roles, roles, role_permissions
//   - sales.go: sales
//   - prim.go: prim_rates, prim_periods
//   - communication.go: communication_records, communication_years, penalty_records
//   - announcement.go: announcements, announcement_reads
//   - activity.go: activity_logs
//   - settings.go: payment_methods, system_settings
//   - bulk.go: import_batches, backups
package models
