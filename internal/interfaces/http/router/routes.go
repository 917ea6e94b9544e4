package router

import (
	"github.com/gin-gonic/gin"

	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/interfaces/http/handler"
	mw "github.com/salescrm/backend/internal/interfaces/http/middleware"
)

// Handlers bundles every API handler
type Handlers struct {
	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	Roles         *handler.RoleHandler
	Sales         *handler.SaleHandler
	Prims         *handler.PrimHandler
	Comms         *handler.CommunicationHandler
	Announcements *handler.AnnouncementHandler
	Activities    *handler.ActivityHandler
	Payments      *handler.PaymentMethodHandler
	Settings      *handler.SettingHandler
	Import        *handler.SalesImportHandler
	Backups       *handler.BackupHandler
}

// Groups builds the API route table. Authentication is applied by the caller
// on the base group; per-route permissions are declared here. loginLimit
// guards login and refresh and may be nil.
func Groups(h Handlers, loginLimit gin.HandlerFunc) []RouteRegistrar {
	limited := func(next gin.HandlerFunc) []gin.HandlerFunc {
		if loginLimit == nil {
			return []gin.HandlerFunc{next}
		}
		return []gin.HandlerFunc{loginLimit, next}
	}

	auth := NewDomainGroup("auth", "/auth")
	auth.POST("/login", limited(h.Auth.Login)...)
	auth.POST("/refresh", limited(h.Auth.RefreshToken)...)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", h.Auth.GetCurrentUser)
	auth.PUT("/password", h.Auth.ChangePassword)

	manageUsers := mw.RequirePermission(identity.PermUsersManage)
	users := NewDomainGroup("users", "/users")
	users.GET("", mw.RequirePermission(identity.PermUsersRead), h.Users.List)
	users.GET("/salespeople", mw.RequireAnyPermission(identity.PermSalesRead, identity.PermUsersRead, identity.PermCommReadAll), h.Users.Salespeople)
	users.GET("/:id", mw.RequirePermission(identity.PermUsersRead), h.Users.Get)
	users.POST("", manageUsers, h.Users.Create)
	users.PUT("/:id", manageUsers, h.Users.Update)
	users.PUT("/:id/roles", manageUsers, h.Users.SetRoles)
	users.PATCH("/:id/status", manageUsers, h.Users.SetStatus)
	users.POST("/:id/reset-password", manageUsers, h.Users.ResetPassword)
	users.DELETE("/:id", manageUsers, h.Users.Delete)

	manageRoles := mw.RequirePermission(identity.PermRolesManage)
	roles := NewDomainGroup("roles", "/roles")
	roles.GET("/permissions", manageRoles, h.Roles.Permissions)
	roles.GET("", mw.RequireAnyPermission(identity.PermRolesManage, identity.PermUsersManage), h.Roles.List)
	roles.GET("/:id", manageRoles, h.Roles.Get)
	roles.POST("", manageRoles, h.Roles.Create)
	roles.PUT("/:id", manageRoles, h.Roles.Update)
	roles.PATCH("/:id/toggle", manageRoles, h.Roles.ToggleActive)
	roles.PATCH("/:id/permissions", manageRoles, h.Roles.TogglePermission)
	roles.DELETE("/:id", manageRoles, h.Roles.Delete)

	readSales := mw.RequirePermission(identity.PermSalesRead)
	updateSales := mw.RequirePermission(identity.PermSalesUpdate)
	sales := NewDomainGroup("sales", "/sales")
	sales.GET("", readSales, h.Sales.List)
	sales.GET("/export", mw.RequirePermission(identity.PermSalesExport), h.Sales.Export)
	sales.GET("/:id", readSales, h.Sales.Get)
	sales.POST("", mw.RequirePermission(identity.PermSalesCreate), h.Sales.Create)
	sales.PUT("/:id", updateSales, h.Sales.Update)
	sales.PUT("/:id/cancel", updateSales, h.Sales.Cancel)
	sales.PUT("/:id/restore", updateSales, h.Sales.Restore)
	sales.PUT("/:id/prim-status", mw.RequirePermission(identity.PermSalesPrimStatus), h.Sales.SetPrimStatus)
	sales.PUT("/:id/convert", updateSales, h.Sales.Convert)
	sales.PUT("/:id/transfer", mw.RequirePermission(identity.PermSalesTransfer), h.Sales.Transfer)
	sales.PUT("/:id/notes", updateSales, h.Sales.SetNotes)
	sales.DELETE("/:id", mw.RequirePermission(identity.PermSalesDelete), h.Sales.Delete)

	readPrims := mw.RequirePermission(identity.PermPrimsRead)
	managePrims := mw.RequirePermission(identity.PermPrimsManage)
	prims := NewDomainGroup("prims", "/prims")
	prims.GET("/rate", readPrims, h.Prims.GetCurrentRate)
	prims.GET("/rates", readPrims, h.Prims.ListRates)
	prims.POST("/rate", managePrims, h.Prims.SetRate)
	prims.GET("/periods", mw.RequireAnyPermission(identity.PermPrimsRead, identity.PermSalesRead), h.Prims.ListPeriods)
	prims.POST("/periods", managePrims, h.Prims.CreatePeriod)
	prims.PATCH("/periods/:id/toggle", managePrims, h.Prims.TogglePeriod)
	prims.GET("/earnings", readPrims, h.Prims.Earnings)

	readComms := mw.RequireAnyPermission(identity.PermCommRead, identity.PermCommReadAll)
	manageComms := mw.RequirePermission(identity.PermCommManage)
	managePenalties := mw.RequirePermission(identity.PermPenaltiesManage)
	comms := NewDomainGroup("communications", "/communications")
	comms.POST("/daily", readComms, h.Comms.SaveDaily)
	comms.GET("/daily", readComms, h.Comms.GetDaily)
	comms.GET("/records", readComms, h.Comms.ListRecords)
	comms.GET("/report", readComms, h.Comms.Report)
	comms.GET("/years", readComms, h.Comms.ListYears)
	comms.POST("/years", manageComms, h.Comms.CreateYear)
	comms.PUT("/years/:year", manageComms, h.Comms.UpdateYear)
	comms.GET("/penalties", readComms, h.Comms.ListPenalties)
	comms.GET("/penalties/summary", readComms, h.Comms.PenaltySummary)
	comms.POST("/penalties", managePenalties, h.Comms.AddPenalty)
	comms.PUT("/penalties/:id/cancel", managePenalties, h.Comms.CancelPenalty)
	comms.POST("/check-quota", manageComms, h.Comms.CheckQuota)

	manageAnnouncements := mw.RequirePermission(identity.PermAnnounceManage)
	announcements := NewDomainGroup("announcements", "/announcements")
	announcements.GET("", h.Announcements.ListVisible)
	announcements.GET("/all", manageAnnouncements, h.Announcements.ListAll)
	announcements.GET("/unread-count", h.Announcements.UnreadCount)
	announcements.POST("/read-all", h.Announcements.MarkAllRead)
	announcements.POST("", manageAnnouncements, h.Announcements.Create)
	announcements.PUT("/:id", manageAnnouncements, h.Announcements.Update)
	announcements.PATCH("/:id/toggle", manageAnnouncements, h.Announcements.Toggle)
	announcements.DELETE("/:id", manageAnnouncements, h.Announcements.Delete)
	announcements.POST("/:id/read", h.Announcements.MarkRead)

	activities := NewDomainGroup("activities", "/activities")
	activities.GET("", mw.RequirePermission(identity.PermActivitiesRead), h.Activities.List)
	activities.GET("/recent", mw.RequirePermission(identity.PermActivitiesRead), h.Activities.Recent)
	activities.DELETE("/cleanup", mw.RequirePermission(identity.PermActivitiesManage), h.Activities.Cleanup)

	managePayments := mw.RequirePermission(identity.PermPaymentManage)
	payments := NewDomainGroup("payment-methods", "/payment-methods")
	payments.GET("", h.Payments.List)
	payments.GET("/:id", h.Payments.Get)
	payments.POST("", managePayments, h.Payments.Create)
	payments.PUT("/:id", managePayments, h.Payments.Update)
	payments.PATCH("/:id/toggle", managePayments, h.Payments.Toggle)
	payments.PATCH("/:id/default", managePayments, h.Payments.SetDefault)
	payments.DELETE("/:id", managePayments, h.Payments.Delete)

	settings := NewDomainGroup("system-settings", "/system-settings").
		Use(mw.RequirePermission(identity.PermSettingsManage))
	settings.GET("", h.Settings.List)
	settings.GET("/:key", h.Settings.Get)
	settings.PUT("/:key", h.Settings.Set)
	settings.DELETE("/:key", h.Settings.Delete)

	imports := NewDomainGroup("sales-import", "/sales-import").
		Use(mw.RequirePermission(identity.PermSalesImport))
	imports.GET("/template", h.Import.Template)
	imports.POST("/upload", h.Import.Upload)
	imports.GET("/history", h.Import.History)
	imports.POST("/rollback", h.Import.Rollback)

	migration := NewDomainGroup("migration", "/migration").
		Use(mw.RequirePermission(identity.PermMigrationRun))
	migration.GET("/status", h.Import.MigrationStatus)
	migration.POST("/run", h.Import.RunMigration)
	migration.POST("/historical", h.Import.UploadHistorical)

	backups := NewDomainGroup("backups", "/backups").
		Use(mw.RequirePermission(identity.PermBackupsManage))
	backups.GET("", h.Backups.List)
	backups.GET("/:id", h.Backups.Get)
	backups.POST("", h.Backups.Create)
	backups.GET("/:id/download", h.Backups.Download)
	backups.POST("/:id/restore", h.Backups.Restore)
	backups.DELETE("/:id", h.Backups.Delete)

	return []RouteRegistrar{
		auth, users, roles, sales, prims, comms, announcements,
		activities, payments, settings, imports, migration, backups,
	}
}
