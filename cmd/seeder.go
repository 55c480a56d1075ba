package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frahmantamala/access-management/internal/core/datamodel"
	"github.com/frahmantamala/access-management/internal/permission"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with default roles and permissions",
	Long:  `Seed the database with the default role set and baseline permissions. Safe to run repeatedly.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlxDB.Close()

		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if err := seed(db); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
		fmt.Println("seed complete")
	},
}

var defaultRoles = []datamodel.Role{
	{Code: permission.RoleSuperAdmin, Name: "Super Administrator", Description: "Bypasses all permission checks", Level: 100, IsSystem: true, Status: datamodel.StatusActive},
	{Code: permission.RoleAdmin, Name: "Administrator", Description: "Full access to the management surface", Level: 50, IsSystem: true, Status: datamodel.StatusActive},
	{Code: "user", Name: "User", Description: "Default role for registered accounts", Level: 1, IsSystem: true, Status: datamodel.StatusActive},
}

var baselineModules = []string{"user", "role", "permission", "menu"}

var baselineActions = []string{
	permission.ActionCreate,
	permission.ActionRead,
	permission.ActionUpdate,
	permission.ActionDelete,
}

func seed(db *gorm.DB) error {
	roles := make(map[string]*datamodel.Role, len(defaultRoles))
	for i := range defaultRoles {
		r := defaultRoles[i]
		if err := db.Where(datamodel.Role{Code: r.Code}).FirstOrCreate(&r).Error; err != nil {
			return fmt.Errorf("role %s: %w", r.Code, err)
		}
		roles[r.Code] = &r
		fmt.Println("ensured role:", r.Code)
	}

	var adminPerms []datamodel.Permission
	for _, module := range baselineModules {
		for _, action := range baselineActions {
			p := datamodel.Permission{
				Code:     permission.GenerateCode(module, action),
				Name:     module + " " + action,
				Module:   module,
				Action:   action,
				Status:   datamodel.StatusActive,
				IsSystem: true,
			}
			if err := db.Where(datamodel.Permission{Code: p.Code}).FirstOrCreate(&p).Error; err != nil {
				return fmt.Errorf("permission %s: %w", p.Code, err)
			}
			adminPerms = append(adminPerms, p)
		}
	}
	fmt.Printf("ensured %d baseline permissions\n", len(adminPerms))

	// The super admin bypasses checks entirely, so only the admin role needs
	// the explicit grants.
	if err := db.Model(roles[permission.RoleAdmin]).Association("Permissions").Replace(adminPerms); err != nil {
		return fmt.Errorf("grant admin permissions: %w", err)
	}
	fmt.Println("granted baseline permissions to role:", permission.RoleAdmin)

	return seedSuperAdminUser(db, roles[permission.RoleSuperAdmin])
}

// seedSuperAdminUser creates the bootstrap account once; an operator is
// expected to change the password immediately.
func seedSuperAdminUser(db *gorm.DB, superAdmin *datamodel.Role) error {
	var count int64
	if err := db.Model(&datamodel.User{}).Where("username = ?", "admin").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		fmt.Println("bootstrap admin user already exists")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := datamodel.User{
		Username:     "admin",
		Nickname:     "Administrator",
		Email:        "admin@localhost",
		PasswordHash: string(hash),
		Status:       datamodel.StatusActive,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	if err := db.Model(&admin).Association("Roles").Replace([]datamodel.Role{*superAdmin}); err != nil {
		return fmt.Errorf("assign super admin role: %w", err)
	}
	fmt.Println("created bootstrap admin user (password: changeme)")
	return nil
}
