// Package seed fills an empty database with the default accounts and the
// EMS starter inventory. Running it again only adds what is missing.
package seed

import (
	"context"
	"errors"
	"log"

	"ems-inventory/internal/apperr"
	"ems-inventory/internal/auth"
	"ems-inventory/internal/ledger"
	"ems-inventory/internal/models"

	"gorm.io/gorm"
)

const (
	DefaultAdminUsername   = "admin"
	DefaultAdminPassword   = "admin123"
	DefaultManagerPassword = "password123"
)

var actor = ledger.Actor{Name: "seed"}

type Options struct {
	AdminUsername   string
	AdminPassword   string
	ManagerPassword string
	SkipUsage       bool
}

type Report struct {
	Users        int
	Categories   int
	Supplies     int
	Transactions int
}

func Run(ctx context.Context, db *gorm.DB, e *ledger.Engine, opts Options) (*Report, error) {
	if opts.AdminUsername == "" {
		opts.AdminUsername = DefaultAdminUsername
	}
	if opts.AdminPassword == "" {
		opts.AdminPassword = DefaultAdminPassword
		log.Println("[WARN] seeding admin with the default password, change it before going live")
	}
	if opts.ManagerPassword == "" {
		opts.ManagerPassword = DefaultManagerPassword
	}

	rep := &Report{}
	users := append([]userSeed{{Username: opts.AdminUsername, FullName: "System Administrator", Role: models.RoleAdmin}}, managers...)
	for _, u := range users {
		password := opts.ManagerPassword
		if u.Role == models.RoleAdmin {
			password = opts.AdminPassword
		}
		created, err := ensureUser(ctx, db, u, password)
		if err != nil {
			return rep, err
		}
		if created {
			rep.Users++
		}
	}

	catIDs := make(map[string]uint, len(categories))
	for _, name := range categories {
		var cat models.Category
		err := db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&cat).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c, cerr := e.CreateCategory(ctx, name, actor)
			if cerr != nil {
				return rep, cerr
			}
			cat = *c
			rep.Categories++
		} else if err != nil {
			return rep, apperr.Storage(err, "Category")
		}
		catIDs[name] = cat.ID
	}

	var existing int64
	if err := db.WithContext(ctx).Model(&models.Supply{}).Count(&existing).Error; err != nil {
		return rep, apperr.Storage(err, "Supply")
	}

	supplyIDs := make(map[string]uint, len(supplies))
	for _, s := range supplies {
		var sup models.Supply
		err := db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", s.Name).First(&sup).Error
		if err == nil {
			supplyIDs[s.Name] = sup.ID
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return rep, apperr.Storage(err, "Supply")
		}

		qty, threshold := s.Quantity, s.Threshold
		created, err := e.CreateSupply(ctx, ledger.SupplyInput{
			Name:            s.Name,
			CategoryID:      catIDs[s.Category],
			CurrentQuantity: &qty,
			MinThreshold:    &threshold,
			Unit:            s.Unit,
		}, actor)
		if err != nil {
			return rep, err
		}
		supplyIDs[s.Name] = created.ID
		rep.Supplies++
	}

	if existing == 0 && !opts.SkipUsage {
		for _, u := range sampleUsage {
			_, err := e.ApplyDelta(ctx, ledger.Delta{
				SupplyID: supplyIDs[u.Supply],
				Change:   u.Change,
				Kind:     u.Kind,
				Actor:    u.Employee,
				Notes:    "Sample data",
			})
			if err != nil {
				return rep, err
			}
			rep.Transactions++
		}
	}

	log.Printf("[INFO] seed complete: %d users, %d categories, %d supplies, %d sample transactions",
		rep.Users, rep.Categories, rep.Supplies, rep.Transactions)
	return rep, nil
}

func ensureUser(ctx context.Context, db *gorm.DB, u userSeed, password string) (bool, error) {
	var n int64
	if err := db.WithContext(ctx).Model(&models.User{}).Where("username = ?", u.Username).Count(&n).Error; err != nil {
		return false, apperr.Storage(err, "User")
	}
	if n > 0 {
		return false, nil
	}
	_, err := auth.CreateUser(db.WithContext(ctx), auth.NewUser{
		Username: u.Username,
		Password: password,
		FullName: u.FullName,
		Role:     u.Role,
	})
	return err == nil, err
}
