package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"scholarcrm/internal/app"
	"scholarcrm/internal/config"
	"scholarcrm/internal/domain"
	"scholarcrm/internal/domain/lead"
	"scholarcrm/internal/domain/user"
)

const seedPassword = "password123"

type account struct {
	email string
	name  string
	role  domain.Role
	code  string
	rate  int64
}

var accounts = []account{
	{email: "admin@scholarcrm.local", name: "Admin", role: domain.RoleAdmin},
	{email: "manager@scholarcrm.local", name: "Sales Manager", role: domain.RoleSalesManager},
	{email: "sales@scholarcrm.local", name: "Sales Rep", role: domain.RoleSalesTeam},
	{email: "writer@scholarcrm.local", name: "Writer", role: domain.RoleWritingTeam},
	{email: "partner@scholarcrm.local", name: "Referral Partner", role: domain.RoleReferralPartner, code: "PARTNER1", rate: 5000},
	{email: "client@scholarcrm.local", name: "Client", role: domain.RoleClient},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	if cfg.IsProdLike() {
		slog.Error("refusing to seed a production database", "env", cfg.AppEnv)
		os.Exit(1)
	}

	ctx := context.Background()
	a, err := app.Open(ctx, cfg)
	if err != nil {
		slog.Error("startup", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	slog.Info("cleaning old data")
	for _, table := range []string{"email_outbox", "payouts", "tasks", "projects", "leads", "users"} {
		if err := a.DB.Exec("DELETE FROM " + table).Error; err != nil {
			slog.Error("clean", "table", table, "error", err)
			os.Exit(1)
		}
	}

	// ================== USERS ==================
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("hash password", "error", err)
		os.Exit(1)
	}

	byRole := map[domain.Role]*user.UserProfile{}
	for _, acc := range accounts {
		u := &user.UserProfile{
			Role:           acc.role,
			Name:           acc.name,
			Email:          acc.email,
			PasswordHash:   string(hash),
			CommissionRate: acc.rate,
		}
		if acc.code != "" {
			code := acc.code
			u.ReferralCode = &code
		}
		if acc.role == domain.RoleClient {
			code := "PARTNER1"
			u.ReferredBy = &code
		}
		if err := a.DB.Create(u).Error; err != nil {
			slog.Error("create user", "email", acc.email, "error", err)
			os.Exit(1)
		}
		byRole[acc.role] = u
		slog.Info("user created", "email", acc.email, "role", acc.role, "password", seedPassword)
	}

	// ================== LEADS ==================
	partner := byRole[domain.RoleReferralPartner].Actor()
	sales := byRole[domain.RoleSalesTeam].Actor()

	if _, err := a.Leads.Submit(ctx, &lead.SubmitLeadRequest{
		Name: "Website Visitor", Email: "visitor@example.com", Phone: "+91 90000 00001", ServiceType: "dissertation",
	}); err != nil {
		slog.Error("website lead", "error", err)
		os.Exit(1)
	}

	referred, err := a.Leads.SubmitReferral(ctx, partner, &lead.SubmitLeadRequest{
		Name: "A. Kumar", Email: "a.kumar@example.com", Phone: "+91 90000 00002", ServiceType: "thesis",
	})
	if err != nil {
		slog.Error("referral lead", "error", err)
		os.Exit(1)
	}

	advance := int64(20000)
	_, p, err := a.Leads.Convert(ctx, sales, referred.ID, lead.DealTerms{
		Title:           "PhD Thesis",
		DealAmount:      50000,
		AdvanceReceived: &advance,
		FinalDeadline:   time.Now().AddDate(0, 3, 0).UTC(),
	})
	if err != nil {
		slog.Error("convert lead", "error", err)
		os.Exit(1)
	}

	slog.Info("seed completed", "users", len(accounts), "converted_project", p.ID)
}
