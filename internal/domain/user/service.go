package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"scholarcrm/internal/database"
	"scholarcrm/internal/domain"
	jwtsvc "scholarcrm/internal/pkg/jwt"
)

// ActorCache keeps resolved actors close to the auth middleware.
type ActorCache interface {
	Get(ctx context.Context, uid string) (*domain.Actor, bool)
	Set(ctx context.Context, actor domain.Actor)
	Invalidate(ctx context.Context, uid string)
}

// ClientLinker re-points projects held by an unregistered email at a new account.
type ClientLinker interface {
	LinkUnregisteredClientTx(tx *gorm.DB, email, uid string) (int64, error)
}

// Service handles accounts, sign-up and actor resolution.
type Service struct {
	db     *gorm.DB
	repo   *Repository
	jwt    *jwtsvc.Service
	cache  ActorCache
	linker ClientLinker
	log    *slog.Logger
}

func NewService(db *gorm.DB, repo *Repository, jwt *jwtsvc.Service, cache ActorCache, linker ClientLinker) *Service {
	return &Service{
		db:     db,
		repo:   repo,
		jwt:    jwt,
		cache:  cache,
		linker: linker,
		log:    slog.Default().With("component", "user"),
	}
}

// Register creates a client or referral-partner account. A client signing up with a
// partner's referral code is attributed to that partner, and any project previously
// submitted under the client's email is moved to the new account in the same commit.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*UserProfile, error) {
	role := req.Role
	if role == "" {
		role = domain.RoleClient
	}
	if role != domain.RoleClient && role != domain.RoleReferralPartner {
		return nil, fmt.Errorf("self sign-up as %s: %w", role, domain.ErrUnauthorized)
	}

	u, err := s.newProfile(req.Name, req.Email, req.Password, req.Mobile, role)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.GetByEmail(ctx, u.Email); err == nil {
			return ErrEmailExists
		} else if !isNotFound(err) {
			return err
		}

		if code := strings.TrimSpace(req.ReferralCode); code != "" && role == domain.RoleClient {
			partner, err := repo.GetByReferralCode(ctx, code)
			if isNotFound(err) || (err == nil && !partner.IsPartner()) {
				return ErrInvalidReferralCode
			}
			if err != nil {
				return err
			}
			u.ReferredBy = partner.ReferralCode
		}

		if err := s.create(ctx, repo, u); err != nil {
			return err
		}

		if role == domain.RoleClient && s.linker != nil {
			n, err := s.linker.LinkUnregisteredClientTx(tx.WithContext(ctx), u.Email, u.UID)
			if err != nil {
				return err
			}
			if n > 0 {
				s.log.Info("linked unregistered projects", "uid", u.UID, "projects", n)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", "uid", u.UID, "role", u.Role)
	return u, nil
}

// CreateStaff provisions an account of any role. Admin only.
func (s *Service) CreateStaff(ctx context.Context, actor domain.Actor, req *CreateStaffRequest) (*UserProfile, error) {
	if !actor.Is(domain.RoleAdmin) {
		return nil, domain.ErrUnauthorized
	}
	if !req.Role.Valid() {
		return nil, fmt.Errorf("role %q: %w", req.Role, domain.ErrValidation)
	}

	u, err := s.newProfile(req.Name, req.Email, req.Password, req.Mobile, req.Role)
	if err != nil {
		return nil, err
	}
	u.CommissionRate = req.CommissionRate

	if _, err := s.repo.GetByEmail(ctx, u.Email); err == nil {
		return nil, ErrEmailExists
	} else if !isNotFound(err) {
		return nil, err
	}

	if err := s.create(ctx, s.repo, u); err != nil {
		return nil, err
	}

	s.log.Info("staff account created", "uid", u.UID, "role", u.Role, "by", actor.UID)
	return u, nil
}

// Login verifies credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *UserProfile, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(u.UID, string(u.Role))
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (s *Service) GetByID(ctx context.Context, uid string) (*UserProfile, error) {
	return s.repo.GetByID(ctx, uid)
}

func (s *Service) ListByRole(ctx context.Context, role domain.Role) ([]*UserProfile, error) {
	return s.repo.ListByRole(ctx, role)
}

// ResolveActor returns the caller's current role, preferring the cache.
func (s *Service) ResolveActor(ctx context.Context, uid string) (domain.Actor, error) {
	if s.cache != nil {
		if a, ok := s.cache.Get(ctx, uid); ok {
			return *a, nil
		}
	}

	u, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return domain.Actor{}, err
	}

	actor := u.Actor()
	if s.cache != nil {
		s.cache.Set(ctx, actor)
	}
	return actor, nil
}

// UpdateCommissionRate changes a partner's default per-deal commission. Admin only.
// Projects with an explicit commission override are unaffected.
func (s *Service) UpdateCommissionRate(ctx context.Context, actor domain.Actor, partnerID string, rate int64) (*UserProfile, error) {
	if !actor.Is(domain.RoleAdmin) {
		return nil, domain.ErrUnauthorized
	}
	if rate < 0 {
		return nil, fmt.Errorf("commission rate %d: %w", rate, domain.ErrValidation)
	}

	u, err := s.repo.GetByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if !u.IsPartner() {
		return nil, ErrNotPartner
	}

	if err := s.repo.UpdateCommissionRate(ctx, partnerID, rate); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, partnerID)
	}

	u.CommissionRate = rate
	s.log.Info("partner commission rate updated", "partner", partnerID, "rate", rate, "by", actor.UID)
	return u, nil
}

func (s *Service) newProfile(name, email, password, mobile string, role domain.Role) (*UserProfile, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &UserProfile{
		Role:         role,
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: string(hash),
	}
	if m := strings.TrimSpace(mobile); m != "" {
		u.Mobile = &m
	}
	return u, nil
}

var (
	emailKey        = database.UniqueKey{Index: "idx_users_email", Column: "users.email"}
	referralCodeKey = database.UniqueKey{Index: "idx_users_referral_code", Column: "users.referral_code"}
)

// create inserts u, minting a referral code for partners.
func (s *Service) create(ctx context.Context, repo *Repository, u *UserProfile) error {
	if u.IsPartner() && u.ReferralCode == nil {
		code := NewReferralCode()
		u.ReferralCode = &code
	}
	if err := repo.Create(ctx, u); err != nil {
		switch {
		case database.IsUniqueViolation(err, emailKey):
			return ErrEmailExists
		case database.IsUniqueViolation(err, referralCodeKey):
			return fmt.Errorf("referral code %s already issued: %w", *u.ReferralCode, domain.ErrValidation)
		}
		return err
	}
	return nil
}
