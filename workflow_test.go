package main_test

import (
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apperrors "github.com/blitztech/access-management/internal"
	"github.com/blitztech/access-management/internal/approval"
	approvalPostgres "github.com/blitztech/access-management/internal/approval/postgres"
	"github.com/blitztech/access-management/internal/audit"
	auditPostgres "github.com/blitztech/access-management/internal/audit/postgres"
	"github.com/blitztech/access-management/internal/core/common/validation"
	approvalDatamodel "github.com/blitztech/access-management/internal/core/datamodel/approval"
	auditDatamodel "github.com/blitztech/access-management/internal/core/datamodel/audit"
	profileDatamodel "github.com/blitztech/access-management/internal/core/datamodel/profile"
	userDatamodel "github.com/blitztech/access-management/internal/core/datamodel/user"
	"github.com/blitztech/access-management/internal/core/events"
	coreuser "github.com/blitztech/access-management/internal/core/user"
	"github.com/blitztech/access-management/internal/policy"
	"github.com/blitztech/access-management/internal/profile"
	profilePostgres "github.com/blitztech/access-management/internal/profile/postgres"
	"github.com/blitztech/access-management/internal/user"
	userPostgres "github.com/blitztech/access-management/internal/user/postgres"
)

// Wires the real services over an in-memory database and walks the
// whole customer journey: register, complete the profile, request crm
// access, review, enter.
var _ = Describe("Access approval workflow", func() {
	var (
		db              *gorm.DB
		auditService    *audit.Service
		profileService  *profile.Service
		approvalService *approval.Service
		engine          *policy.Engine
		reviewer        *coreuser.User
	)

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		err = db.AutoMigrate(
			&userDatamodel.User{},
			&profileDatamodel.Profile{},
			&approvalDatamodel.ApprovalRequest{},
			&auditDatamodel.SecurityEvent{},
		)
		Expect(err).NotTo(HaveOccurred())

		err = db.Exec(`CREATE UNIQUE INDEX idx_approval_requests_single_pending
			ON approval_requests (user_id, request_type)
			WHERE status = 'pending'`).Error
		Expect(err).NotTo(HaveOccurred())

		logger := slog.Default()
		cfg := apperrors.PolicyConfig{
			PasswordBlocklist:    apperrors.DefaultPasswordBlocklist(),
			KeyboardPatterns:     apperrors.DefaultKeyboardPatterns(),
			BlockedEmailDomains:  apperrors.DefaultBlockedEmailDomains(),
			EmployeeEmailDomains: []string{"blitztechelectronics.co.zw"},
		}

		auditRepo := auditPostgres.NewAuditRepository(db)
		userRepo := userPostgres.NewUserRepository(db)
		profileRepo := profilePostgres.NewProfileRepository(db)
		approvalRepo := approvalPostgres.NewApprovalRepository(db)

		auditService = audit.NewService(auditRepo, logger)
		userService := user.NewService(userRepo)
		profileService = profile.NewService(
			profileRepo, userRepo, auditService,
			validation.NewPasswordPolicy(cfg),
			validation.NewPhonePolicy("263"),
			validation.NewEmailPolicy(cfg),
			bcrypt.MinCost, logger,
		)
		approvalService = approval.NewService(
			approvalRepo, profileService, userService,
			auditService, events.NewEventBus(logger), logger,
		)
		engine = policy.NewEngine()

		reviewer = &coreuser.User{
			ID: 1000, Username: "admin", FirstName: "Rudo", LastName: "Ncube",
			IsActive: true, IsStaff: true,
		}
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	It("takes a customer from registration to crm access", func() {
		// Registration starts with shop only and an incomplete profile.
		account, p, err := profileService.Register(profile.RegisterRequestDTO{
			Username: "tariro",
			Email:    "tariro@example.com",
			Password: "Vh&k92mXp!",
		}, "196.201.5.10", "e2e")
		Expect(err).NotTo(HaveOccurred())
		Expect(p.IsApprovedFor(profile.AreaShop)).To(BeTrue())
		Expect(p.IsApprovedFor(profile.AreaCRM)).To(BeFalse())
		Expect(engine.CheckAccess(p, profile.AreaShop).Allowed).To(BeTrue())
		Expect(engine.CheckAccess(p, profile.AreaCRM).Reason).To(Equal(policy.ReasonNotApproved))

		// Completing the contact fields flips the completeness flag.
		firstName, lastName := "Tariro", "Moyo"
		phone, address := "+263771234567", "12 Samora Machel Ave"
		_, err = profileService.UpdateProfile(account.ID, profile.UpdateProfileRequestDTO{
			FirstName: &firstName,
			LastName:  &lastName,
			Phone:     &phone,
			Address:   &address,
		}, "196.201.5.10", "e2e")
		Expect(err).NotTo(HaveOccurred())

		complete, err := profileService.CheckProfileCompletion(account.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(complete).To(BeTrue())

		// Still no crm access: completeness alone is not approval.
		p, err = profileService.GetByUserID(account.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(engine.CheckAccess(p, profile.AreaCRM).Reason).To(Equal(policy.ReasonNotApproved))

		// The customer petitions for crm access.
		request, err := approvalService.CreateRequest(account.ID, approval.CreateRequestDTO{
			RequestType:     "crm",
			RequestedReason: "need wholesale pricing for my shop",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(request.Status).To(Equal(approval.StatusPending))

		// A second identical petition is refused while the first is open.
		_, err = approvalService.CreateRequest(account.ID, approval.CreateRequestDTO{
			RequestType:     "crm",
			RequestedReason: "asking again",
		})
		Expect(err).To(MatchError(apperrors.ErrDuplicatePendingRequest))

		// The reviewer approves.
		decided, err := approvalService.ApproveRequest(request.ID, reviewer, approval.DecideRequestDTO{
			Notes: "trade references verified",
		}, "10.0.0.1", "e2e")
		Expect(err).NotTo(HaveOccurred())
		Expect(decided.Status).To(Equal(approval.StatusApproved))
		Expect(decided.ReviewedBy).To(HaveValue(Equal(reviewer.ID)))

		// The profile now carries the grant and the engine lets the user in.
		p, err = profileService.GetByUserID(account.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.IsApprovedFor(profile.AreaCRM)).To(BeTrue())
		Expect(p.CanAccessCRM()).To(BeTrue())
		Expect(engine.CheckAccess(p, profile.AreaCRM).Allowed).To(BeTrue())

		// The grant left an approval_granted entry on the audit trail.
		trail, err := auditService.ListByUser(account.ID, 50, 0)
		Expect(err).NotTo(HaveOccurred())
		var eventTypes []string
		for _, e := range trail {
			eventTypes = append(eventTypes, e.EventType)
		}
		Expect(eventTypes).To(ContainElement("approval_granted"))

		// The decision is final.
		_, err = approvalService.RejectRequest(request.ID, reviewer, approval.DecideRequestDTO{}, "", "")
		Expect(err).To(MatchError(apperrors.ErrInvalidStateTransition))

		// With crm granted, a fresh crm petition is refused outright.
		_, err = approvalService.CreateRequest(account.ID, approval.CreateRequestDTO{
			RequestType:     "crm",
			RequestedReason: "once more",
		})
		Expect(err).To(HaveOccurred())
	})

	It("keeps blog access from approved non-bloggers and rejected bloggers", func() {
		account, _, err := profileService.Register(profile.RegisterRequestDTO{
			Username:  "tendai",
			Email:     "tendai@example.com",
			Password:  "Vh&k92mXp!",
			UserType:  profile.UserTypeBlogger,
			FirstName: "Tendai",
			LastName:  "Chikore",
			Phone:     "0772345678",
			Address:   "4 Second St",
		}, "", "e2e")
		Expect(err).NotTo(HaveOccurred())

		request, err := approvalService.CreateRequest(account.ID, approval.CreateRequestDTO{
			RequestType:     "blog",
			RequestedReason: "product reviews",
		})
		Expect(err).NotTo(HaveOccurred())

		// Rejection leaves the profile untouched.
		_, err = approvalService.RejectRequest(request.ID, reviewer, approval.DecideRequestDTO{
			Notes: "no writing samples",
		}, "", "e2e")
		Expect(err).NotTo(HaveOccurred())

		p, err := profileService.GetByUserID(account.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.IsApprovedFor(profile.AreaBlog)).To(BeFalse())
		Expect(engine.CheckAccess(p, profile.AreaBlog).Reason).To(Equal(policy.ReasonNotApproved))

		// After a rejection the blogger may petition again, and this time
		// the approval opens the area.
		retry, err := approvalService.CreateRequest(account.ID, approval.CreateRequestDTO{
			RequestType:     "blog",
			RequestedReason: "samples attached",
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = approvalService.ApproveRequest(retry.ID, reviewer, approval.DecideRequestDTO{}, "", "e2e")
		Expect(err).NotTo(HaveOccurred())

		p, err = profileService.GetByUserID(account.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(engine.CheckAccess(p, profile.AreaBlog).Allowed).To(BeTrue())

		// The audit trail shows both decisions.
		trail, err := auditService.ListByUser(account.ID, 50, 0)
		Expect(err).NotTo(HaveOccurred())
		var eventTypes []string
		for _, e := range trail {
			eventTypes = append(eventTypes, e.EventType)
		}
		Expect(eventTypes).To(ContainElement("approval_rejected"))
		Expect(eventTypes).To(ContainElement("approval_granted"))
	})
})
