package profile

import (
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/blitztech/access-management/internal"
	"github.com/blitztech/access-management/internal/core/common/validation"
	"github.com/blitztech/access-management/internal/user"
)

type mockProfileRepo struct {
	profiles map[int64]*Profile
	err      error
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[int64]*Profile)}
}

func (m *mockProfileRepo) Create(p *Profile) error {
	if m.err != nil {
		return m.err
	}
	p.ID = int64(len(m.profiles) + 1)
	m.profiles[p.UserID] = p
	return nil
}

func (m *mockProfileRepo) GetByUserID(userID int64) (*Profile, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockProfileRepo) Update(p *Profile) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.profiles[p.UserID]; !ok {
		return ErrProfileNotFound
	}
	m.profiles[p.UserID] = p
	return nil
}

type mockUserStore struct {
	users  map[int64]*user.User
	nextID int64
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[int64]*user.User), nextID: 1}
}

func (m *mockUserStore) Create(u *user.User) error {
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	return nil
}

func (m *mockUserStore) GetByID(userID int64) (*user.User, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserStore) GetByUsername(username string) (*user.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (m *mockUserStore) GetByEmail(email string) (*user.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (m *mockUserStore) Update(u *user.User) error {
	if _, ok := m.users[u.ID]; !ok {
		return user.ErrUserNotFound
	}
	m.users[u.ID] = u
	return nil
}

type recordedEvent struct {
	userID    *int64
	eventType string
	details   map[string]interface{}
}

type mockRecorder struct {
	events []recordedEvent
}

func (m *mockRecorder) Record(userID *int64, eventType, ip, ua string, details map[string]interface{}) {
	m.events = append(m.events, recordedEvent{userID: userID, eventType: eventType, details: details})
}

func (m *mockRecorder) eventTypes() []string {
	var out []string
	for _, e := range m.events {
		out = append(out, e.eventType)
	}
	return out
}

var _ = Describe("ProfileService", func() {
	var (
		service  *Service
		repo     *mockProfileRepo
		users    *mockUserStore
		recorder *mockRecorder
	)

	registration := func() RegisterRequestDTO {
		return RegisterRequestDTO{
			Username:  "tariro",
			Email:     "tariro@example.com",
			Password:  "Vh&k92mXp!",
			FirstName: "Tariro",
			LastName:  "Moyo",
			Phone:     "+263771234567",
			Address:   "12 Samora Machel Ave",
		}
	}

	BeforeEach(func() {
		repo = newMockProfileRepo()
		users = newMockUserStore()
		recorder = &mockRecorder{}

		cfg := apperrors.PolicyConfig{
			PasswordBlocklist:    apperrors.DefaultPasswordBlocklist(),
			KeyboardPatterns:     apperrors.DefaultKeyboardPatterns(),
			BlockedEmailDomains:  apperrors.DefaultBlockedEmailDomains(),
			EmployeeEmailDomains: []string{"blitztechelectronics.co.zw"},
		}

		service = NewService(
			repo,
			users,
			recorder,
			validation.NewPasswordPolicy(cfg),
			validation.NewPhonePolicy("263"),
			validation.NewEmailPolicy(cfg),
			bcrypt.MinCost,
			slog.Default(),
		)
	})

	Describe("Register", func() {
		It("should create the account and a complete profile", func() {
			account, p, err := service.Register(registration(), "196.201.5.10", "test")

			Expect(err).NotTo(HaveOccurred())
			Expect(account.ID).To(BeNumerically(">", 0))
			Expect(p.UserType).To(Equal(UserTypeCustomer))
			Expect(p.IsApprovedFor(AreaShop)).To(BeTrue())
			Expect(p.ProfileCompleted).To(BeTrue())
			Expect(p.CompletionDate).NotTo(BeNil())
		})

		It("should hash the password, never store it", func() {
			account, _, err := service.Register(registration(), "", "")

			Expect(err).NotTo(HaveOccurred())
			Expect(account.PasswordHash).NotTo(Equal("Vh&k92mXp!"))
			Expect(bcrypt.CompareHashAndPassword(
				[]byte(account.PasswordHash), []byte("Vh&k92mXp!"))).To(Succeed())
		})

		It("should leave the profile incomplete without a phone", func() {
			dto := registration()
			dto.Phone = ""

			_, p, err := service.Register(dto, "", "")

			Expect(err).NotTo(HaveOccurred())
			Expect(p.ProfileCompleted).To(BeFalse())
			Expect(p.CompletionDate).To(BeNil())
		})

		It("should reject weak passwords before persisting anything", func() {
			dto := registration()
			dto.Password = "weak"

			_, _, err := service.Register(dto, "", "")

			Expect(err).To(HaveOccurred())
			Expect(users.users).To(BeEmpty())
			Expect(repo.profiles).To(BeEmpty())
		})

		It("should reject passwords built from the registrant's identity", func() {
			dto := registration()
			dto.Password = "Tariro#92Xy"

			_, _, err := service.Register(dto, "", "")
			Expect(err).To(HaveOccurred())
		})

		It("should reject disposable email domains", func() {
			dto := registration()
			dto.Email = "x@mailinator.com"

			_, _, err := service.Register(dto, "", "")
			Expect(err).To(HaveOccurred())
		})

		It("should reject employee registrations on personal domains", func() {
			dto := registration()
			dto.UserType = UserTypeEmployee

			_, _, err := service.Register(dto, "", "")

			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeEmployeeDomain))
		})

		It("should reject malformed phone numbers", func() {
			dto := registration()
			dto.Phone = "12345"

			_, _, err := service.Register(dto, "", "")
			Expect(err).To(HaveOccurred())
		})

		It("should record a profile_update audit event", func() {
			_, _, err := service.Register(registration(), "", "")

			Expect(err).NotTo(HaveOccurred())
			Expect(recorder.eventTypes()).To(ContainElement("profile_update"))
			Expect(recorder.events[0].details).To(HaveKeyWithValue("action", "registered"))
		})
	})

	Describe("UpdateProfile", func() {
		var userID int64

		BeforeEach(func() {
			dto := registration()
			dto.Phone = ""
			account, _, err := service.Register(dto, "", "")
			Expect(err).NotTo(HaveOccurred())
			userID = account.ID
			recorder.events = nil
		})

		It("should complete the profile once the phone is filled in", func() {
			phone := "0771234567"
			p, err := service.UpdateProfile(userID, UpdateProfileRequestDTO{Phone: &phone}, "", "")

			Expect(err).NotTo(HaveOccurred())
			Expect(p.ProfileCompleted).To(BeTrue())
			Expect(p.CompletionDate).NotTo(BeNil())
		})

		It("should reject an invalid phone and change nothing", func() {
			phone := "999"
			_, err := service.UpdateProfile(userID, UpdateProfileRequestDTO{Phone: &phone}, "", "")

			Expect(err).To(HaveOccurred())
			p, getErr := service.GetByUserID(userID)
			Expect(getErr).NotTo(HaveOccurred())
			Expect(p.Phone).To(BeEmpty())
		})

		It("should clear completeness when a required field is emptied", func() {
			phone := "0771234567"
			_, err := service.UpdateProfile(userID, UpdateProfileRequestDTO{Phone: &phone}, "", "")
			Expect(err).NotTo(HaveOccurred())

			empty := ""
			p, err := service.UpdateProfile(userID, UpdateProfileRequestDTO{Address: &empty}, "", "")

			Expect(err).NotTo(HaveOccurred())
			Expect(p.ProfileCompleted).To(BeFalse())
			Expect(p.CompletionDate).To(BeNil())
		})

		It("should not audit when nothing changed", func() {
			same := "Tariro"
			_, err := service.UpdateProfile(userID, UpdateProfileRequestDTO{FirstName: &same}, "", "")

			Expect(err).NotTo(HaveOccurred())
			Expect(recorder.events).To(BeEmpty())
		})

		It("should list the changed fields in the audit event", func() {
			phone := "0771234567"
			billing := "PO Box 55"
			_, err := service.UpdateProfile(userID, UpdateProfileRequestDTO{
				Phone:          &phone,
				BillingAddress: &billing,
			}, "", "")

			Expect(err).NotTo(HaveOccurred())
			Expect(recorder.events).To(HaveLen(1))
			Expect(recorder.events[0].details["changed_fields"]).To(ConsistOf("phone", "billing_address"))
		})
	})

	Describe("CheckProfileCompletion", func() {
		It("should persist a completeness change", func() {
			dto := registration()
			dto.Phone = ""
			account, _, err := service.Register(dto, "", "")
			Expect(err).NotTo(HaveOccurred())

			// fill the phone behind the service's back
			stored := repo.profiles[account.ID]
			stored.Phone = "0771234567"

			complete, err := service.CheckProfileCompletion(account.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(complete).To(BeTrue())
			Expect(repo.profiles[account.ID].ProfileCompleted).To(BeTrue())
		})
	})

	Describe("ApproveForAccess", func() {
		var userID int64

		BeforeEach(func() {
			account, _, err := service.Register(registration(), "", "")
			Expect(err).NotTo(HaveOccurred())
			userID = account.ID
			recorder.events = nil
		})

		It("should grant the area and audit the grant", func() {
			p, err := service.ApproveForAccess(userID, AreaCRM, 42, "trade verified", "", "")

			Expect(err).NotTo(HaveOccurred())
			Expect(p.IsApprovedFor(AreaCRM)).To(BeTrue())
			Expect(recorder.eventTypes()).To(ConsistOf("approval_granted"))
			Expect(recorder.events[0].details).To(HaveKeyWithValue("area", "crm"))
		})

		It("should audit a repeat grant again", func() {
			_, err := service.ApproveForAccess(userID, AreaCRM, 42, "", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = service.ApproveForAccess(userID, AreaCRM, 43, "", "", "")
			Expect(err).NotTo(HaveOccurred())

			Expect(recorder.events).To(HaveLen(2))
		})

		It("should refuse unknown areas", func() {
			_, err := service.ApproveForAccess(userID, Area("warehouse"), 42, "", "", "")
			Expect(err).To(MatchError(ErrUnknownArea))
			Expect(recorder.events).To(BeEmpty())
		})
	})
})
