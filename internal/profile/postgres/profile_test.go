package postgres

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	profileDatamodel "github.com/blitztech/access-management/internal/core/datamodel/profile"
	"github.com/blitztech/access-management/internal/profile"
)

func TestProfileRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ProfileRepository Suite")
}

var _ = Describe("ProfileRepository", func() {
	var (
		db   *gorm.DB
		repo profile.Repository
	)

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		err = db.AutoMigrate(&profileDatamodel.Profile{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewProfileRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("Create and GetByUserID", func() {
		It("should round-trip a profile with its approval map", func() {
			p := profile.NewProfile(1, profile.UserTypeBlogger)
			p.Phone = "+263771234567"
			p.Address = "12 Main St"

			Expect(repo.Create(p)).To(Succeed())
			Expect(p.ID).To(BeNumerically(">", 0))

			stored, err := repo.GetByUserID(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.UserType).To(Equal(profile.UserTypeBlogger))
			Expect(stored.Phone).To(Equal("+263771234567"))
			Expect(stored.IsApprovedFor(profile.AreaShop)).To(BeTrue())
			Expect(stored.IsApprovedFor(profile.AreaCRM)).To(BeFalse())
			Expect(stored.SocialProvider).To(Equal(profile.SocialProviderManual))
		})

		It("should return the not-found sentinel for missing profiles", func() {
			_, err := repo.GetByUserID(4040)
			Expect(err).To(MatchError(profile.ErrProfileNotFound))
		})

		It("should refuse a second profile for the same user", func() {
			Expect(repo.Create(profile.NewProfile(1, profile.UserTypeCustomer))).To(Succeed())
			Expect(repo.Create(profile.NewProfile(1, profile.UserTypeCustomer))).NotTo(Succeed())
		})
	})

	Describe("Update", func() {
		It("should persist grants and completeness keyed by user", func() {
			p := profile.NewProfile(7, profile.UserTypeCustomer)
			Expect(repo.Create(p)).To(Succeed())

			p.GrantAccess(profile.AreaCRM, 99, "trade verified")
			p.ProfileCompleted = true

			Expect(repo.Update(p)).To(Succeed())

			stored, err := repo.GetByUserID(7)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.IsApprovedFor(profile.AreaCRM)).To(BeTrue())
			Expect(stored.ProfileCompleted).To(BeTrue())
			Expect(stored.ApprovedBy).To(HaveValue(Equal(int64(99))))
			Expect(stored.ApprovalNotes).To(Equal("trade verified"))
		})

		It("should fail for a profile that was never created", func() {
			ghost := profile.NewProfile(4040, profile.UserTypeCustomer)
			Expect(repo.Update(ghost)).To(MatchError(profile.ErrProfileNotFound))
		})
	})
})
