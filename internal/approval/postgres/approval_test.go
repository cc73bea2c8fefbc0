package postgres

import (
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apperrors "github.com/blitztech/access-management/internal"
	"github.com/blitztech/access-management/internal/approval"
	approvalDatamodel "github.com/blitztech/access-management/internal/core/datamodel/approval"
)

func TestApprovalRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ApprovalRepository Suite")
}

var _ = Describe("ApprovalRepository", func() {
	var (
		db   *gorm.DB
		repo approval.Repository
	)

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		// a second pooled connection would see its own empty in-memory
		// database, so keep everything on one connection
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		err = db.AutoMigrate(&approvalDatamodel.ApprovalRequest{})
		Expect(err).NotTo(HaveOccurred())

		// AutoMigrate cannot express the partial index, so create it the
		// way the migration does.
		err = db.Exec(`CREATE UNIQUE INDEX idx_approval_requests_single_pending
			ON approval_requests (user_id, request_type)
			WHERE status = 'pending'`).Error
		Expect(err).NotTo(HaveOccurred())

		repo = NewApprovalRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("Create", func() {
		It("should persist a pending request", func() {
			request := approval.NewApprovalRequest(1, "crm", "need pricing", "")

			Expect(repo.Create(request)).To(Succeed())
			Expect(request.ID).To(BeNumerically(">", 0))

			stored, err := repo.GetByID(request.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(approval.StatusPending))
			Expect(stored.RequestedReason).To(Equal("need pricing"))
		})

		It("should refuse a duplicate pending request", func() {
			first := approval.NewApprovalRequest(1, "crm", "first", "")
			Expect(repo.Create(first)).To(Succeed())

			second := approval.NewApprovalRequest(1, "crm", "second", "")
			err := repo.Create(second)
			Expect(err).To(MatchError(apperrors.ErrDuplicatePendingRequest))
		})

		It("should allow the same area for different users", func() {
			Expect(repo.Create(approval.NewApprovalRequest(1, "crm", "a", ""))).To(Succeed())
			Expect(repo.Create(approval.NewApprovalRequest(2, "crm", "b", ""))).To(Succeed())
		})

		It("should allow a new pending request once the old one is decided", func() {
			first := approval.NewApprovalRequest(1, "crm", "first", "")
			Expect(repo.Create(first)).To(Succeed())

			first.Reject(9, "insufficient detail")
			Expect(repo.UpdateDecision(first)).To(Succeed())

			second := approval.NewApprovalRequest(1, "crm", "second", "")
			Expect(repo.Create(second)).To(Succeed())
		})

		It("should let exactly one of two concurrent submissions win", func() {
			var wg sync.WaitGroup
			errs := make([]error, 2)

			for i := 0; i < 2; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					errs[i] = repo.Create(approval.NewApprovalRequest(5, "blog", "race", ""))
				}(i)
			}
			wg.Wait()

			var failures int
			for _, err := range errs {
				if err != nil {
					Expect(err).To(MatchError(apperrors.ErrDuplicatePendingRequest))
					failures++
				}
			}
			Expect(failures).To(Equal(1))
		})
	})

	Describe("GetByID", func() {
		It("should return the not-found sentinel for missing rows", func() {
			_, err := repo.GetByID(4040)
			Expect(err).To(MatchError(apperrors.ErrRequestNotFound))
		})
	})

	Describe("GetByUserID", func() {
		It("should list a user's requests newest first", func() {
			old := approval.NewApprovalRequest(1, "crm", "old", "")
			old.RequestedAt = time.Now().Add(-time.Hour)
			Expect(repo.Create(old)).To(Succeed())

			recent := approval.NewApprovalRequest(1, "blog", "recent", "")
			Expect(repo.Create(recent)).To(Succeed())

			Expect(repo.Create(approval.NewApprovalRequest(2, "crm", "other user", ""))).To(Succeed())

			requests, err := repo.GetByUserID(1, 10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(requests).To(HaveLen(2))
			Expect(requests[0].RequestedReason).To(Equal("recent"))
			Expect(requests[1].RequestedReason).To(Equal("old"))
		})
	})

	Describe("GetPending", func() {
		It("should list only pending requests, oldest first", func() {
			oldest := approval.NewApprovalRequest(1, "crm", "oldest", "")
			oldest.RequestedAt = time.Now().Add(-2 * time.Hour)
			Expect(repo.Create(oldest)).To(Succeed())

			decided := approval.NewApprovalRequest(2, "crm", "decided", "")
			decided.RequestedAt = time.Now().Add(-time.Hour)
			Expect(repo.Create(decided)).To(Succeed())
			decided.Approve(9, "")
			Expect(repo.UpdateDecision(decided)).To(Succeed())

			newest := approval.NewApprovalRequest(3, "blog", "newest", "")
			Expect(repo.Create(newest)).To(Succeed())

			pending, err := repo.GetPending(10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(HaveLen(2))
			Expect(pending[0].RequestedReason).To(Equal("oldest"))
			Expect(pending[1].RequestedReason).To(Equal("newest"))
		})
	})

	Describe("UpdateDecision", func() {
		It("should persist the decision fields", func() {
			request := approval.NewApprovalRequest(1, "crm", "pricing", "")
			Expect(repo.Create(request)).To(Succeed())

			request.Approve(42, "verified")
			Expect(repo.UpdateDecision(request)).To(Succeed())

			stored, err := repo.GetByID(request.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(approval.StatusApproved))
			Expect(stored.ReviewedBy).To(HaveValue(Equal(int64(42))))
			Expect(stored.ReviewedAt).NotTo(BeNil())
			Expect(stored.ReviewNotes).To(Equal("verified"))
		})

		It("should refuse to re-decide and leave the first decision intact", func() {
			request := approval.NewApprovalRequest(1, "crm", "pricing", "")
			Expect(repo.Create(request)).To(Succeed())

			approved := *request
			approved.Approve(42, "yes")
			Expect(repo.UpdateDecision(&approved)).To(Succeed())

			rejected := *request
			rejected.Reject(43, "no")
			err := repo.UpdateDecision(&rejected)
			Expect(err).To(MatchError(apperrors.ErrInvalidStateTransition))

			stored, getErr := repo.GetByID(request.ID)
			Expect(getErr).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(approval.StatusApproved))
			Expect(stored.ReviewedBy).To(HaveValue(Equal(int64(42))))
		})
	})
})
