package profile

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestProfile(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Profile Module Suite")
}

var _ = Describe("Profile", func() {
	Describe("NewProfile", func() {
		It("should grant shop immediately and leave crm and blog unapproved", func() {
			p := NewProfile(1, UserTypeCustomer)

			Expect(p.IsApprovedFor(AreaShop)).To(BeTrue())
			Expect(p.IsApprovedFor(AreaCRM)).To(BeFalse())
			Expect(p.IsApprovedFor(AreaBlog)).To(BeFalse())
		})

		It("should use the same defaults for every user type", func() {
			for _, userType := range []string{UserTypeCustomer, UserTypeBlogger, UserTypeEmployee} {
				p := NewProfile(1, userType)
				Expect(p.IsApprovedFor(AreaShop)).To(BeTrue(), userType)
				Expect(p.NeedsApprovalFor(AreaCRM)).To(BeTrue(), userType)
				Expect(p.ProfileCompleted).To(BeFalse(), userType)
			}
		})

		It("should default to manual sign-up", func() {
			Expect(NewProfile(1, UserTypeCustomer).SocialProvider).To(Equal(SocialProviderManual))
		})
	})

	Describe("access predicates", func() {
		It("should always allow shop, even for incomplete unapproved profiles", func() {
			p := &Profile{UserType: UserTypeCustomer}
			Expect(p.CanAccessShop()).To(BeTrue())
		})

		It("should deny crm when approved but incomplete", func() {
			p := NewProfile(1, UserTypeCustomer)
			p.GrantAccess(AreaCRM, 2, "")
			Expect(p.CanAccessCRM()).To(BeFalse())
		})

		It("should allow crm when approved and complete", func() {
			p := NewProfile(1, UserTypeCustomer)
			p.GrantAccess(AreaCRM, 2, "")
			p.ProfileCompleted = true
			Expect(p.CanAccessCRM()).To(BeTrue())
		})

		It("should deny blog for non-bloggers regardless of approval", func() {
			p := NewProfile(1, UserTypeCustomer)
			p.GrantAccess(AreaBlog, 2, "")
			p.ProfileCompleted = true
			Expect(p.CanAccessBlog()).To(BeFalse())
		})

		It("should allow blog only for approved complete bloggers", func() {
			p := NewProfile(1, UserTypeBlogger)
			Expect(p.CanAccessBlog()).To(BeFalse())

			p.GrantAccess(AreaBlog, 2, "")
			Expect(p.CanAccessBlog()).To(BeFalse())

			p.ProfileCompleted = true
			Expect(p.CanAccessBlog()).To(BeTrue())
		})

		It("should treat a nil approvals map as unapproved", func() {
			p := &Profile{UserType: UserTypeBlogger, ProfileCompleted: true}
			Expect(p.IsApprovedFor(AreaBlog)).To(BeFalse())
			Expect(p.CanAccessBlog()).To(BeFalse())
		})
	})

	Describe("ComputeCompleteness", func() {
		It("should require first name, last name and a valid phone", func() {
			p := &Profile{UserType: UserTypeCustomer, Phone: "0771234567", Address: "12 Main St"}

			Expect(p.ComputeCompleteness("", "Moyo", true)).To(BeFalse())
			Expect(p.ComputeCompleteness("Tariro", "", true)).To(BeFalse())
			Expect(p.ComputeCompleteness("Tariro", "Moyo", false)).To(BeFalse())
			Expect(p.ComputeCompleteness("Tariro", "Moyo", true)).To(BeTrue())
		})

		It("should require an address for customers and bloggers", func() {
			p := &Profile{UserType: UserTypeCustomer, Phone: "0771234567"}
			Expect(p.ComputeCompleteness("Tariro", "Moyo", true)).To(BeFalse())

			p.Address = "12 Main St"
			Expect(p.ComputeCompleteness("Tariro", "Moyo", true)).To(BeTrue())
		})

		It("should not require an address for employees", func() {
			p := &Profile{UserType: UserTypeEmployee, Phone: "0771234567"}
			Expect(p.ComputeCompleteness("Rudo", "Ncube", true)).To(BeTrue())
		})

		It("should fail with no phone at all", func() {
			p := &Profile{UserType: UserTypeEmployee}
			Expect(p.ComputeCompleteness("Rudo", "Ncube", true)).To(BeFalse())
		})
	})

	Describe("GrantAccess", func() {
		It("should flip the flag and stamp the reviewer metadata", func() {
			p := NewProfile(1, UserTypeCustomer)

			p.GrantAccess(AreaCRM, 42, "verified trade reference")

			Expect(p.IsApprovedFor(AreaCRM)).To(BeTrue())
			Expect(p.ApprovedBy).To(HaveValue(Equal(int64(42))))
			Expect(p.ApprovalDate).NotTo(BeNil())
			Expect(p.ApprovalNotes).To(Equal("verified trade reference"))
		})

		It("should refresh metadata on a repeat grant", func() {
			p := NewProfile(1, UserTypeCustomer)
			p.GrantAccess(AreaCRM, 42, "first")
			first := *p.ApprovalDate

			p.GrantAccess(AreaCRM, 77, "second look")

			Expect(p.IsApprovedFor(AreaCRM)).To(BeTrue())
			Expect(p.ApprovedBy).To(HaveValue(Equal(int64(77))))
			Expect(p.ApprovalNotes).To(Equal("second look"))
			Expect(p.ApprovalDate.Before(first)).To(BeFalse())
		})

		It("should initialize a nil approvals map", func() {
			p := &Profile{}
			p.GrantAccess(AreaBlog, 1, "")
			Expect(p.IsApprovedFor(AreaBlog)).To(BeTrue())
		})
	})

	Describe("data model round trip", func() {
		It("should preserve the approval flags", func() {
			p := NewProfile(5, UserTypeBlogger)
			p.GrantAccess(AreaBlog, 2, "writer onboarding")

			back := FromDataModel(ToDataModel(p))

			Expect(back.UserID).To(Equal(int64(5)))
			Expect(back.IsApprovedFor(AreaShop)).To(BeTrue())
			Expect(back.IsApprovedFor(AreaBlog)).To(BeTrue())
			Expect(back.IsApprovedFor(AreaCRM)).To(BeFalse())
			Expect(back.ApprovalNotes).To(Equal("writer onboarding"))
		})
	})
})
