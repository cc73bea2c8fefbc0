package profile

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/blitztech/access-management/internal"
)

func fieldNames(err error) []string {
	appErr, ok := apperrors.IsAppError(err)
	Expect(ok).To(BeTrue(), "expected an AppError, got %v", err)
	details, ok := appErr.Details.(apperrors.ValidationErrors)
	Expect(ok).To(BeTrue(), "expected ValidationErrors details")

	var fields []string
	for _, v := range details.Errors {
		fields = append(fields, v.Field)
	}
	return fields
}

var _ = Describe("RegisterRequestDTO", func() {
	newValidRequest := func() *RegisterRequestDTO {
		return &RegisterRequestDTO{
			Username:  "tariro",
			Email:     "tariro@example.com",
			Password:  "Str0ng&Secure!",
			FirstName: "Tariro",
			LastName:  "Moyo",
			UserType:  UserTypeCustomer,
		}
	}

	It("accepts a complete registration request", func() {
		Expect(newValidRequest().Validate()).To(Succeed())
	})

	It("defaults an empty user type to customer", func() {
		req := newValidRequest()
		req.UserType = ""

		Expect(req.Validate()).To(Succeed())
		Expect(req.UserType).To(Equal(UserTypeCustomer))
	})

	It("collects every missing required field in one error", func() {
		req := &RegisterRequestDTO{UserType: UserTypeCustomer}

		err := req.Validate()
		Expect(err).To(HaveOccurred())
		Expect(fieldNames(err)).To(ContainElements("username", "email", "password"))
	})

	It("rejects a username shorter than three characters", func() {
		req := newValidRequest()
		req.Username = "ab"

		err := req.Validate()
		Expect(err).To(HaveOccurred())
		Expect(fieldNames(err)).To(ConsistOf("username"))
	})

	It("rejects a user type outside the known set", func() {
		req := newValidRequest()
		req.UserType = "superuser"

		err := req.Validate()
		Expect(err).To(HaveOccurred())
		Expect(fieldNames(err)).To(ConsistOf("user_type"))
	})
})

var _ = Describe("UpdateProfileRequestDTO", func() {
	It("accepts an empty update", func() {
		req := &UpdateProfileRequestDTO{}

		Expect(req.Validate()).To(Succeed())
		Expect(req.HasChanges()).To(BeFalse())
	})

	It("rejects an over-long first name", func() {
		long := strings.Repeat("a", 151)
		req := &UpdateProfileRequestDTO{FirstName: &long}

		err := req.Validate()
		Expect(err).To(HaveOccurred())
		Expect(fieldNames(err)).To(ConsistOf("first_name"))
	})

	It("rejects an over-long billing address", func() {
		long := strings.Repeat("a", 501)
		req := &UpdateProfileRequestDTO{BillingAddress: &long}

		err := req.Validate()
		Expect(err).To(HaveOccurred())
		Expect(fieldNames(err)).To(ConsistOf("billing_address"))
	})
})

var _ = Describe("GrantAccessRequestDTO", func() {
	It("accepts a known area", func() {
		req := &GrantAccessRequestDTO{Area: string(AreaCRM)}
		Expect(req.Validate()).To(Succeed())
	})

	It("requires the area field", func() {
		req := &GrantAccessRequestDTO{}

		err := req.Validate()
		Expect(err).To(HaveOccurred())
		Expect(fieldNames(err)).To(ConsistOf("area"))
	})

	It("rejects an area outside the known set", func() {
		req := &GrantAccessRequestDTO{Area: "warehouse"}

		err := req.Validate()
		appErr, ok := apperrors.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(apperrors.ErrCodeUnknownArea))
	})
})
