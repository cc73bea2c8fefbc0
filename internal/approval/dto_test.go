package approval

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/blitztech/access-management/internal"
	"github.com/blitztech/access-management/internal/profile"
)

func violatedFields(err error) []string {
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

var _ = Describe("CreateRequestDTO", func() {
	It("accepts a crm request with a reason", func() {
		req := &CreateRequestDTO{
			RequestType:     string(profile.AreaCRM),
			RequestedReason: "I manage customer accounts for the Harare branch.",
		}
		Expect(req.Validate()).To(Succeed())
	})

	It("collects the missing request type and reason in one error", func() {
		req := &CreateRequestDTO{}

		err := req.Validate()
		Expect(err).To(HaveOccurred())
		Expect(violatedFields(err)).To(ContainElements("request_type", "requested_reason"))
	})

	It("rejects an over-long reason", func() {
		req := &CreateRequestDTO{
			RequestType:     string(profile.AreaBlog),
			RequestedReason: strings.Repeat("a", 1001),
		}

		err := req.Validate()
		Expect(err).To(HaveOccurred())
		Expect(violatedFields(err)).To(ConsistOf("requested_reason"))
	})

	It("rejects a request type outside the known areas", func() {
		req := &CreateRequestDTO{
			RequestType:     "warehouse",
			RequestedReason: "need it",
		}

		err := req.Validate()
		appErr, ok := apperrors.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(apperrors.ErrCodeUnknownArea))
	})
})

var _ = Describe("DecideRequestDTO", func() {
	It("accepts empty notes", func() {
		req := &DecideRequestDTO{}
		Expect(req.Validate()).To(Succeed())
	})

	It("rejects over-long notes", func() {
		req := &DecideRequestDTO{Notes: strings.Repeat("a", 2001)}

		err := req.Validate()
		Expect(err).To(HaveOccurred())
		Expect(violatedFields(err)).To(ConsistOf("notes"))
	})
})
