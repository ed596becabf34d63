package generation_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hhuzhang0517/genrtl-saas/internal/generation"
)

var _ = Describe("DecodePlan", func() {
	It("decodes a well-formed plan", func() {
		plan, err := generation.DecodePlan(validPlanJSON)
		Expect(err).NotTo(HaveOccurred())
		Expect(plan.Summary).To(Equal("An 8-bit synchronous up counter"))
		Expect(plan.Modules).To(HaveLen(1))
		Expect(plan.Modules[0].Name).To(Equal("counter"))
		Expect(plan.Modules[0].Interfaces).To(HaveLen(3))
		Expect(plan.Verification.EdgeCases).To(ContainElement("reset mid-count"))
	})

	It("accepts a module without dependencies", func() {
		_, err := generation.DecodePlan(`{"summary":"s","modules":[{"name":"m","description":"d","interfaces":[]}],"verification":{"testbenches":[],"edge_cases":[]}}`)
		Expect(err).NotTo(HaveOccurred())
	})

	It("keeps the raw output when the JSON is invalid", func() {
		raw := "Sure! Here is your plan: {"
		_, err := generation.DecodePlan(raw)

		var shapeErr *generation.PlanShapeError
		Expect(errors.As(err, &shapeErr)).To(BeTrue())
		Expect(shapeErr.Raw).To(Equal(raw))
		Expect(shapeErr.Problems[0]).To(HavePrefix("invalid JSON"))
	})

	DescribeTable("shape violations",
		func(raw string, problem string) {
			_, err := generation.DecodePlan(raw)

			var shapeErr *generation.PlanShapeError
			Expect(errors.As(err, &shapeErr)).To(BeTrue())
			Expect(shapeErr.Problems).To(ContainElement(problem))
			Expect(shapeErr.Raw).To(Equal(raw))
		},
		Entry("missing summary",
			`{"modules":[{"name":"m","description":"d","interfaces":[]}],"verification":{"testbenches":[],"edge_cases":[]}}`,
			"summary is missing"),
		Entry("blank summary",
			`{"summary":"  ","modules":[{"name":"m","description":"d","interfaces":[]}],"verification":{"testbenches":[],"edge_cases":[]}}`,
			"summary is missing"),
		Entry("empty module list",
			`{"summary":"s","modules":[],"verification":{"testbenches":[],"edge_cases":[]}}`,
			"modules must contain at least one module"),
		Entry("module without name",
			`{"summary":"s","modules":[{"description":"d","interfaces":[]}],"verification":{"testbenches":[],"edge_cases":[]}}`,
			"modules[0].name is missing"),
		Entry("module without interfaces",
			`{"summary":"s","modules":[{"name":"m","description":"d"}],"verification":{"testbenches":[],"edge_cases":[]}}`,
			"modules[0].interfaces is missing"),
		Entry("missing verification",
			`{"summary":"s","modules":[{"name":"m","description":"d","interfaces":[]}]}`,
			"verification is missing"),
		Entry("verification without edge cases",
			`{"summary":"s","modules":[{"name":"m","description":"d","interfaces":[]}],"verification":{"testbenches":[]}}`,
			"verification.edge_cases is missing"),
	)

	It("reports every problem at once", func() {
		_, err := generation.DecodePlan(`{}`)

		var shapeErr *generation.PlanShapeError
		Expect(errors.As(err, &shapeErr)).To(BeTrue())
		Expect(shapeErr.Problems).To(HaveLen(3))
	})
})
