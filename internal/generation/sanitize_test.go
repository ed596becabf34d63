package generation_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hhuzhang0517/genrtl-saas/internal/generation"
)

var _ = Describe("SanitizePatch", func() {
	const diff = "--- /dev/null\n+++ b/rtl/fifo.sv\n@@ -0,0 +1 @@\n+module fifo;"

	DescribeTable("unwraps a single fenced block",
		func(content string) {
			out, unwrapped := generation.SanitizePatch(content)
			Expect(unwrapped).To(BeTrue())
			Expect(out).To(Equal(diff + "\n"))
		},
		Entry("with a diff tag", "```diff\n"+diff+"\n```"),
		Entry("without a tag", "```\n"+diff+"\n```"),
		Entry("with surrounding whitespace", "\n  ```patch\n"+diff+"\n```\n\n"),
		Entry("with CRLF line endings", "```diff\r\n"+diff+"\r\n```"),
	)

	DescribeTable("leaves other content untouched",
		func(content string) {
			out, unwrapped := generation.SanitizePatch(content)
			Expect(unwrapped).To(BeFalse())
			Expect(out).To(Equal(content))
		},
		Entry("a bare patch", diff+"\n"),
		Entry("prose before the fence", "Here you go:\n```diff\n"+diff+"\n```"),
		Entry("two fenced blocks", "```diff\n"+diff+"\n```\nand\n```diff\n"+diff+"\n```"),
	)
})
