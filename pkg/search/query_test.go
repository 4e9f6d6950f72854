package search_test

import (
	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pbrane/newts/pkg/resource"
	"github.com/pbrane/newts/pkg/search"
)

var _ = Describe("Query", func() {
	Describe("ParseQuery", func() {
		It("Should parse an empty query", func() {
			q, err := search.ParseQuery("  ")
			Expect(err).ToNot(HaveOccurred())
			Expect(q.Terms).To(BeEmpty())
		})
		It("Should split terms on the first colon", func() {
			q, err := search.ParseQuery("_parent:a:b")
			Expect(err).ToNot(HaveOccurred())
			Expect(q.Terms).To(Equal([]search.Term{{Field: "_parent", Value: "a:b"}}))
		})
		It("Should default to AND", func() {
			q, err := search.ParseQuery("a:1 b:2")
			Expect(err).ToNot(HaveOccurred())
			Expect(q.Operator).To(Equal(search.And))
			Expect(q.String()).To(Equal("a:1 AND b:2"))
		})
		It("Should parse OR", func() {
			q, err := search.ParseQuery("a:1 OR b:2 OR c:3")
			Expect(err).ToNot(HaveOccurred())
			Expect(q.Operator).To(Equal(search.Or))
			Expect(q.Terms).To(HaveLen(3))
		})
		DescribeTable("Invalid queries", func(s string) {
			_, err := search.ParseQuery(s)
			Expect(errors.Is(err, search.InvalidQuery)).To(BeTrue())
		},
			Entry("bare word", "web01"),
			Entry("empty field", ":web01"),
			Entry("leading operator", "OR a:1"),
			Entry("trailing operator", "a:1 AND"),
			Entry("double operator", "a:1 AND OR b:2"),
			Entry("mixed operators", "a:1 AND b:2 OR c:3"),
			Entry("implicit and mixed with or", "a:1 b:2 OR c:3"),
		)
	})
	Describe("Terms", func() {
		It("Should include attributes and parents", func() {
			r := resource.NewWithAttributes("a:b:c", resource.WithAttributes(map[string]string{"k": "v"}))
			Expect(search.Terms(r)).To(Equal([]search.Term{
				{Field: "k", Value: "v"},
				{Field: search.ParentField, Value: "a"},
				{Field: search.ParentField, Value: "a:b"},
			}))
		})
		It("Should have no terms for a flat id without attributes", func() {
			Expect(search.Terms(resource.New("flat"))).To(BeEmpty())
		})
	})
})
