package resource_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pbrane/newts/pkg/resource"
)

var _ = Describe("Attributes", func() {
	attrs := resource.WithAttributes(map[string]string{"b": "2", "a": "1", "c": "3"})
	It("Should be absent by default", func() {
		var a resource.Attributes
		Expect(a.IsPresent()).To(BeFalse())
		Expect(a.Equal(resource.NoAttributes())).To(BeTrue())
	})
	It("Should return the keys in order", func() {
		Expect(attrs.Keys()).To(Equal([]string{"a", "b", "c"}))
	})
	It("Should range over the attributes in key order", func() {
		var keys, values []string
		attrs.Range(func(k, v string) bool {
			keys = append(keys, k)
			values = append(values, v)
			return true
		})
		Expect(keys).To(Equal([]string{"a", "b", "c"}))
		Expect(values).To(Equal([]string{"1", "2", "3"}))
	})
	It("Should stop ranging when the callback returns false", func() {
		n := 0
		attrs.Range(func(string, string) bool { n++; return false })
		Expect(n).To(Equal(1))
	})
	It("Should look up a value by key", func() {
		v, ok := attrs.Lookup("b")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("2"))
		_, ok = attrs.Lookup("z")
		Expect(ok).To(BeFalse())
	})
	Describe("Equal", func() {
		It("Should compare entries", func() {
			other := resource.WithAttributes(map[string]string{"a": "1", "b": "2", "c": "3"})
			Expect(attrs.Equal(other)).To(BeTrue())
			Expect(attrs.Equal(resource.WithAttributes(map[string]string{"a": "1"}))).To(BeFalse())
			Expect(attrs.Equal(resource.WithAttributes(map[string]string{"a": "1", "b": "2", "c": "4"}))).To(BeFalse())
		})
		It("Should compare presence", func() {
			Expect(resource.NoAttributes().Equal(resource.WithAttributes(nil))).To(BeFalse())
		})
	})
})
