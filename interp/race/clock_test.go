package race_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/calyxgo/interp/race"
)

var _ = Describe("VectorClock", func() {
	var a, b race.VectorClock

	BeforeEach(func() {
		a = race.NewVectorClock()
		b = race.NewVectorClock()
	})

	It("reads an unset thread as zero", func() {
		Expect(a.Get("t1")).To(Equal(uint64(0)))
	})

	It("increments only the named thread's component", func() {
		a.Increment("t1")
		a.Increment("t1")
		a.Increment("t2")
		Expect(a.Get("t1")).To(Equal(uint64(2)))
		Expect(a.Get("t2")).To(Equal(uint64(1)))
	})

	It("clones independently of the original", func() {
		a.Increment("t1")
		c := a.Clone()
		c.Increment("t1")
		Expect(a.Get("t1")).To(Equal(uint64(1)))
		Expect(c.Get("t1")).To(Equal(uint64(2)))
	})

	Describe("GreaterOrEqual", func() {
		It("is reflexive", func() {
			a.Increment("t1")
			Expect(a.GreaterOrEqual(a)).To(BeTrue())
		})

		It("holds when every component of the receiver dominates", func() {
			a["t1"] = 3
			a["t2"] = 5
			b["t1"] = 2
			b["t2"] = 5
			Expect(a.GreaterOrEqual(b)).To(BeTrue())
			Expect(b.GreaterOrEqual(a)).To(BeFalse())
		})

		It("treats an absent thread in the receiver as zero", func() {
			b["t1"] = 1
			Expect(a.GreaterOrEqual(b)).To(BeFalse())
		})
	})

	Describe("Join", func() {
		It("takes the element-wise maximum", func() {
			a["t1"] = 3
			a["t2"] = 1
			b["t1"] = 1
			b["t2"] = 4
			b["t3"] = 2

			joined := a.Join(b)
			Expect(joined.Get("t1")).To(Equal(uint64(3)))
			Expect(joined.Get("t2")).To(Equal(uint64(4)))
			Expect(joined.Get("t3")).To(Equal(uint64(2)))
		})

		It("does not mutate either operand", func() {
			a["t1"] = 1
			b["t1"] = 2
			_ = a.Join(b)
			Expect(a.Get("t1")).To(Equal(uint64(1)))
			Expect(b.Get("t1")).To(Equal(uint64(2)))
		})
	})

	Describe("Equal and Concurrent", func() {
		It("reports equal clocks as equal and not concurrent", func() {
			a["t1"] = 2
			b["t1"] = 2
			Expect(a.Equal(b)).To(BeTrue())
			Expect(a.Concurrent(b)).To(BeFalse())
		})

		It("reports unordered clocks as concurrent", func() {
			a["t1"] = 3
			b["t2"] = 1
			Expect(a.Concurrent(b)).To(BeTrue())
			Expect(a.Equal(b)).To(BeFalse())
		})
	})
})
