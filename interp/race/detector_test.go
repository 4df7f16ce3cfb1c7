package race_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/calyxgo/ident"
	"github.com/sarchlab/calyxgo/interp/race"
	"github.com/sarchlab/calyxgo/ir"
)

var _ = Describe("Detector", func() {
	var (
		d    *race.Detector
		in   *ident.Interner
		loc  ir.CanonicalKey
		t1   race.ThreadID = "/par.0"
		t2   race.ThreadID = "/par.1"
	)

	BeforeEach(func() {
		d = race.NewDetector()
		in = ident.New()
		loc = ir.CanonicalKey{Parent: in.Intern("reg0"), Name: in.Intern("out")}
	})

	It("allows a read and a write from the same thread with no race", func() {
		d.Tick(t1)
		Expect(d.RecordWrite(t1, loc)).To(BeNil())
		d.Tick(t1)
		Expect(d.RecordRead(t1, loc)).To(BeNil())
	})

	It("allows a read by a thread forked after the write", func() {
		d.Tick(t1)
		Expect(d.RecordWrite(t1, loc)).To(BeNil())

		d.Fork(t1, t2)
		d.Tick(t2)
		Expect(d.RecordRead(t2, loc)).To(BeNil())
	})

	It("reports a read/write race when the reader never observed the write", func() {
		d.Tick(t1)
		Expect(d.RecordWrite(t1, loc)).To(BeNil())

		d.Tick(t2) // t2's clock never Forked from or Joined with t1
		r := d.RecordRead(t2, loc)
		Expect(r).NotTo(BeNil())
		Expect(r.Kind).To(Equal(race.ReadAfterWrite))
		Expect(r.Thread).To(Equal(t2))
		Expect(r.Location).To(Equal(loc))
	})

	It("reports a write/write race when neither writer observed the other", func() {
		d.Tick(t1)
		Expect(d.RecordWrite(t1, loc)).To(BeNil())

		d.Tick(t2)
		r := d.RecordWrite(t2, loc)
		Expect(r).NotTo(BeNil())
		Expect(r.Kind).To(Equal(race.WriteAfterWrite))
	})

	It("reports a write/read race when a write has not observed an intervening read", func() {
		d.Tick(t1)
		Expect(d.RecordWrite(t1, loc)).To(BeNil())

		d.Fork(t1, t2)
		d.Tick(t2)
		Expect(d.RecordRead(t2, loc)).To(BeNil())

		// A third, unrelated thread writes without having observed t2's read.
		t3 := race.ThreadID("/par.2")
		d.Tick(t3)
		r := d.RecordWrite(t3, loc)
		Expect(r).NotTo(BeNil())
		Expect(r.Kind).To(Equal(race.WriteAfterRead))
	})

	It("allows a write that observes both the prior write and all reads via Join", func() {
		d.Tick(t1)
		Expect(d.RecordWrite(t1, loc)).To(BeNil())

		d.Fork(t1, t2)
		d.Tick(t2)
		Expect(d.RecordRead(t2, loc)).To(BeNil())

		d.Join(t1, t2)
		d.Tick(t1)
		Expect(d.RecordWrite(t1, loc)).To(BeNil())
	})

	It("never races on a sequential program with a single thread", func() {
		for i := 0; i < 5; i++ {
			d.Tick(t1)
			Expect(d.RecordWrite(t1, loc)).To(BeNil())
			d.Tick(t1)
			Expect(d.RecordRead(t1, loc)).To(BeNil())
		}
	})

	Describe("Kind.String", func() {
		It("renders each kind distinctly", func() {
			Expect(race.ReadAfterWrite.String()).To(ContainSubstring("read/write"))
			Expect(race.WriteAfterWrite.String()).To(ContainSubstring("write/write"))
			Expect(race.WriteAfterRead.String()).To(ContainSubstring("write/read"))
		})
	})

	Describe("Race.Error", func() {
		It("produces a non-empty fallback message", func() {
			r := &race.Race{Location: loc, Kind: race.ReadAfterWrite, Thread: t1}
			Expect(r.Error()).NotTo(BeEmpty())
		})
	})
})
