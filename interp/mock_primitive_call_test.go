package interp_test

import (
	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/calyxgo/ctx"
	"github.com/sarchlab/calyxgo/interp"
	"github.com/sarchlab/calyxgo/ir"
)

var _ = Describe("Interpreter convergence call sequence", func() {
	It("calls a primitive's CombTick once per converged cycle and EdgeTick once per edge advance", func() {
		ctrl := gomock.NewController(GinkgoT())
		defer ctrl.Finish()

		mockPrim := NewMockPrimitive(ctrl)
		mockPrim.EXPECT().CombTick(gomock.Any()).Times(1)
		mockPrim.EXPECT().EdgeTick(gomock.Any()).Times(1)

		registry := interp.NewRegistry()
		registry.Register("mock_prim", func(map[string]uint64) (interp.Primitive, bool) {
			return mockPrim, true
		})

		c := ctx.NewBuilder().WithEntrypoint("main").Build()
		sig := &ir.Cell{Name: c.Interner.Intern("this"), Proto: ir.Prototype{Kind: ir.ProtoThis}}
		comp := ir.NewComponent(c.Interner.Intern("main"), sig)
		comp.AddCell(&ir.Cell{
			Name:  c.Interner.Intern("mocked"),
			Proto: ir.Prototype{Kind: ir.ProtoPrimitive, LibName: c.Interner.Intern("mock_prim")},
		})
		comp.Control = ir.Empty()
		c.AddComponent(comp)

		it, derr := interp.New(c, comp, registry)
		Expect(derr).To(BeNil())

		Expect(it.Step()).To(BeNil())
		Expect(it.Done()).To(BeTrue())
	})
})
