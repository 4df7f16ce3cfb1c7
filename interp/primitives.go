package interp

// Fixed port-name vocabulary the concrete primitives below are written
// against, matching the standard-cell library's own naming.
const (
	portIn        = "in"
	portOut       = "out"
	portWriteEn   = "write_en"
	portGo        = "go"
	portDone      = "done"
	portLeft      = "left"
	portRight     = "right"
	portQuotient  = "out_quotient"
	portRemainder = "out_remainder"
	portAddr0     = "addr0"
	portWriteData = "write_data"
	portReadData  = "read_data"
	portContentEn = "content_en"
	portReset     = "reset"
)

// Register is std_reg: latches `in` on EdgeTick when write_en & !reset
// is truthy, zeros on reset, pulses `done` for one cycle after a
// write, and serves a defined zero on reads before any write.
type Register struct {
	width     uint64
	value     uint64
	wroteLast bool
}

// NewRegister creates a Register of the given width.
func NewRegister(width uint64) *Register { return &Register{width: width} }

func (r *Register) CombTick(p PortAccess) {
	p.Set(portOut, Of(r.value, r.width))
	p.Set(portDone, boolValue(r.wroteLast))
}

func (r *Register) EdgeTick(p PortAccess) {
	if p.Get(portReset).Truthy() {
		r.value = 0
		r.wroteLast = false
		return
	}
	we := p.Get(portWriteEn)
	if we.Truthy() {
		in := p.Get(portIn)
		if in.Defined {
			r.value = in.Bits
		}
		r.wroteLast = true
	} else {
		r.wroteLast = false
	}
}

func (r *Register) SerializesState() bool { return true }
func (r *Register) SaveState() []byte     { return encodeU64(r.value) }
func (r *Register) LoadState(b []byte)    { r.value = decodeU64(b) }

// Constant is std_const: drives `out` unconditionally, forever.
type Constant struct {
	value, width uint64
}

// NewConstant creates a Constant cell holding value at width.
func NewConstant(value, width uint64) *Constant { return &Constant{value: value, width: width} }

func (c *Constant) CombTick(p PortAccess) { p.Set(portOut, Of(c.value, c.width)) }
func (c *Constant) EdgeTick(PortAccess)   {}
func (c *Constant) SerializesState() bool { return false }
func (c *Constant) SaveState() []byte     { return nil }
func (c *Constant) LoadState([]byte)      {}

type pipeSlot struct {
	left, right uint64
	valid       bool
}

// Multiplier is std_mult_pipe: a depth-D shift-register pipeline. Each
// cycle while `go` holds, a fresh (left, right) pair enters the
// pipeline and the oldest pair's product exits with a one-cycle `done`
// pulse.
type Multiplier struct {
	width, depth uint64
	buf          []pipeSlot
	result       uint64
	doneNow      bool
}

// NewMultiplier creates a Multiplier of the given width and pipeline
// depth.
func NewMultiplier(width, depth uint64) *Multiplier {
	if depth == 0 {
		depth = 1
	}
	return &Multiplier{width: width, depth: depth, buf: make([]pipeSlot, depth)}
}

func (m *Multiplier) CombTick(p PortAccess) {
	p.Set(portOut, Of(m.result, m.width))
	p.Set(portDone, boolValue(m.doneNow))
}

func (m *Multiplier) EdgeTick(p PortAccess) {
	go_ := p.Get(portGo)
	exiting := m.buf[len(m.buf)-1]
	copy(m.buf[1:], m.buf[:len(m.buf)-1])
	if go_.Truthy() {
		left, right := p.Get(portLeft), p.Get(portRight)
		m.buf[0] = pipeSlot{left: left.Bits, right: right.Bits, valid: left.Defined && right.Defined}
	} else {
		m.buf[0] = pipeSlot{}
	}
	if exiting.valid {
		m.result = mask(exiting.left*exiting.right, m.width)
		m.doneNow = true
	} else {
		m.doneNow = false
	}
}

func (m *Multiplier) SerializesState() bool { return true }
func (m *Multiplier) SaveState() []byte     { return encodeU64(m.result) }
func (m *Multiplier) LoadState(b []byte)    { m.result = decodeU64(b) }

// Divider is std_div_pipe: like Multiplier but produces a quotient and
// remainder pair. Division by zero produces an undefined result rather
// than panicking.
type Divider struct {
	width, depth        uint64
	buf                 []pipeSlot
	quotient, remainder uint64
	resultDefined       bool
	doneNow             bool
}

// NewDivider creates a Divider of the given width and pipeline depth.
func NewDivider(width, depth uint64) *Divider {
	if depth == 0 {
		depth = 1
	}
	return &Divider{width: width, depth: depth, buf: make([]pipeSlot, depth)}
}

func (d *Divider) CombTick(p PortAccess) {
	p.Set(portQuotient, valueOrUndef(d.resultDefined, d.quotient, d.width))
	p.Set(portRemainder, valueOrUndef(d.resultDefined, d.remainder, d.width))
	p.Set(portDone, boolValue(d.doneNow))
}

func valueOrUndef(defined bool, bits, width uint64) Value {
	if !defined {
		return Undef(width)
	}
	return Of(bits, width)
}

func (d *Divider) EdgeTick(p PortAccess) {
	go_ := p.Get(portGo)
	exiting := d.buf[len(d.buf)-1]
	copy(d.buf[1:], d.buf[:len(d.buf)-1])
	if go_.Truthy() {
		left, right := p.Get(portLeft), p.Get(portRight)
		d.buf[0] = pipeSlot{left: left.Bits, right: right.Bits, valid: left.Defined && right.Defined}
	} else {
		d.buf[0] = pipeSlot{}
	}
	if exiting.valid {
		d.doneNow = true
		if exiting.right == 0 {
			d.resultDefined = false
		} else {
			d.quotient = mask(exiting.left/exiting.right, d.width)
			d.remainder = mask(exiting.left%exiting.right, d.width)
			d.resultDefined = true
		}
	} else {
		d.doneNow = false
	}
}

func (d *Divider) SerializesState() bool { return true }
func (d *Divider) SaveState() []byte     { return append(encodeU64(d.quotient), encodeU64(d.remainder)...) }
func (d *Divider) LoadState(b []byte) {
	d.quotient = decodeU64(b[:8])
	d.remainder = decodeU64(b[8:])
}

// CombMemory is comb_mem_d1: combinational read, edge-triggered write,
// one-cycle `done` pulse the cycle after a write. An out-of-range
// address reads as undefined.
type CombMemory struct {
	width, size, idxWidth uint64
	mem                   []uint64
	wroteLast             bool
}

// NewCombMemory creates a CombMemory with the given data width, cell
// count, and address width.
func NewCombMemory(width, size, idxWidth uint64) *CombMemory {
	return &CombMemory{width: width, size: size, idxWidth: idxWidth, mem: make([]uint64, size)}
}

func (c *CombMemory) CombTick(p PortAccess) {
	addr := p.Get(portAddr0)
	p.Set(portDone, boolValue(c.wroteLast))
	if !addr.Defined || addr.Bits >= c.size {
		p.Set(portReadData, Undef(c.width))
		return
	}
	p.Set(portReadData, Of(c.mem[addr.Bits], c.width))
}

func (c *CombMemory) EdgeTick(p PortAccess) {
	we := p.Get(portWriteEn)
	if !we.Truthy() {
		c.wroteLast = false
		return
	}
	addr := p.Get(portAddr0)
	data := p.Get(portWriteData)
	if addr.Defined && addr.Bits < c.size && data.Defined {
		c.mem[addr.Bits] = mask(data.Bits, c.width)
	}
	c.wroteLast = true
}

func (c *CombMemory) SerializesState() bool { return true }
func (c *CombMemory) SaveState() []byte     { return encodeU64Slice(c.mem) }
func (c *CombMemory) LoadState(b []byte)    { c.mem = decodeU64Slice(b) }

// SeqMemory is seq_mem_d1: an operation (read or write) is requested
// via content_en (and write_en for a write); the read result becomes
// available the cycle after the request, and done pulses one cycle
// after any enabled operation, matching a registered-output memory.
type SeqMemory struct {
	width, size, idxWidth uint64
	mem                   []uint64
	readResult            uint64
	readDefined           bool
	doneNow               bool
}

// NewSeqMemory creates a SeqMemory with the given data width, cell
// count, and address width.
func NewSeqMemory(width, size, idxWidth uint64) *SeqMemory {
	return &SeqMemory{width: width, size: size, idxWidth: idxWidth, mem: make([]uint64, size)}
}

func (s *SeqMemory) CombTick(p PortAccess) {
	p.Set(portDone, boolValue(s.doneNow))
	p.Set(portReadData, valueOrUndef(s.readDefined, s.readResult, s.width))
}

func (s *SeqMemory) EdgeTick(p PortAccess) {
	en := p.Get(portContentEn)
	if !en.Truthy() {
		s.doneNow = false
		return
	}
	addr := p.Get(portAddr0)
	we := p.Get(portWriteEn)
	inRange := addr.Defined && addr.Bits < s.size
	if we.Truthy() {
		data := p.Get(portWriteData)
		if inRange && data.Defined {
			s.mem[addr.Bits] = mask(data.Bits, s.width)
		}
		s.readDefined = false
	} else if inRange {
		s.readResult = s.mem[addr.Bits]
		s.readDefined = true
	} else {
		s.readDefined = false
	}
	s.doneNow = true
}

func (s *SeqMemory) SerializesState() bool { return true }
func (s *SeqMemory) SaveState() []byte     { return encodeU64Slice(s.mem) }
func (s *SeqMemory) LoadState(b []byte)    { s.mem = decodeU64Slice(b) }

// Sqrt is std_sqrt/std_fp_sqrt: one-cycle latency integer or
// fixed-point (Q(width/2).(width/2), truncating) square root.
type Sqrt struct {
	width     uint64
	fixed     bool
	result    uint64
	doneNow   bool
}

// NewSqrt creates a Sqrt primitive. fixed selects the fixed-point
// variant, which treats the low half of the input's bits as fraction
// bits and produces a result in the same format.
func NewSqrt(width uint64, fixed bool) *Sqrt { return &Sqrt{width: width, fixed: fixed} }

func (s *Sqrt) CombTick(p PortAccess) {
	p.Set(portOut, Of(s.result, s.width))
	p.Set(portDone, boolValue(s.doneNow))
}

func (s *Sqrt) EdgeTick(p PortAccess) {
	go_ := p.Get(portGo)
	if !go_.Truthy() {
		s.doneNow = false
		return
	}
	in := p.Get(portIn)
	if !in.Defined {
		s.doneNow = true
		return
	}
	if s.fixed {
		frac := s.width / 2
		scaled := in.Bits << frac
		s.result = mask(isqrt(scaled), s.width)
	} else {
		s.result = mask(isqrt(in.Bits), s.width)
	}
	s.doneNow = true
}

func isqrt(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}

func (s *Sqrt) SerializesState() bool { return false }
func (s *Sqrt) SaveState() []byte     { return nil }
func (s *Sqrt) LoadState([]byte)      {}

// Slice is std_slice: a pure combinational narrowing, taking the low
// OUT_WIDTH bits of an IN_WIDTH-bit input.
type Slice struct{ inWidth, outWidth uint64 }

// NewSlice creates a Slice primitive.
func NewSlice(inWidth, outWidth uint64) *Slice { return &Slice{inWidth: inWidth, outWidth: outWidth} }

func (s *Slice) CombTick(p PortAccess) {
	in := p.Get(portIn)
	if !in.Defined {
		p.Set(portOut, Undef(s.outWidth))
		return
	}
	p.Set(portOut, Of(in.Bits, s.outWidth))
}
func (s *Slice) EdgeTick(PortAccess)      {}
func (s *Slice) SerializesState() bool    { return false }
func (s *Slice) SaveState() []byte        { return nil }
func (s *Slice) LoadState([]byte)         {}

// Pad is std_pad: a pure combinational zero-extension from IN_WIDTH to
// OUT_WIDTH bits.
type Pad struct{ inWidth, outWidth uint64 }

// NewPad creates a Pad primitive.
func NewPad(inWidth, outWidth uint64) *Pad { return &Pad{inWidth: inWidth, outWidth: outWidth} }

func (pd *Pad) CombTick(p PortAccess) {
	in := p.Get(portIn)
	if !in.Defined {
		p.Set(portOut, Undef(pd.outWidth))
		return
	}
	p.Set(portOut, Of(in.Bits, pd.outWidth))
}
func (pd *Pad) EdgeTick(PortAccess)      {}
func (pd *Pad) SerializesState() bool    { return false }
func (pd *Pad) SaveState() []byte        { return nil }
func (pd *Pad) LoadState([]byte)         {}

// Concat is std_cat: a pure combinational bit concatenation of `left`
// (the high bits) and `right` (the low bits).
type Concat struct{ leftWidth, rightWidth uint64 }

// NewConcat creates a Concat primitive.
func NewConcat(leftWidth, rightWidth uint64) *Concat {
	return &Concat{leftWidth: leftWidth, rightWidth: rightWidth}
}

func (c *Concat) CombTick(p PortAccess) {
	left, right := p.Get(portLeft), p.Get(portRight)
	if !left.Defined || !right.Defined {
		p.Set(portOut, Undef(c.leftWidth+c.rightWidth))
		return
	}
	combined := (left.Bits << c.rightWidth) | right.Bits
	p.Set(portOut, Of(combined, c.leftWidth+c.rightWidth))
}
func (c *Concat) EdgeTick(PortAccess)      {}
func (c *Concat) SerializesState() bool    { return false }
func (c *Concat) SaveState() []byte        { return nil }
func (c *Concat) LoadState([]byte)         {}

// Wire is std_wire: a pure combinational pass-through, used as an
// interface stub by the component inliner.
type Wire struct{ width uint64 }

// NewWire creates a Wire primitive of the given width.
func NewWire(width uint64) *Wire { return &Wire{width: width} }

func (w *Wire) CombTick(p PortAccess) { p.Set(portOut, p.Get(portIn)) }
func (w *Wire) EdgeTick(PortAccess)   {}
func (w *Wire) SerializesState() bool { return false }
func (w *Wire) SaveState() []byte     { return nil }
func (w *Wire) LoadState([]byte)      {}

func boolValue(b bool) Value {
	if b {
		return Of(1, 1)
	}
	return Zero(1)
}
