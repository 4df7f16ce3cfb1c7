package interp_test

// Hand-written in the shape mockgen would produce for interp.Primitive
// (5 methods, no generated-file dependency) since no sanctioned way to
// invoke mockgen exists in this build: a small interface is cheaper to
// mock by hand than to fake a code-generation step.

import (
	reflect "reflect"

	gomock "github.com/golang/mock/gomock"

	"github.com/sarchlab/calyxgo/interp"
)

// MockPrimitive is a mock of the interp.Primitive interface.
type MockPrimitive struct {
	ctrl     *gomock.Controller
	recorder *MockPrimitiveMockRecorder
}

// MockPrimitiveMockRecorder is the mock recorder for MockPrimitive.
type MockPrimitiveMockRecorder struct {
	mock *MockPrimitive
}

// NewMockPrimitive creates a new mock instance.
func NewMockPrimitive(ctrl *gomock.Controller) *MockPrimitive {
	mock := &MockPrimitive{ctrl: ctrl}
	mock.recorder = &MockPrimitiveMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockPrimitive) EXPECT() *MockPrimitiveMockRecorder {
	return m.recorder
}

// CombTick mocks base method.
func (m *MockPrimitive) CombTick(p interp.PortAccess) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "CombTick", p)
}

// CombTick indicates an expected call of CombTick.
func (mr *MockPrimitiveMockRecorder) CombTick(p any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CombTick", reflect.TypeOf((*MockPrimitive)(nil).CombTick), p)
}

// EdgeTick mocks base method.
func (m *MockPrimitive) EdgeTick(p interp.PortAccess) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "EdgeTick", p)
}

// EdgeTick indicates an expected call of EdgeTick.
func (mr *MockPrimitiveMockRecorder) EdgeTick(p any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "EdgeTick", reflect.TypeOf((*MockPrimitive)(nil).EdgeTick), p)
}

// SerializesState mocks base method.
func (m *MockPrimitive) SerializesState() bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SerializesState")
	ret0, _ := ret[0].(bool)
	return ret0
}

// SerializesState indicates an expected call of SerializesState.
func (mr *MockPrimitiveMockRecorder) SerializesState() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SerializesState", reflect.TypeOf((*MockPrimitive)(nil).SerializesState))
}

// SaveState mocks base method.
func (m *MockPrimitive) SaveState() []byte {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SaveState")
	ret0, _ := ret[0].([]byte)
	return ret0
}

// SaveState indicates an expected call of SaveState.
func (mr *MockPrimitiveMockRecorder) SaveState() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SaveState", reflect.TypeOf((*MockPrimitive)(nil).SaveState))
}

// LoadState mocks base method.
func (m *MockPrimitive) LoadState(data []byte) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "LoadState", data)
}

// LoadState indicates an expected call of LoadState.
func (mr *MockPrimitiveMockRecorder) LoadState(data any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "LoadState", reflect.TypeOf((*MockPrimitive)(nil).LoadState), data)
}
