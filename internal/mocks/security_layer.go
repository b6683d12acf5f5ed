package mocks

import (
	"net"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/authd/internal/model"
)

// SecurityLayer is a mock implementation of model.SecurityLayer.
type SecurityLayer struct {
	mock.Mock
}

var _ model.SecurityLayer = (*SecurityLayer)(nil)

// NewSecurityLayer creates a SecurityLayer mock whose expectations are asserted on cleanup.
func NewSecurityLayer(t interface {
	mock.TestingT
	Cleanup(func())
}) *SecurityLayer {
	m := &SecurityLayer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *SecurityLayer) Listen(protocol, addr string) (net.Listener, error) {
	args := m.Called(protocol, addr)
	l, _ := args.Get(0).(net.Listener)
	return l, args.Error(1)
}
