// Package mocks provides test doubles for the pipeline package.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	model "github.com/tidyframe/tidyframe/internal/model"
)

// MockPrimaryParser is a mock type for the PrimaryParser interface.
type MockPrimaryParser struct {
	mock.Mock
}

// ParseName provides a mock function with given fields: ctx, text
func (_m *MockPrimaryParser) ParseName(ctx context.Context, text string) (model.ParsedName, error) {
	ret := _m.Called(ctx, text)

	if len(ret) == 0 {
		panic("no return value specified for ParseName")
	}

	var r0 model.ParsedName
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (model.ParsedName, error)); ok {
		return rf(ctx, text)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) model.ParsedName); ok {
		r0 = rf(ctx, text)
	} else {
		r0 = ret.Get(0).(model.ParsedName)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, text)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockPrimaryParser creates a new instance of MockPrimaryParser.
func NewMockPrimaryParser(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPrimaryParser {
	mock := &MockPrimaryParser{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
