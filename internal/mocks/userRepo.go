package mocks

import (
	"context"

	"github.com/cradoe/coinledger/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetOne(ctx context.Context, id int64) (*models.User, bool, error) {
	args := m.Called(id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Bool(1), args.Error(2)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	args := m.Called(email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Bool(1), args.Error(2)
}
