package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pricescope/internal/dataprocessing"
	apperrors "pricescope/internal/errors"
	"pricescope/pkg/contracts/domain"
)

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) Render(table *dataprocessing.RecordTable, stats dataprocessing.StatsSummary, identity domain.Identity) ([]byte, []*apperrors.AppError, error) {
	args := m.Called(table, stats, identity)
	var data []byte
	if d := args.Get(0); d != nil {
		data = d.([]byte)
	}
	var warnings []*apperrors.AppError
	if w := args.Get(1); w != nil {
		warnings = w.([]*apperrors.AppError)
	}
	return data, warnings, args.Error(2)
}

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Fetch(ctx context.Context, userID string) (domain.RecordSet, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.RecordSet), args.Error(1)
}

func (m *mockSource) Close() error {
	return m.Called().Error(0)
}
