// Package mocks provides mock implementations for testing the integrations job system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our repository interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockJobRepository(ctrl)
//	mockRepo.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(result, nil)
package mocks

// Generate mock for JobRepository interface from internal/core package.
// This creates MockJobRepository with methods for all JobRepository interface methods:
// Enqueue, DueJobs, Claim, MarkSucceeded, MarkFailure, RequeueStale, GetByID, Stats
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_repository_mock.go github.com/trustedge/integrations/internal/core JobRepository
