// Package mocks provides gomock implementations of the store ports.
//
// To regenerate after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	users := mocks.NewMockUserStore(ctrl)
//	users.EXPECT().FindByID(gomock.Any(), "id-1").Return(user, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=user_store_mock.go github.com/target/staff-portal/internal/ports UserStore
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=role_store_mock.go github.com/target/staff-portal/internal/ports RoleStore
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=claim_store_mock.go github.com/target/staff-portal/internal/ports ClaimStore
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=credential_store_mock.go github.com/target/staff-portal/internal/ports CredentialStore
