package data

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/staff-portal/internal/domain/model"
	apperrors "github.com/target/staff-portal/internal/errors"
	"github.com/target/staff-portal/internal/ports"
	"github.com/target/staff-portal/internal/testutil"
)

func newUser(email, role string, at time.Time) ports.NewUser {
	return ports.NewUser{
		Email:        email,
		UserName:     email,
		FirstName:    "Grace",
		LastName:     "Hopper",
		RegisteredAt: at,
		PasswordHash: "plain$Passw0rd!",
		Role:         role,
	}
}

func TestUserRepo_CreateFindUpdateDelete(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewUserRepo(db)
		at := testutil.TestTime()
		email := testutil.UniqueEmail("grace")

		u, err := repo.Create(ctx, newUser(email, "User", at))
		require.NoError(t, err)
		require.NotEmpty(t, u.ID)
		assert.Equal(t, email, u.UserName)
		assert.True(t, at.Equal(u.RegisteredAt))

		roles, err := repo.RolesFor(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"User"}, roles)

		got, err := repo.FindByEmail(ctx, "  "+strings.ToUpper(email)+" ")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		id, hash, err := repo.PasswordHash(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, u.ID, id)
		assert.Equal(t, "plain$Passw0rd!", hash)

		got.FirstName = "Amazing"
		got.Email = testutil.UniqueEmail("amazing")
		got.UserName = got.Email
		updated, err := repo.Update(ctx, got)
		require.NoError(t, err)
		assert.Equal(t, "Amazing", updated.FirstName)
		assert.True(t, at.Equal(updated.RegisteredAt), "registration date is not editable")

		require.NoError(t, repo.Delete(ctx, u.ID))
		_, err = repo.FindByID(ctx, u.ID)
		assert.True(t, apperrors.IsNotFound(err))

		require.NoError(t, repo.Delete(ctx, u.ID), "second delete is a no-op")
		require.NoError(t, repo.Delete(ctx, "not-a-uuid"))
	})
}

func TestUserRepo_Create_UnknownRoleRollsBack(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewUserRepo(db)
		email := testutil.UniqueEmail("ghost")

		_, err := repo.Create(ctx, newUser(email, "Wizard", testutil.TestTime()))
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		assert.Equal(t, "role", apperrors.GetField(err))

		_, err = repo.FindByEmail(ctx, email)
		assert.True(t, apperrors.IsNotFound(err), "user row must not survive a failed role assignment")
	})
}

func TestUserRepo_Create_DuplicateEmailIsConflict(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewUserRepo(db)
		email := testutil.UniqueEmail("dup")

		_, err := repo.Create(ctx, newUser(email, "User", testutil.TestTime()))
		require.NoError(t, err)

		_, err = repo.Create(ctx, newUser(strings.ToUpper(email), "User", testutil.TestTime()))
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestUserRepo_List_OrdersByRegistration(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewUserRepo(db)
		base := testutil.TestTime()

		late, err := repo.Create(ctx, newUser(testutil.UniqueEmail("late"), "User", base.Add(time.Hour)))
		require.NoError(t, err)
		early, err := repo.Create(ctx, newUser(testutil.UniqueEmail("early"), "Admin", base))
		require.NoError(t, err)

		users, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, early.ID, users[0].ID)
		assert.Equal(t, late.ID, users[1].ID)
	})
}

func TestUserRepo_Create_DefaultsRegisteredAt(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		fixed := time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)
		repo := NewUserRepoWithTimeProvider(db, NewFixedTimeProvider(fixed))

		u, err := repo.Create(context.Background(), newUser(testutil.UniqueEmail("leap"), "User", time.Time{}))
		require.NoError(t, err)
		assert.True(t, fixed.Equal(u.RegisteredAt))
	})
}

func TestUserRepo_FindByID_Missing(t *testing.T) {
	repo := NewUserRepo(nil)
	_, err := repo.FindByID(context.Background(), "nope")
	assert.True(t, apperrors.IsNotFound(err), "malformed ids never reach the database")
}

func TestUserRepo_AssignRole(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewUserRepo(db)
		u, err := repo.Create(ctx, newUser(testutil.UniqueEmail("ops"), "User", testutil.TestTime()))
		require.NoError(t, err)

		require.NoError(t, repo.AssignRole(ctx, u.ID, "admin"))
		require.NoError(t, repo.AssignRole(ctx, u.ID, "Admin"))
		roles, err := repo.RolesFor(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"Admin", "User"}, roles)

		err = repo.AssignRole(ctx, u.ID, "Wizard")
		assert.Equal(t, "role", apperrors.GetField(err))
	})
}

func TestRoleAndClaimRepos(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()

		names, err := NewRoleRepo(db).ListNames(ctx)
		require.NoError(t, err)
		assert.Subset(t, names, []string{"Admin", "User"})
		ok, err := NewRoleRepo(db).Exists(ctx, "admin")
		require.NoError(t, err)
		assert.True(t, ok)

		u, err := NewUserRepo(db).Create(ctx, newUser(testutil.UniqueEmail("claims"), "User", testutil.TestTime()))
		require.NoError(t, err)

		claims := NewClaimRepo(db)
		require.NoError(t, claims.Set(ctx, model.Claim{UserID: u.ID, Type: "EmploymentStartDate", Value: "2019-01-01"}))
		require.NoError(t, claims.Set(ctx, model.Claim{UserID: u.ID, Type: "EmploymentStartDate", Value: "2018-06-30"}))
		require.NoError(t, claims.Set(ctx, model.Claim{UserID: u.ID, Type: "AdminClaim", Value: "true"}))

		list, err := claims.ListFor(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "AdminClaim", list[0].Type)
		assert.Equal(t, "2018-06-30", list[1].Value)

		require.NoError(t, claims.Remove(ctx, u.ID, "AdminClaim"))
		require.NoError(t, claims.Remove(ctx, u.ID, "AdminClaim"))
		list, err = claims.ListFor(ctx, u.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}
