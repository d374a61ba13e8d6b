package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/flybasist/moai/internal/core"
)

// Очистка тестовых пользователей после теста
func cleanupTestUsers(t *testing.T, db *sql.DB, userIDs ...int64) {
	for _, id := range userIDs {
		if _, err := db.Exec("DELETE FROM users WHERE user_id = $1", id); err != nil {
			t.Logf("warning: failed to cleanup test data: %v", err)
		}
	}
}

func TestUserGetOrCreate(t *testing.T) {
	db := setupTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewUserRepository(db)
	testUserID := int64(999999101)
	defer cleanupTestUsers(t, db, testUserID)

	if err := repo.GetOrCreate(testUserID, "test_user", "Тест"); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	role, found, err := repo.RoleOf(testUserID)
	if err != nil {
		t.Fatalf("RoleOf failed: %v", err)
	}
	if !found {
		t.Fatal("user not found after GetOrCreate")
	}
	if role != core.RoleBase {
		t.Errorf("new user role = %v, want %v", role, core.RoleBase)
	}

	// Повторный вызов обновляет имена, но не трогает роль.
	if err := repo.SetRole(testUserID, core.RoleModerator); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}
	if err := repo.GetOrCreate(testUserID, "renamed_user", "Тест"); err != nil {
		t.Fatalf("second GetOrCreate failed: %v", err)
	}

	user, found, err := repo.Get(testUserID)
	if err != nil || !found {
		t.Fatalf("Get failed: found=%v err=%v", found, err)
	}
	if user.Role != core.RoleModerator {
		t.Errorf("role after re-registration = %v, want %v", user.Role, core.RoleModerator)
	}
	if user.Username != "renamed_user" {
		t.Errorf("username = %q, want %q", user.Username, "renamed_user")
	}
}

func TestUserRoleOfUnknown(t *testing.T) {
	db := setupTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewUserRepository(db)

	_, found, err := repo.RoleOf(999999999)
	if err != nil {
		t.Fatalf("RoleOf failed: %v", err)
	}
	if found {
		t.Error("unknown user reported as found")
	}
}

func TestUserSetRoleMissing(t *testing.T) {
	db := setupTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewUserRepository(db)

	err := repo.SetRole(999999999, core.RoleAdmin)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("SetRole(missing) = %v, want sql.ErrNoRows", err)
	}
}
