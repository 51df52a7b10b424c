package services

import (
	"errors"
	"testing"

	"github.com/ColorlessCube/fastapi-admin/internal/models"
	"github.com/ColorlessCube/fastapi-admin/internal/utils"
	"github.com/ColorlessCube/fastapi-admin/pkg/response"
)

func seedUser(t *testing.T, svc *UserService, username, email, password string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: email, IsActive: true}
	if err := svc.Create(user, password); err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return user
}

func TestAuthenticate(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	seedUser(t, svc, "alice", "alice@example.com", "secret123")

	tests := []struct {
		name       string
		identifier string
		password   string
		found      bool
	}{
		{"by username", "alice", "secret123", true},
		{"by email", "alice@example.com", "secret123", true},
		{"wrong password", "alice", "wrong", false},
		{"unknown identifier", "nobody", "secret123", false},
		{"empty password", "alice", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Authenticate(tt.identifier, tt.password)
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if (user != nil) != tt.found {
				t.Errorf("Authenticate() = %v, expected found=%v", user, tt.found)
			}
		})
	}
}

func TestUpdateLoginInfo(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	user := seedUser(t, svc, "alice", "alice@example.com", "secret123")

	if err := svc.UpdateLoginInfo(user.ID, "203.0.113.7"); err != nil {
		t.Fatalf("UpdateLoginInfo() error = %v", err)
	}

	got, _ := svc.GetByID(user.ID)
	if got.LoginCount != 1 {
		t.Errorf("LoginCount = %d, expected 1", got.LoginCount)
	}
	if got.LastLoginIP != "203.0.113.7" {
		t.Errorf("LastLoginIP = %q", got.LastLoginIP)
	}
	if got.LastLoginAt == nil {
		t.Error("LastLoginAt should be set")
	}
}

func TestUpdateLoginInfo_NegativeCounterClamped(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	user := seedUser(t, svc, "alice", "alice@example.com", "secret123")

	db.Model(&models.User{}).Where("id = ?", user.ID).Update("login_count", -7)

	if err := svc.UpdateLoginInfo(user.ID, "10.0.0.1"); err != nil {
		t.Fatalf("UpdateLoginInfo() error = %v", err)
	}

	got, _ := svc.GetByID(user.ID)
	if got.LoginCount != 1 {
		t.Errorf("LoginCount = %d, expected clamp to 0 then increment to 1", got.LoginCount)
	}
}

func TestUserCreate_Duplicate(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	seedUser(t, svc, "alice", "alice@example.com", "secret123")

	tests := []struct {
		name     string
		username string
		email    string
	}{
		{"duplicate username", "alice", "other@example.com"},
		{"duplicate email", "other", "alice@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Create(&models.User{Username: tt.username, Email: tt.email, IsActive: true}, "pw123456")
			var appErr *response.AppError
			if !errors.As(err, &appErr) || appErr.Code != response.CodeConflict {
				t.Errorf("expected conflict, got %v", err)
			}
		})
	}
}

func TestUserCreate_HashesPassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	user := seedUser(t, svc, "alice", "alice@example.com", "secret123")

	var raw models.User
	db.First(&raw, user.ID)
	if raw.HashedPassword == "secret123" {
		t.Error("password stored in plaintext")
	}
	if !utils.CheckPassword("secret123", raw.HashedPassword) {
		t.Error("stored hash does not verify against original password")
	}
}

func TestUserDelete_Self(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	user := seedUser(t, svc, "alice", "alice@example.com", "secret123")

	err := svc.Delete(user.ID, user.ID)
	var appErr *response.AppError
	if !errors.As(err, &appErr) || appErr.Code != response.CodeBadRequest {
		t.Errorf("self delete should be rejected, got %v", err)
	}
}

func TestUserDelete_Other(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	admin := seedUser(t, svc, "admin", "admin@example.com", "secret123")
	victim := seedUser(t, svc, "bob", "bob@example.com", "secret123")

	if err := svc.Delete(victim.ID, admin.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.GetByID(victim.ID); err == nil {
		t.Error("deleted user should not be retrievable")
	}
}

func TestChangePassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	user := seedUser(t, svc, "alice", "alice@example.com", "oldpass123")

	if err := svc.ChangePassword(user.ID, "wrongpass", "newpass123"); err == nil {
		t.Error("wrong current password should be rejected")
	}

	if err := svc.ChangePassword(user.ID, "oldpass123", "newpass123"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}

	if got, _ := svc.Authenticate("alice", "newpass123"); got == nil {
		t.Error("new password should authenticate")
	}
	if got, _ := svc.Authenticate("alice", "oldpass123"); got != nil {
		t.Error("old password should no longer authenticate")
	}
}

func TestReplaceRoles(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	user := seedUser(t, svc, "alice", "alice@example.com", "secret123")

	viewer := models.Role{Name: "viewer", IsActive: true}
	editor := models.Role{Name: "editor", IsActive: true}
	auditor := models.Role{Name: "auditor", IsActive: true}
	mustCreate(t, db, &viewer)
	mustCreate(t, db, &editor)
	mustCreate(t, db, &auditor)

	got, err := svc.ReplaceRoles(user.ID, []uint{viewer.ID, editor.ID})
	if err != nil {
		t.Fatalf("ReplaceRoles() error = %v", err)
	}
	if len(got.Roles) != 2 {
		t.Fatalf("user has %d roles, expected 2", len(got.Roles))
	}

	// Swap editor for auditor; viewer survives, editor goes.
	got, err = svc.ReplaceRoles(user.ID, []uint{viewer.ID, auditor.ID})
	if err != nil {
		t.Fatalf("ReplaceRoles() error = %v", err)
	}

	names := map[string]bool{}
	for _, r := range got.Roles {
		names[r.Name] = true
	}
	if !names["viewer"] || !names["auditor"] || names["editor"] {
		t.Errorf("unexpected role set after replace: %v", names)
	}
}

func TestReplaceRoles_UnknownRole(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	user := seedUser(t, svc, "alice", "alice@example.com", "secret123")

	_, err := svc.ReplaceRoles(user.ID, []uint{9999})
	var appErr *response.AppError
	if !errors.As(err, &appErr) || appErr.Code != response.CodeNotFound {
		t.Errorf("unknown role id should fail the whole call, got %v", err)
	}

	got, _ := svc.GetByID(user.ID)
	if len(got.Roles) != 0 {
		t.Error("failed replace must not change assignments")
	}
}

func TestUserList_Search(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	seedUser(t, svc, "alice", "alice@example.com", "secret123")
	seedUser(t, svc, "bob", "bob@example.com", "secret123")

	users, total, err := svc.List(0, 10, "ali")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 1 || len(users) != 1 || users[0].Username != "alice" {
		t.Errorf("search returned %d users (total %d): %+v", len(users), total, users)
	}

	_, total, err = svc.List(0, 10, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 2 {
		t.Errorf("unfiltered total = %d, expected 2", total)
	}
}

func TestReplaceRoles_Empty(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	user := seedUser(t, svc, "alice", "alice@example.com", "secret123")

	viewer := models.Role{Name: "viewer", IsActive: true}
	mustCreate(t, db, &viewer)
	if _, err := svc.ReplaceRoles(user.ID, []uint{viewer.ID}); err != nil {
		t.Fatalf("ReplaceRoles() error = %v", err)
	}

	got, err := svc.ReplaceRoles(user.ID, nil)
	if err != nil {
		t.Fatalf("ReplaceRoles(nil) error = %v", err)
	}
	if len(got.Roles) != 0 {
		t.Errorf("empty replace should clear roles, got %d", len(got.Roles))
	}
}
