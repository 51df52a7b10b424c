package services

import (
	"errors"
	"testing"

	"github.com/ColorlessCube/fastapi-admin/internal/models"
	"github.com/ColorlessCube/fastapi-admin/pkg/response"
)

func TestRoleCreate_DuplicateName(t *testing.T) {
	db := newTestDB(t)
	svc := NewRoleService(db)

	if err := svc.Create(&models.Role{Name: "viewer", IsActive: true}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err := svc.Create(&models.Role{Name: "viewer", IsActive: true})
	var appErr *response.AppError
	if !errors.As(err, &appErr) || appErr.Code != response.CodeConflict {
		t.Errorf("duplicate name should conflict, got %v", err)
	}
}

func TestRoleCreate_InactivePersists(t *testing.T) {
	db := newTestDB(t)
	svc := NewRoleService(db)

	// An explicit false must survive the insert.
	if err := svc.Create(&models.Role{Name: "ghost", IsActive: false}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var got models.Role
	if err := db.Where("name = ?", "ghost").First(&got).Error; err != nil {
		t.Fatalf("reload role: %v", err)
	}
	if got.IsActive {
		t.Error("role created inactive was stored as active")
	}
}

func TestRoleDelete_InUse(t *testing.T) {
	db := newTestDB(t)
	svc := NewRoleService(db)

	role := models.Role{Name: "viewer", IsActive: true}
	mustCreate(t, db, &role)
	user := models.User{Username: "alice", Email: "alice@example.com", HashedPassword: "x", IsActive: true, Roles: []models.Role{role}}
	mustCreate(t, db, &user)

	err := svc.Delete(role.ID)
	var appErr *response.AppError
	if !errors.As(err, &appErr) || appErr.Code != response.CodeConflict {
		t.Errorf("deleting a held role should conflict, got %v", err)
	}

	if err := db.Model(&user).Association("Roles").Clear(); err != nil {
		t.Fatalf("clear association: %v", err)
	}
	if err := svc.Delete(role.ID); err != nil {
		t.Errorf("Delete() after detach error = %v", err)
	}
}

func TestRoleAssignAndRemovePermission(t *testing.T) {
	db := newTestDB(t)
	svc := NewRoleService(db)

	role := models.Role{Name: "viewer", IsActive: true}
	mustCreate(t, db, &role)
	perm := models.Permission{Name: "Read User", Code: "user:read", Resource: "user", Action: "read"}
	mustCreate(t, db, &perm)

	got, err := svc.AssignPermission(role.ID, perm.ID)
	if err != nil {
		t.Fatalf("AssignPermission() error = %v", err)
	}
	if len(got.Permissions) != 1 {
		t.Fatalf("role has %d permissions, expected 1", len(got.Permissions))
	}

	// Assigning twice stays idempotent.
	got, err = svc.AssignPermission(role.ID, perm.ID)
	if err != nil {
		t.Fatalf("AssignPermission() repeat error = %v", err)
	}
	if len(got.Permissions) != 1 {
		t.Errorf("repeat assign duplicated the grant: %d", len(got.Permissions))
	}

	got, err = svc.RemovePermission(role.ID, perm.ID)
	if err != nil {
		t.Fatalf("RemovePermission() error = %v", err)
	}
	if len(got.Permissions) != 0 {
		t.Errorf("role still has %d permissions after remove", len(got.Permissions))
	}
}

func TestRoleSetPermissions(t *testing.T) {
	db := newTestDB(t)
	svc := NewRoleService(db)

	role := models.Role{Name: "viewer", IsActive: true}
	mustCreate(t, db, &role)
	read := models.Permission{Name: "Read User", Code: "user:read", Resource: "user", Action: "read"}
	write := models.Permission{Name: "Update User", Code: "user:update", Resource: "user", Action: "update"}
	mustCreate(t, db, &read)
	mustCreate(t, db, &write)

	got, err := svc.SetPermissions(role.ID, []uint{read.ID, write.ID})
	if err != nil {
		t.Fatalf("SetPermissions() error = %v", err)
	}
	if len(got.Permissions) != 2 {
		t.Fatalf("role has %d permissions, expected 2", len(got.Permissions))
	}

	got, err = svc.SetPermissions(role.ID, []uint{write.ID})
	if err != nil {
		t.Fatalf("SetPermissions() error = %v", err)
	}
	if len(got.Permissions) != 1 || got.Permissions[0].Code != "user:update" {
		t.Errorf("unexpected permissions after replace: %+v", got.Permissions)
	}
}

func TestRoleSetPermissions_UnknownID(t *testing.T) {
	db := newTestDB(t)
	svc := NewRoleService(db)

	role := models.Role{Name: "viewer", IsActive: true}
	mustCreate(t, db, &role)

	_, err := svc.SetPermissions(role.ID, []uint{9999})
	var appErr *response.AppError
	if !errors.As(err, &appErr) || appErr.Code != response.CodeNotFound {
		t.Errorf("unknown permission id should fail, got %v", err)
	}
}
