package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoleRepository interface {
	Create(ctx context.Context, role *model.Role) error
	Update(ctx context.Context, role *model.Role) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Role, error)
	FindByIDWithPermissions(ctx context.Context, id uuid.UUID) (*model.Role, error)
	FindByName(ctx context.Context, name string) (*model.Role, error)
	ListAll(ctx context.Context) ([]model.Role, error)
	ListPermissions(ctx context.Context) ([]model.Permission, error)
	CreatePermission(ctx context.Context, permission *model.Permission) error
	FindPermissionByCode(ctx context.Context, code string) (*model.Permission, error)
	GetPermissionsByRoleName(ctx context.Context, roleName string) ([]model.Permission, error)
	ReplacePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Create(role).Error
}

func (r *roleRepository) Update(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Save(role).Error
}

func (r *roleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Role{}).Error
}

func (r *roleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindByIDWithPermissions(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) ListAll(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").Order("created_at asc").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	if err := GetDB(ctx, r.db).Order("\"group\" asc, code asc").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *roleRepository) CreatePermission(ctx context.Context, permission *model.Permission) error {
	return GetDB(ctx, r.db).Create(permission).Error
}

func (r *roleRepository) FindPermissionByCode(ctx context.Context, code string) (*model.Permission, error) {
	var perm model.Permission
	if err := GetDB(ctx, r.db).Where("code = ?", code).First(&perm).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *roleRepository) GetPermissionsByRoleName(ctx context.Context, roleName string) ([]model.Permission, error) {
	var perms []model.Permission
	err := GetDB(ctx, r.db).Raw(`
		SELECT p.* FROM permissions p
		INNER JOIN role_permissions rp ON rp.permission_id = p.id
		INNER JOIN roles r ON r.id = rp.role_id
		WHERE r.name = ?
	`, roleName).Scan(&perms).Error
	if err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *roleRepository) ReplacePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	role := model.Role{ID: roleID}
	var perms []model.Permission
	if len(permissionIDs) > 0 {
		if err := GetDB(ctx, r.db).Where("id IN ?", permissionIDs).Find(&perms).Error; err != nil {
			return err
		}
	}
	return GetDB(ctx, r.db).Model(&role).Association("Permissions").Replace(perms)
}
