package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"` // Permission UUIDs
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" binding:"required"`
}

type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	IsSystem    bool                 `json:"is_system"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   string               `json:"created_at"`
}

type PermissionResponse struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRole(ctx context.Context, id string) (*RoleResponse, error)
	CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, id string) error
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error)
	GetPermissionCodes(ctx context.Context, roleName string) ([]string, error)
	SeedDefaultRolesAndPermissions(ctx context.Context) error
}

type roleService struct {
	roleRepo  repository.RoleRepository
	txManager repository.TransactionManager
}

func NewRoleService(roleRepo repository.RoleRepository, txManager repository.TransactionManager) RoleService {
	return &roleService{roleRepo: roleRepo, txManager: txManager}
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.roleRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, id string) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid role id: %v", err)
	}

	role, err := s.roleRepo.FindByIDWithPermissions(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("role %s not found", id)
		}
		return nil, err
	}

	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *roleService) CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error) {
	permIDs, err := parsePermissionIDs(req.Permissions)
	if err != nil {
		return nil, err
	}

	role := model.Role{
		Name:        req.Name,
		Description: req.Description,
		IsSystem:    false,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.roleRepo.Create(txCtx, &role); createErr != nil {
			return fmt.Errorf("failed to create role: %w", createErr)
		}
		if len(permIDs) > 0 {
			if assignErr := s.roleRepo.ReplacePermissions(txCtx, role.ID, permIDs); assignErr != nil {
				return fmt.Errorf("failed to assign permissions: %w", assignErr)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetRole(ctx, role.ID.String())
}

func (s *roleService) UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("invalid role id: %v", err)
	}

	role, err := s.roleRepo.FindByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("role %s not found", id)
		}
		return nil, err
	}

	role.Name = req.Name
	role.Description = req.Description

	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	return s.GetRole(ctx, id)
}

func (s *roleService) DeleteRole(ctx context.Context, id string) error {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validation("invalid role id: %v", err)
	}

	role, err := s.roleRepo.FindByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("role %s not found", id)
		}
		return err
	}

	if role.IsSystem {
		return apperr.Forbidden("cannot delete system role '%s'", role.Name)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if clearErr := s.roleRepo.ReplacePermissions(txCtx, roleID, nil); clearErr != nil {
			return fmt.Errorf("failed to clear permissions: %w", clearErr)
		}
		if delErr := s.roleRepo.Delete(txCtx, roleID); delErr != nil {
			return fmt.Errorf("failed to delete role: %w", delErr)
		}
		return nil
	})
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.roleRepo.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p))
	}
	return res, nil
}

func (s *roleService) UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error) {
	id, err := uuid.Parse(roleID)
	if err != nil {
		return nil, apperr.Validation("invalid role id: %v", err)
	}

	permIDs, err := parsePermissionIDs(req.PermissionIDs)
	if err != nil {
		return nil, err
	}

	if _, err := s.roleRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("role %s not found", roleID)
		}
		return nil, err
	}

	if err := s.roleRepo.ReplacePermissions(ctx, id, permIDs); err != nil {
		return nil, fmt.Errorf("failed to update permissions: %w", err)
	}

	return s.GetRole(ctx, roleID)
}

func (s *roleService) GetPermissionCodes(ctx context.Context, roleName string) ([]string, error) {
	var stored []model.Permission
	if roleName != model.RoleAdmin {
		perms, err := s.roleRepo.GetPermissionsByRoleName(ctx, roleName)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch permissions for role '%s': %w", roleName, err)
		}
		stored = perms
	}

	set := model.ExpandPermissions(roleName, stored)
	codes := make([]string, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

// SeedDefaultRolesAndPermissions creates the default permissions and roles if not already present
func (s *roleService) SeedDefaultRolesAndPermissions(ctx context.Context) error {
	defaultPermissions := []model.Permission{
		{Code: "users.read", Name: "View users", Group: "users"},
		{Code: "users.write", Name: "Manage users", Group: "users"},
		{Code: "customers.read", Name: "View customers", Group: "customers"},
		{Code: "customers.write", Name: "Manage customers and credit limits", Group: "customers"},
		{Code: "catalog.read", Name: "View catalog", Group: "catalog"},
		{Code: "catalog.write", Name: "Manage catalog", Group: "catalog"},
		{Code: "orders.read", Name: "View orders", Group: "orders"},
		{Code: "orders.write", Name: "Create and update orders", Group: "orders"},
		{Code: "orders.assign", Name: "Assign orders to delivery agents", Group: "orders"},
		{Code: "bills.read", Name: "View bills", Group: "bills"},
		{Code: "bills.write", Name: "Generate and pay bills", Group: "bills"},
		{Code: "payments.read", Name: "View payment requests and transactions", Group: "payments"},
		{Code: "payments.write", Name: "Create and decide payment requests", Group: "payments"},
		{Code: "payments.settle", Name: "Settle forwarded collections", Group: "payments"},
		{Code: "wallet.read", Name: "View wallet transactions", Group: "wallet"},
		{Code: "wallet.settle", Name: "Settle wallet transactions", Group: "wallet"},
		{Code: "audit.read", Name: "View audit trail", Group: "audit"},
		{Code: "statistics.read", Name: "View statistics", Group: "statistics"},
		{Code: "roles.read", Name: "View roles", Group: "roles"},
		{Code: "roles.write", Name: "Manage roles and permissions", Group: "roles"},
	}

	permByCode := make(map[string]model.Permission, len(defaultPermissions))
	for i := range defaultPermissions {
		p := &defaultPermissions[i]
		existing, findErr := s.roleRepo.FindPermissionByCode(ctx, p.Code)
		if findErr != nil {
			if !errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to look up permission '%s': %w", p.Code, findErr)
			}
			if createErr := s.roleRepo.CreatePermission(ctx, p); createErr != nil {
				return fmt.Errorf("failed to seed permission '%s': %w", p.Code, createErr)
			}
		} else {
			p.ID = existing.ID
		}
		permByCode[p.Code] = *p
	}

	roleDefinitions := []struct {
		Name        string
		Description string
		PermCodes   []string
	}{
		{
			Name:        model.RoleAdmin,
			Description: "Administrator with full system access",
			PermCodes:   model.AdminPermissions,
		},
		{
			Name:        model.RoleSalesMan,
			Description: "Sales agent collecting bill payments in the field",
			PermCodes: []string{
				"customers.read", "orders.read",
				"bills.read", "payments.read", "payments.write",
			},
		},
		{
			Name:        model.RoleDeliveryMan,
			Description: "Delivery agent handling assigned orders and cash collection",
			PermCodes: []string{
				"orders.read", "orders.write",
				"bills.read", "payments.read", "payments.write",
				"wallet.read",
			},
		},
		{
			Name:        model.RoleCustomer,
			Description: "Customer placing orders and paying bills",
			PermCodes: []string{
				"catalog.read", "orders.read", "orders.write",
				"bills.read", "bills.write", "payments.read", "payments.write",
			},
		},
	}

	for _, def := range roleDefinitions {
		role, findErr := s.roleRepo.FindByName(ctx, def.Name)
		if findErr != nil {
			if !errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to look up role '%s': %w", def.Name, findErr)
			}
			role = &model.Role{
				Name:        def.Name,
				Description: def.Description,
				IsSystem:    true,
			}
			if createErr := s.roleRepo.Create(ctx, role); createErr != nil {
				return fmt.Errorf("failed to seed role '%s': %w", def.Name, createErr)
			}
		}

		permIDs := make([]uuid.UUID, 0, len(def.PermCodes))
		for _, code := range def.PermCodes {
			if p, ok := permByCode[code]; ok {
				permIDs = append(permIDs, p.ID)
			}
		}
		if err := s.roleRepo.ReplacePermissions(ctx, role.ID, permIDs); err != nil {
			return fmt.Errorf("failed to assign permissions to role '%s': %w", def.Name, err)
		}
	}

	return nil
}

// --- Helpers ---

func parsePermissionIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, pid := range raw {
		parsed, err := uuid.Parse(pid)
		if err != nil {
			return nil, apperr.Validation("invalid permission id '%s': %v", pid, err)
		}
		ids = append(ids, parsed)
	}
	return ids, nil
}

func toRoleResponse(r model.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, toPermissionResponse(p))
	}

	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Permissions: perms,
		CreatedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func toPermissionResponse(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:    p.ID.String(),
		Code:  p.Code,
		Name:  p.Name,
		Group: p.Group,
	}
}
