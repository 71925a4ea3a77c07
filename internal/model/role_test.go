package model_test

import (
	"testing"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestExpandPermissions(t *testing.T) {
	stored := []model.Permission{{Code: "orders.read"}, {Code: "orders.write"}}

	t.Run("admin ignores stored grants and gets the fixed table", func(t *testing.T) {
		set := model.ExpandPermissions(model.RoleAdmin, stored)

		assert.Len(t, set, len(model.AdminPermissions))
		for _, code := range model.AdminPermissions {
			assert.True(t, set[code], code)
		}
	})

	t.Run("other roles get exactly their stored codes", func(t *testing.T) {
		set := model.ExpandPermissions(model.RoleCustomer, stored)

		assert.Equal(t, map[string]bool{"orders.read": true, "orders.write": true}, set)
	})

	t.Run("role with no grants expands to empty", func(t *testing.T) {
		assert.Empty(t, model.ExpandPermissions(model.RoleDeliveryMan, nil))
	})
}
