package validx_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aussiebroadwan/appraisal/pkg/idx"
	"github.com/aussiebroadwan/appraisal/pkg/validx"
	"github.com/stretchr/testify/require"
)

type inviteReq struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=manager appraiser"`
}

type nested struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=5"`
	ClientID string  `json:"clientId" validate:"required,ulid"`
	Property struct {
		City string `json:"city" validate:"required"`
	} `json:"property"`
}

func TestStructOK(t *testing.T) {
	require.NoError(t, validx.Struct(inviteReq{Email: "a@x.com", Role: "manager"}))
}

func TestStructFieldErrors(t *testing.T) {
	err := validx.Struct(inviteReq{Email: "nope", Role: "owner"})
	require.Error(t, err)

	ve, ok := validx.As(err)
	require.True(t, ok)
	require.Equal(t, map[string]string{
		"email": "must be a valid email address",
		"role":  "must be one of: manager, appraiser",
	}, ve.Fields)
	require.Equal(t, "validation failed: email: must be a valid email address; role: must be one of: manager, appraiser", ve.Error())
}

func TestStructNestedAndPointers(t *testing.T) {
	long := "too long"
	err := validx.Struct(nested{Name: &long, ClientID: "bad"})

	ve, ok := validx.As(err)
	require.True(t, ok)
	require.Equal(t, "must be at most 5 characters", ve.Fields["name"])
	require.Equal(t, "must be a valid identifier", ve.Fields["clientId"])
	require.Equal(t, "is required", ve.Fields["property.city"])

	ok2 := nested{ClientID: idx.New().String()}
	ok2.Property.City = "Perth"
	require.NoError(t, validx.Struct(ok2))
}

func TestAsUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("creating invite: %w", validx.Field("role", "owner cannot be invited"))

	ve, ok := validx.As(wrapped)
	require.True(t, ok)
	require.Equal(t, "owner cannot be invited", ve.Fields["role"])

	_, ok = validx.As(errors.New("boom"))
	require.False(t, ok)
}

type clearable struct {
	Avatar  *string `json:"avatar" validate:"omitnil,eq=|url,max=2048"`
	DueDate *string `json:"dueDate" validate:"omitnil,eq=|datetime=2006-01-02"`
}

func TestStructEmptyClears(t *testing.T) {
	empty := ""
	require.NoError(t, validx.Struct(clearable{Avatar: &empty, DueDate: &empty}))
	require.NoError(t, validx.Struct(clearable{}))

	avatar, due := "https://cdn.example.com/a.png", "2026-03-01"
	require.NoError(t, validx.Struct(clearable{Avatar: &avatar, DueDate: &due}))

	bad, badDate := "not a url", "01/03/2026"
	err := validx.Struct(clearable{Avatar: &bad, DueDate: &badDate})
	ve, ok := validx.As(err)
	require.True(t, ok)
	require.Equal(t, "must be a valid URL", ve.Fields["avatar"])
	require.Equal(t, "must be a date formatted as 2006-01-02", ve.Fields["dueDate"])
}
