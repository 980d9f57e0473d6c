package auth_test

import (
	"testing"

	"github.com/tobsdb/memdb/internal/auth"
	"gotest.tools/assert"
)

func TestUser(t *testing.T) {
	user, err := auth.NewUser("tobs", "secret", auth.TdbUserRoleReadWrite)
	assert.NilError(t, err)
	assert.Assert(t, len(user.Id) > 0)
	assert.Assert(t, string(user.Password) != "secret")

	assert.Assert(t, user.ValidateUser("secret"))
	assert.Assert(t, !user.ValidateUser("wrong"))

	assert.Assert(t, user.HasClearance(auth.TdbUserRoleReadOnly))
	assert.Assert(t, user.HasClearance(auth.TdbUserRoleReadWrite))
	assert.Assert(t, !user.HasClearance(auth.TdbUserRoleAdmin))
}

func TestParseRole(t *testing.T) {
	for in, want := range map[string]auth.TdbUserRole{
		"admin":     auth.TdbUserRoleAdmin,
		"readWrite": auth.TdbUserRoleReadWrite,
		"ro":        auth.TdbUserRoleReadOnly,
	} {
		role, err := auth.ParseRole(in)
		assert.NilError(t, err)
		assert.Equal(t, role, want)
	}

	_, err := auth.ParseRole("root")
	assert.ErrorContains(t, err, "Invalid user role: root")
	assert.Equal(t, auth.TdbUserRoleReadOnly.String(), "readOnly")
}

func TestUsers(t *testing.T) {
	t.Run("no users", func(t *testing.T) {
		users := auth.NewUsers()
		user, err := users.Authenticate("", "")
		assert.NilError(t, err)
		assert.Equal(t, user, auth.Anonymous)
		assert.Assert(t, user.HasClearance(auth.TdbUserRoleAdmin))
	})

	t.Run("authenticate", func(t *testing.T) {
		users := auth.NewUsers()
		_, err := users.Add("reader", "pw", auth.TdbUserRoleReadOnly)
		assert.NilError(t, err)
		assert.Equal(t, users.Len(), 1)

		user, err := users.Authenticate("reader", "pw")
		assert.NilError(t, err)
		assert.Equal(t, user.Name, "reader")

		_, err = users.Authenticate("reader", "nope")
		assert.Equal(t, err, auth.InvalidCredentials)
		_, err = users.Authenticate("ghost", "pw")
		assert.Equal(t, err, auth.InvalidCredentials)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := auth.NewUsers().Add("", "pw", auth.TdbUserRoleAdmin)
		assert.ErrorContains(t, err, "Username cannot be empty")
	})

	t.Run("remove", func(t *testing.T) {
		users := auth.NewUsers()
		users.Add("a", "pw", auth.TdbUserRoleAdmin)
		users.Add("b", "pw", auth.TdbUserRoleAdmin)
		users.Remove("a")
		_, err := users.Authenticate("a", "pw")
		assert.Equal(t, err, auth.InvalidCredentials)
	})
}
