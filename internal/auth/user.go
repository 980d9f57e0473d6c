package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tobsdb/memdb/pkg"
	"golang.org/x/crypto/bcrypt"
)

type TdbUserRole int

const (
	TdbUserRoleAdmin TdbUserRole = iota
	TdbUserRoleReadWrite
	TdbUserRoleReadOnly
)

var (
	InsufficientPermissions = errors.New("Insufficient permissions to perform this action")
	InvalidCredentials      = errors.New("Invalid username or password")
)

func ParseRole(s string) (TdbUserRole, error) {
	switch strings.ToLower(s) {
	case "admin":
		return TdbUserRoleAdmin, nil
	case "readwrite", "read-write", "rw":
		return TdbUserRoleReadWrite, nil
	case "readonly", "read-only", "ro":
		return TdbUserRoleReadOnly, nil
	default:
		return 0, fmt.Errorf("Invalid user role: %s", s)
	}
}

func (r TdbUserRole) String() string {
	switch r {
	case TdbUserRoleAdmin:
		return "admin"
	case TdbUserRoleReadWrite:
		return "readWrite"
	case TdbUserRoleReadOnly:
		return "readOnly"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

type TdbUser struct {
	Id       string
	Name     string
	Password []byte
	Role     TdbUserRole
}

func NewUser(name, password string, role TdbUserRole) (*TdbUser, error) {
	// password max size is 72 bytes because of bcrypt limit
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &TdbUser{uuid.New().String(), name, hashedPassword, role}, nil
}

func (u *TdbUser) ValidateUser(password string) bool {
	return bcrypt.CompareHashAndPassword(u.Password, []byte(password)) == nil
}

func (u *TdbUser) HasClearance(r TdbUserRole) bool { return u.Role <= r }

// Anonymous is handed to connections when no users are registered.
var Anonymous = &TdbUser{Name: "anonymous", Role: TdbUserRoleAdmin}

// Users is the set of accounts a server accepts, keyed by name.
type Users struct {
	locker sync.RWMutex
	users  pkg.Map[string, *TdbUser]
}

func NewUsers() *Users {
	return &Users{users: pkg.Map[string, *TdbUser]{}}
}

func (u *Users) GetLocker() *sync.RWMutex { return &u.locker }

func (u *Users) Add(name, password string, role TdbUserRole) (*TdbUser, error) {
	if len(name) == 0 {
		return nil, errors.New("Username cannot be empty")
	}
	user, err := NewUser(name, password, role)
	if err != nil {
		return nil, err
	}
	pkg.LockWrap(u, func() { u.users.Set(name, user) })
	return user, nil
}

func (u *Users) Remove(name string) {
	pkg.LockWrap(u, func() { u.users.Delete(name) })
}

func (u *Users) Len() int {
	return pkg.RLockWrapValue(u, func() int { return len(u.users) })
}

// Authenticate checks the credentials. With no registered users everyone is
// let in as Anonymous.
func (u *Users) Authenticate(name, password string) (*TdbUser, error) {
	var user *TdbUser
	empty := false
	pkg.RLockWrap(u, func() {
		empty = len(u.users) == 0
		user = u.users.Get(name)
	})
	if empty {
		return Anonymous, nil
	}
	if user == nil || !user.ValidateUser(password) {
		return nil, InvalidCredentials
	}
	return user, nil
}
