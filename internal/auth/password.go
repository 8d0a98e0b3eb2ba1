package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"

	"github.com/hnrobert/ftpmgr/internal/hostfs"
	"github.com/hnrobert/ftpmgr/internal/usermgr"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserLocked         = errors.New("user is locked")
	ErrUnsupportedHash    = errors.New("unsupported password hash")
	ErrNotAdmin           = errors.New("operator is not an administrator")
)

var DefaultAdminGroups = []string{"sudo", "wheel"}

// Operators authenticates admin panel users against the host account
// database.
type Operators struct {
	ShadowPath  string
	GroupPath   string
	AdminGroups []string
	// SuFallback enables su(1) verification for hash formats the crypt
	// library cannot check (yescrypt and friends).
	SuFallback bool
}

// NewOperators points at /etc/shadow and /etc/group below the host root.
func NewOperators(adminGroups []string) (*Operators, error) {
	shadow, err := hostfs.Path(hostfs.EtcShadowRel)
	if err != nil {
		return nil, err
	}
	group, err := hostfs.Path(hostfs.EtcGroupRel)
	if err != nil {
		return nil, err
	}
	if len(adminGroups) == 0 {
		adminGroups = DefaultAdminGroups
	}
	return &Operators{ShadowPath: shadow, GroupPath: group, AdminGroups: adminGroups, SuFallback: true}, nil
}

// Login verifies the password and requires admin group membership.
func (o *Operators) Login(ctx context.Context, username, password string) error {
	if err := o.Verify(ctx, username, password); err != nil {
		return err
	}
	admin, err := o.IsAdmin(username)
	if err != nil {
		return err
	}
	if !admin {
		return ErrNotAdmin
	}
	return nil
}

func (o *Operators) Verify(ctx context.Context, username, password string) error {
	sh, err := usermgr.LoadShadow(o.ShadowPath)
	if err != nil {
		return err
	}
	se := sh.Find(username)
	if se == nil {
		return ErrInvalidCredentials
	}
	if se.Locked() {
		return ErrUserLocked
	}
	ok, err := verifyCrypt(se.Hash, password)
	if err != nil {
		if !errors.Is(err, ErrUnsupportedHash) || !o.SuFallback {
			return err
		}
		ok, err = verifyWithSu(ctx, username, password)
		if err != nil {
			return err
		}
	}
	if !ok {
		return ErrInvalidCredentials
	}
	return nil
}

func verifyCrypt(hash, password string) (bool, error) {
	// $1$ (md5-crypt), $5$ (sha256-crypt), $6$ (sha512-crypt).
	crypters := []crypt.Crypter{sha512_crypt.New(), sha256_crypt.New(), md5_crypt.New()}
	for _, c := range crypters {
		if err := c.Verify(hash, []byte(password)); err == nil {
			return true, nil
		}
	}

	// Ubuntu commonly uses yescrypt ($y$).
	if strings.HasPrefix(hash, "$y$") || strings.HasPrefix(hash, "$7$") || strings.HasPrefix(hash, "$2") {
		return false, ErrUnsupportedHash
	}
	return false, nil
}

func (o *Operators) IsAdmin(username string) (bool, error) {
	gr, err := usermgr.LoadGroup(o.GroupPath)
	if err != nil {
		return false, err
	}
	return gr.MemberOfAny(username, o.AdminGroups), nil
}

func HumanAuthError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password."
	case errors.Is(err, ErrUserLocked):
		return "This account is locked."
	case errors.Is(err, ErrNotAdmin):
		return "This account is not allowed to manage FTP users."
	case errors.Is(err, ErrUnsupportedHash):
		return "This host uses an uncommon password hash format."
	default:
		return fmt.Sprintf("Authentication failed: %v", err)
	}
}
