package model

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Member is a family participant who can be assigned tasks.
type Member struct {
	ID        int64  `json:"id,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      Role   `json:"role,omitempty"`
}

// FullName returns "First Last".
func (m Member) FullName() string {
	switch {
	case m.FirstName == "":
		return m.LastName
	case m.LastName == "":
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}

// User is the login credential record checked during authentication. It is
// kept in sync with the Member of the same email by the directory client.
type User struct {
	ID        int64  `json:"id,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      Role   `json:"role,omitempty"`
}

// UserFromMember copies a member's fields into a credential record. The id is
// left unset so the store assigns its own.
func UserFromMember(m Member, role Role) User {
	return User{
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Phone:     m.Phone,
		Email:     m.Email,
		Password:  m.Password,
		Role:      role,
	}
}

// AsUser returns the member viewed as a credential record, id included.
func (m Member) AsUser() User {
	u := UserFromMember(m, m.Role)
	u.ID = m.ID
	return u
}

// MemberPatch is a partial member update. Nil fields are left untouched.
type MemberPatch struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Email     *string `json:"email,omitempty"`
	Password  *string `json:"password,omitempty"`
	Role      *Role   `json:"role,omitempty"`
}

// IsEmpty reports whether the patch sets no field.
func (p MemberPatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Phone == nil &&
		p.Email == nil && p.Password == nil && p.Role == nil
}
