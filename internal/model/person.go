package model

// UserType distinguishes the kinds of full user profiles.
type UserType string

const (
	UserTypePerson UserType = "person"
	UserTypeBot    UserType = "bot"
)

// Person is a reference into the document-database user directory.
//
// A full profile carries Type and usually Name. A partial reference carries
// only ID; Type is empty.
type Person struct {
	Object    string   `json:"object,omitempty"`
	ID        string   `json:"id"`
	Type      UserType `json:"type,omitempty"`
	Name      *string  `json:"name,omitempty"`
	AvatarURL *string  `json:"avatar_url,omitempty"`
	Email     string   `json:"-"`
}

// IsPartial reports whether p is an id-only reference without profile fields.
func (p Person) IsPartial() bool {
	return p.Type == ""
}

// personWire is the API shape of a user object.
type personWire struct {
	Object    string   `json:"object"`
	ID        string   `json:"id"`
	Type      UserType `json:"type"`
	Name      *string  `json:"name"`
	AvatarURL *string  `json:"avatar_url"`
	Person    *struct {
		Email string `json:"email"`
	} `json:"person"`
}

func (w personWire) toPerson() Person {
	p := Person{
		Object:    w.Object,
		ID:        w.ID,
		Type:      w.Type,
		Name:      w.Name,
		AvatarURL: w.AvatarURL,
	}
	if w.Person != nil {
		p.Email = w.Person.Email
	}
	return p
}
