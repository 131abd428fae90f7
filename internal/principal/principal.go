package principal

type Kind int           // principal kind (operator)
type CredentialType int // principal credential type (login|session)

type Principal struct {
	ID             string         `json:"id"` // operator username
	PrincipalType  Kind           `json:"-"`
	CredentialType CredentialType `json:"-"`
}

const (
	Operator Kind = iota // Dashboard operator
)

const (
	Login   CredentialType = iota // Auth via login form (username/password)
	Session                       // Auth via cookie-based session
)

func (k Kind) String() string {
	switch k {
	case Operator:
		return "operator"
	default:
		return "unknown"
	}
}

func (a CredentialType) String() string {
	switch a {
	case Login:
		return "login"
	case Session:
		return "session"
	default:
		return "unknown"
	}
}
