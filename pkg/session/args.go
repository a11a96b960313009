package session

// Field names a value read from the receiving session when a line is
// formatted.
type Field int

const (
	FieldNickname Field = iota + 1
	FieldUsername
	FieldHostname
	FieldRealname
	FieldSource
)

// Arg is one reply parameter: either a literal or a field of the recipient.
type Arg struct {
	field Field
	value string
}

// Lit is a literal parameter.
func Lit(value string) Arg { return Arg{value: value} }

// Self is resolved against the session the line is sent to.
func Self(f Field) Arg { return Arg{field: f} }

// Lits wraps each value with Lit.
func Lits(values ...string) []Arg {
	args := make([]Arg, len(values))
	for i, v := range values {
		args[i] = Lit(v)
	}
	return args
}

func (a Arg) resolve(s *Session) string {
	switch a.field {
	case FieldNickname:
		return s.Nickname()
	case FieldUsername:
		return s.Username()
	case FieldHostname:
		return s.Hostname()
	case FieldRealname:
		return s.Realname()
	case FieldSource:
		return s.Source()
	}
	return a.value
}

func (s *Session) resolve(args []Arg) []string {
	params := make([]string, len(args))
	for i, a := range args {
		params[i] = a.resolve(s)
	}
	return params
}
