package jsir

import "strings"

// TempPrefix starts every generated temporary. Source names that start with
// it are escaped, so temporaries never collide with user bindings.
const TempPrefix = "_$"

// mangleTable maps the characters '!' (33) .. '@' (64) to escape letters.
// A space means the character is kept as is.
const mangleTable = "jQh$oBz  apCmds          cSlegqt"

var reserved = map[string]bool{}

// Helpers are the runtime functions generated code calls by name. Source
// names equal to one of them are escaped so they cannot hide the helper.
var Helpers = []string{"head", "tail", "range", "_tag", "_tagS", "_tagCon"}

var helpers = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`break extends switch case finally this class
		for catch function try const if typeof continue import var debugger in
		void default instanceof while delete let with do new yield else return
		export super enum await implements static public package interface
		protected private null abstract float short boolean goto synchronized
		byte int transient char long volatile double native final`) {
		reserved[w] = true
	}
	for _, h := range Helpers {
		helpers[h] = true
	}
}

// IsReserved reports whether name is a reserved word of the target.
func IsReserved(name string) bool {
	return reserved[name]
}

// Mangle converts a source identifier into a valid target identifier.
// Operator characters become '$' followed by a letter; reserved words and
// names starting with TempPrefix are prefixed with TempPrefix, as are the
// names of Helpers.
func Mangle(name string) string {
	m := escape(name)
	if reserved[name] || helpers[name] || strings.HasPrefix(name, TempPrefix) {
		return TempPrefix + m
	}
	return m
}

func escape(name string) string {
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c > ' ' && c <= '@' && mangleTable[c-'!'] != ' ':
			b.WriteByte('$')
			b.WriteByte(mangleTable[c-'!'])
		case c == '^':
			b.WriteString("$v")
		case c == '|':
			b.WriteString("$I")
		case c == '~':
			b.WriteString("$_")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// IsIdentifier reports whether s can be used unquoted as a property name.
func IsIdentifier(s string) bool {
	if s == "" || reserved[s] {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
