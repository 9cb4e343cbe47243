package token

// Keywords is the reserved word set from spec §Glossary. ConvertKeywords
// reclassifies any IDENT token whose spelling is in this set to KEYWORD;
// it runs once, after macro expansion, exactly like the last step of the
// preprocessor pipeline in spec §4.2.
var Keywords = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extern": true, "float": true, "for": true, "goto": true,
	"if": true, "int": true, "long": true, "register": true, "restrict": true,
	"return": true, "short": true, "signed": true, "sizeof": true, "static": true,
	"struct": true, "switch": true, "typedef": true, "union": true, "unsigned": true,
	"void": true, "volatile": true, "while": true,
	"_Alignas": true, "_Alignof": true, "_Bool": true, "_Noreturn": true,
	"_Static_assert": true,
	"__restrict": true, "__restrict__": true,
}

// ConvertKeywords walks the token stream in place, reclassifying IDENT
// tokens whose spelling is a reserved word.
func ConvertKeywords(tok *Token) {
	for t := tok; t != nil; t = t.Next {
		if t.Kind == IDENT && Keywords[t.Text()] {
			t.Kind = KEYWORD
		}
	}
}

// Punctuators lists every multi-character punctuator, longest first so a
// greedy scan tries longer spellings before shorter prefixes of them.
var Punctuators = []string{
	"<<=", ">>=", "...",
	"==", "!=", "<=", ">=", "->", "+=", "-=", "*=", "/=", "++", "--",
	"%=", "&=", "|=", "^=", "&&", "||", "<<", ">>", "##",
	"+", "-", "*", "/", "%", "&", "|", "^", "~", "!",
	"<", ">", "=", "(", ")", "{", "}", "[", "]", ";", ":", ",", ".", "?", "#",
}
