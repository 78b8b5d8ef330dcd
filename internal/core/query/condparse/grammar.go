package condparse

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// condLexer tokenizes condition text such as
// age > 18 AND name LIKE 'A%' OR id NOT IN (1, 2).
var condLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*(?:\.[\p{L}_][\p{L}\p{N}_]*)*`},
	{Name: "Operator", Pattern: `<>|!=|>=|<=|=|<|>`},
	{Name: "Punct", Pattern: `[(),*]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

type chain struct {
	Pos  lexer.Position
	Head *term   `@@`
	Tail []*link `@@*`
}

type link struct {
	Conj string `@("AND" | "OR")`
	Term *term  `@@`
}

type term struct {
	Pos    lexer.Position
	Target *target `@@`
	Test   *test   `@@`
}

type target struct {
	Name string `@Ident`
	Call *call  `@@?`
}

type call struct {
	Arg string `"(" @( Ident | "*" )? ")"`
}

type test struct {
	Null *nullTest `  @@`
	List *listTest `| @@`
	Like *likeTest `| @@`
	Cmp  *cmpTest  `| @@`
}

type nullTest struct {
	Not bool `"IS" @"NOT"? "NULL"`
}

type listTest struct {
	Not   bool       `@"NOT"? "IN" "("`
	Items []*literal `( @@ ( "," @@ )* )? ")"`
}

type likeTest struct {
	Pattern *literal `"LIKE" @@`
}

type cmpTest struct {
	Op    string   `@Operator`
	Value *literal `@@`
}

type literal struct {
	String *string `  @String`
	Number *string `| @Number`
	Word   *string `| @Ident`
}

var parser = participle.MustBuild[chain](
	participle.Lexer(condLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Ident"),
	participle.UseLookahead(4),
)
