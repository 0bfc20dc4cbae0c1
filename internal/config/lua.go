package config

import (
	"context"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// Limits for definition scripts.
const (
	luaCallStackSize = 64
	luaTimeout       = 2 * time.Second
)

// parseLuaDefinition runs a definition script in a sandboxed state and
// decodes the table it returns.
func parseLuaDefinition(path string, data []byte) (def *Definition, err error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:  true,
		CallStackSize: luaCallStackSize,
	})
	defer L.Close()
	openSafeLibraries(L)

	ctx, cancel := context.WithTimeout(context.Background(), luaTimeout)
	defer cancel()
	L.SetContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			def, err = nil, &ParseError{Path: path, Message: fmt.Sprint(r)}
		}
	}()

	fn, err := L.LoadString(string(data))
	if err != nil {
		return nil, &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return nil, &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	ret := L.Get(-1)
	L.Pop(1)

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, &ParseError{Path: path, Message: fmt.Sprintf("script must return a table, got %s", ret.Type())}
	}
	d := &luaDecoder{path: path}
	def = d.definition(tbl)
	if d.err != nil {
		return nil, d.err
	}
	return def, nil
}

// openSafeLibraries opens the base, table and string libraries and removes
// the base functions that reach the file system.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// luaDecoder reads Definition fields from a table, remembering the first
// type error.
type luaDecoder struct {
	path string
	err  error
}

func (d *luaDecoder) definition(t *lua.LTable) *Definition {
	def := &Definition{
		Name:               d.str(t, "name"),
		Extensions:         d.list(t, "extensions"),
		Family:             d.str(t, "family"),
		CaseInsensitive:    d.boolean(t, "case_insensitive"),
		LineComments:       d.list(t, "line_comments"),
		BlockComment:       d.list(t, "block_comment"),
		DocComment:         d.str(t, "doc_comment"),
		RawStringQuote:     d.str(t, "raw_string_quote"),
		SingleQuoteStrings: d.boolean(t, "single_quote_strings"),
		Annotations:        d.boolean(t, "annotations"),
		DollarIdentifiers:  d.boolean(t, "dollar_identifiers"),
		Preprocessor:       d.boolean(t, "preprocessor"),
		NumberSuffixes:     d.str(t, "number_suffixes"),
		Brackets:           d.boolean(t, "brackets"),
		BlockOpener:        d.str(t, "block_opener"),
		ImportKeywords:     d.list(t, "import_keywords"),
	}

	switch kw := t.RawGetString("keywords").(type) {
	case *lua.LNilType:
	case *lua.LTable:
		def.Keywords = make(map[string][]string)
		kw.ForEach(func(k, _ lua.LValue) {
			name, ok := k.(lua.LString)
			if !ok {
				d.fail("keywords", "keys must be strings")
				return
			}
			def.Keywords[string(name)] = d.list(kw, string(name))
		})
	default:
		d.fail("keywords", "must be a table")
	}
	return def
}

func (d *luaDecoder) fail(field, msg string) {
	if d.err == nil {
		d.err = &ParseError{Path: d.path, Message: fmt.Sprintf("%s: %s", field, msg)}
	}
}

func (d *luaDecoder) str(t *lua.LTable, field string) string {
	switch v := t.RawGetString(field).(type) {
	case *lua.LNilType:
		return ""
	case lua.LString:
		return string(v)
	default:
		d.fail(field, "must be a string")
		return ""
	}
}

func (d *luaDecoder) boolean(t *lua.LTable, field string) bool {
	switch v := t.RawGetString(field).(type) {
	case *lua.LNilType:
		return false
	case lua.LBool:
		return bool(v)
	default:
		d.fail(field, "must be a boolean")
		return false
	}
}

func (d *luaDecoder) list(t *lua.LTable, field string) []string {
	switch v := t.RawGetString(field).(type) {
	case *lua.LNilType:
		return nil
	case lua.LString:
		return []string{string(v)}
	case *lua.LTable:
		out := make([]string, 0, v.Len())
		for i := 1; i <= v.Len(); i++ {
			s, ok := v.RawGetInt(i).(lua.LString)
			if !ok {
				d.fail(field, "must be a list of strings")
				return nil
			}
			out = append(out, string(s))
		}
		return out
	default:
		d.fail(field, "must be a string or a list of strings")
		return nil
	}
}
