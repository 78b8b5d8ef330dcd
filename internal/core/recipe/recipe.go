// Package recipe expands named query recipes into query states.
//
// Recipes live in a CUE catalog. Each recipe declares its parameters, the
// query features it needs and the oldest querycraft release that understands
// it. A recipe's state template is an ordinary state document whose strings
// may contain {{param}} placeholders.
package recipe

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/satishbabariya/querycraft/internal/version"
)

//go:embed catalog.cue
var builtin []byte

var (
	// ErrUnknownRecipe is returned for ids missing from the catalog.
	ErrUnknownRecipe = errors.New("unknown recipe")
	// ErrUnsupportedFeature is returned for recipes needing a query feature
	// the compiler cannot render, such as window functions.
	ErrUnsupportedFeature = errors.New("recipe requires an unsupported feature")
	// ErrUnavailable is returned for recipes newer than the running binary.
	ErrUnavailable = errors.New("recipe needs a newer querycraft")
	// ErrInvalidCatalog wraps every catalog load failure.
	ErrInvalidCatalog = errors.New("invalid recipe catalog")

	ErrMissingParam = errors.New("missing required parameter")
	ErrUnknownParam = errors.New("unknown parameter")
	ErrBadParam     = errors.New("invalid parameter value")
)

// Feature names a query capability a recipe depends on.
type Feature string

// Supported lists the features the compiler renders.
var Supported = map[Feature]bool{
	"where":     true,
	"order":     true,
	"limit":     true,
	"offset":    true,
	"aggregate": true,
	"group":     true,
	"having":    true,
	"join":      true,
	"distinct":  true,
	"insert":    true,
	"update":    true,
	"delete":    true,
}

// Param is a recipe parameter.
type Param struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Default     string `json:"default,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// Recipe is one catalog entry.
type Recipe struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	MinVersion  string    `json:"minVersion"`
	Requires    []Feature `json:"requires,omitempty"`
	Params      []Param   `json:"params"`
	// Available is false when the running binary is older than MinVersion.
	Available bool `json:"available"`
	// Unsupported lists required features the compiler cannot render.
	Unsupported []Feature `json:"unsupported,omitempty"`

	template map[string]any
}

// Param returns the named parameter.
func (r Recipe) Param(name string) (Param, bool) {
	for _, p := range r.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// ParamError reports a problem with one parameter of one recipe.
type ParamError struct {
	Recipe string
	Param  string
	Err    error
	Detail string
}

func (e *ParamError) Error() string {
	msg := fmt.Sprintf("recipe %s: %v %q", e.Recipe, e.Err, e.Param)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ParamError) Unwrap() error { return e.Err }

// CatalogError is a catalog load failure with its source position.
type CatalogError struct {
	Recipe  string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CatalogError) Error() string {
	where := e.Field
	if e.Recipe != "" {
		where = e.Recipe + "." + e.Field
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), where, e.Message)
	}
	return fmt.Sprintf("%s: %s", where, e.Message)
}

func (e *CatalogError) Unwrap() error { return ErrInvalidCatalog }

// Catalog is a loaded, immutable set of recipes.
type Catalog struct {
	recipes map[string]*Recipe
	order   []string
}

// Default loads the built-in catalog for the running binary.
func Default() (*Catalog, error) {
	return Parse(builtin, "catalog.cue", version.Version)
}

// Parse loads a CUE catalog. running is the binary version recipes are
// checked against.
func Parse(src []byte, filename, running string) (*Catalog, error) {
	ctx := cuecontext.New()
	root := ctx.CompileBytes(src, cue.Filename(filename))
	if err := root.Err(); err != nil {
		return nil, catalogError("", "cue", err)
	}

	recipesVal := root.LookupPath(cue.ParsePath("recipe"))
	if !recipesVal.Exists() {
		return nil, &CatalogError{Field: "recipe", Message: "no recipes declared", Pos: root.Pos()}
	}
	if err := recipesVal.Validate(cue.Concrete(true)); err != nil {
		return nil, catalogError("", "recipe", err)
	}

	iter, err := recipesVal.Fields()
	if err != nil {
		return nil, catalogError("", "recipe", err)
	}

	c := &Catalog{recipes: make(map[string]*Recipe)}
	for iter.Next() {
		id := iter.Selector().Unquoted()
		r, err := decodeRecipe(id, iter.Value(), running)
		if err != nil {
			return nil, err
		}
		c.recipes[id] = r
		c.order = append(c.order, id)
	}
	return c, nil
}

// List returns every recipe in catalog order.
func (c *Catalog) List() []Recipe {
	out := make([]Recipe, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.recipes[id])
	}
	return out
}

// Get returns one recipe.
func (c *Catalog) Get(id string) (Recipe, error) {
	r, ok := c.recipes[id]
	if !ok {
		return Recipe{}, fmt.Errorf("%w: %s", ErrUnknownRecipe, id)
	}
	return *r, nil
}

// Expand binds params to the recipe's parameters and returns the resulting
// state. Missing optional parameters take their defaults.
func (c *Catalog) Expand(id string, params map[string]string) (domain.State, error) {
	r, ok := c.recipes[id]
	if !ok {
		return domain.State{}, fmt.Errorf("%w: %s", ErrUnknownRecipe, id)
	}
	if !r.Available {
		return domain.State{}, fmt.Errorf("%w: %s needs querycraft %s or later", ErrUnavailable, id, r.MinVersion)
	}
	if len(r.Unsupported) > 0 {
		names := make([]string, len(r.Unsupported))
		for i, f := range r.Unsupported {
			names[i] = string(f)
		}
		return domain.State{}, fmt.Errorf("%w: %s needs %s", ErrUnsupportedFeature, id, strings.Join(names, ", "))
	}

	values, err := r.bind(params)
	if err != nil {
		return domain.State{}, err
	}
	return r.render(values)
}

func (r *Recipe) bind(params map[string]string) (map[string]string, error) {
	supplied := make([]string, 0, len(params))
	for name := range params {
		supplied = append(supplied, name)
	}
	sort.Strings(supplied)
	for _, name := range supplied {
		if _, ok := r.Param(name); !ok {
			return nil, &ParamError{Recipe: r.ID, Param: name, Err: ErrUnknownParam}
		}
	}

	values := make(map[string]string, len(r.Params))
	for _, p := range r.Params {
		v := strings.TrimSpace(params[p.Name])
		if v == "" {
			v = p.Default
		}
		if v == "" && p.Required {
			return nil, &ParamError{Recipe: r.ID, Param: p.Name, Err: ErrMissingParam}
		}
		values[p.Name] = v
	}
	return values, nil
}

func (r *Recipe) render(values map[string]string) (domain.State, error) {
	doc, _ := substitute(r.template, values).(map[string]any)

	for _, key := range []string{"columns", "groupBy"} {
		if list, ok := doc[key].([]any); ok {
			doc[key] = splitList(list)
		}
	}
	for _, key := range []string{"limit", "offset"} {
		s, ok := doc[key].(string)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n < 0 {
			return domain.State{}, &ParamError{
				Recipe: r.ID,
				Param:  placeholderOr(r.template[key], key),
				Err:    ErrBadParam,
				Detail: fmt.Sprintf("%s must be a non-negative integer, got %q", key, s),
			}
		}
		doc[key] = n
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return domain.State{}, fmt.Errorf("recipe %s: %w", r.ID, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var state domain.State
	if err := dec.Decode(&state); err != nil {
		return domain.State{}, fmt.Errorf("recipe %s: state template: %w", r.ID, err)
	}
	return state, nil
}

func decodeRecipe(id string, v cue.Value, running string) (*Recipe, error) {
	r := &Recipe{ID: id}

	var err error
	if r.Title, err = v.LookupPath(cue.ParsePath("title")).String(); err != nil {
		return nil, catalogError(id, "title", err)
	}
	if r.Description, err = v.LookupPath(cue.ParsePath("description")).String(); err != nil {
		return nil, catalogError(id, "description", err)
	}
	if r.MinVersion, err = v.LookupPath(cue.ParsePath("minVersion")).String(); err != nil {
		return nil, catalogError(id, "minVersion", err)
	}

	reqIter, err := v.LookupPath(cue.ParsePath("requires")).List()
	if err != nil {
		return nil, catalogError(id, "requires", err)
	}
	for reqIter.Next() {
		name, err := reqIter.Value().String()
		if err != nil {
			return nil, catalogError(id, "requires", err)
		}
		f := Feature(name)
		r.Requires = append(r.Requires, f)
		if !Supported[f] {
			r.Unsupported = append(r.Unsupported, f)
		}
	}

	paramIter, err := v.LookupPath(cue.ParsePath("params")).List()
	if err != nil {
		return nil, catalogError(id, "params", err)
	}
	for paramIter.Next() {
		var p Param
		if err := paramIter.Value().Decode(&p); err != nil {
			return nil, catalogError(id, "params", err)
		}
		if _, dup := r.Param(p.Name); dup {
			return nil, &CatalogError{Recipe: id, Field: "params", Message: fmt.Sprintf("parameter %q declared twice", p.Name), Pos: paramIter.Value().Pos()}
		}
		r.Params = append(r.Params, p)
	}

	stateVal := v.LookupPath(cue.ParsePath("state"))
	raw, err := stateVal.MarshalJSON()
	if err != nil {
		return nil, catalogError(id, "state", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&r.template); err != nil {
		return nil, &CatalogError{Recipe: id, Field: "state", Message: err.Error(), Pos: stateVal.Pos()}
	}
	for _, name := range placeholders(r.template) {
		if _, ok := r.Param(name); !ok {
			return nil, &CatalogError{Recipe: id, Field: "state", Message: fmt.Sprintf("placeholder {{%s}} has no parameter", name), Pos: stateVal.Pos()}
		}
	}

	r.Available, err = version.Satisfies(running, r.MinVersion)
	if err != nil {
		// Development builds carry no release number and see every recipe.
		if _, verr := version.Satisfies("0.0.0", r.MinVersion); verr != nil {
			return nil, &CatalogError{Recipe: id, Field: "minVersion", Message: verr.Error(), Pos: v.Pos()}
		}
		r.Available = true
	}
	return r, nil
}

// catalogError extracts the first positioned CUE error.
func catalogError(id, field string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &CatalogError{Recipe: id, Field: field, Message: err.Error()}
	}
	first := errs[0]
	ce := &CatalogError{Recipe: id, Field: field, Message: first.Error()}
	if pos := cueerrors.Positions(first); len(pos) > 0 {
		ce.Pos = pos[0]
	}
	return ce
}

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

func substitute(node any, values map[string]string) any {
	switch n := node.(type) {
	case string:
		return placeholderRe.ReplaceAllStringFunc(n, func(m string) string {
			return values[placeholderRe.FindStringSubmatch(m)[1]]
		})
	case []any:
		out := make([]any, len(n))
		for i, item := range n {
			out[i] = substitute(item, values)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, item := range n {
			out[substitute(k, values).(string)] = substitute(item, values)
		}
		return out
	default:
		return n
	}
}

func placeholders(node any) []string {
	seen := map[string]bool{}
	var walk func(any)
	walk = func(node any) {
		switch n := node.(type) {
		case string:
			for _, m := range placeholderRe.FindAllStringSubmatch(n, -1) {
				seen[m[1]] = true
			}
		case []any:
			for _, item := range n {
				walk(item)
			}
		case map[string]any:
			for k, item := range n {
				walk(k)
				walk(item)
			}
		}
	}
	walk(node)

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func placeholderOr(node any, fallback string) string {
	if s, ok := node.(string); ok {
		if m := placeholderRe.FindStringSubmatch(s); m != nil {
			return m[1]
		}
	}
	return fallback
}

// splitList expands comma separated entries and drops blanks.
func splitList(list []any) []any {
	out := make([]any, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			out = append(out, item)
			continue
		}
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
